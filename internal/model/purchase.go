package model

import "time"

type PurchaseStatus string

const (
	PurchasePending   PurchaseStatus = "pending"
	PurchaseCompleted PurchaseStatus = "completed"
	PurchaseFailed    PurchaseStatus = "failed"
)

// AnonymousBuyerID is the sentinel some legacy clients send when no identity
// is attached. Fulfillment must never accept it.
const AnonymousBuyerID = "anonymous"

// FulfillmentEvent is the verified input to the recorder. All fields come
// from the payment provider or our own stores, never from client claims.
type FulfillmentEvent struct {
	IdempotencyKey string
	BuyerID        string
	BundleID       string
	CreatorID      string // optional, resolved from the bundle when empty
	AmountMinor    int64
	Currency       string
	PurchasedAt    time.Time // optional, zero means "now"; set by the reconciler
}

// PurchaseRecord is the canonical receipt in the unified purchase index,
// keyed by the provider session / payment-intent ID. At most one completed
// record may ever exist per key.
type PurchaseRecord struct {
	IdempotencyKey string         `gorm:"primaryKey;size:128;not null"`
	BuyerID        string         `gorm:"size:64;index;not null"`
	BundleID       string         `gorm:"size:64;index;not null"`
	CreatorID      string         `gorm:"size:64;index;not null"`
	AmountMinor    int64          `gorm:"not null"`
	Currency       string         `gorm:"size:8;not null"`
	Status         PurchaseStatus `gorm:"size:16;index;not null"`
	Items          []ContentItem  `gorm:"serializer:json"`
	PurchasedAt    time.Time
	CreatedAt      time.Time
}

// SalesLedgerEntry is the creator-facing denormalized copy of a purchase.
// Keyed by the same idempotency key so redelivered events cannot double it.
type SalesLedgerEntry struct {
	IdempotencyKey string `gorm:"primaryKey;size:128;not null"`
	CreatorID      string `gorm:"size:64;index;not null"`
	BuyerID        string `gorm:"size:64;not null"`
	BundleID       string `gorm:"size:64;not null"`
	BundleTitle    string `gorm:"size:255"`
	AmountMinor    int64  `gorm:"not null"`
	Currency       string `gorm:"size:8;not null"`
	SoldAt         time.Time
	CreatedAt      time.Time
}

// PurchaseHistoryEntry is the buyer-facing denormalized copy.
type PurchaseHistoryEntry struct {
	IdempotencyKey string        `gorm:"primaryKey;size:128;not null"`
	BuyerID        string        `gorm:"size:64;index;not null"`
	BundleID       string        `gorm:"size:64;not null"`
	BundleTitle    string        `gorm:"size:255"`
	AmountMinor    int64         `gorm:"not null"`
	Currency       string        `gorm:"size:8;not null"`
	Items          []ContentItem `gorm:"serializer:json"`
	PurchasedAt    time.Time
	CreatedAt      time.Time
}

// CheckoutOrder tracks a provider checkout session we created, so polling
// can tell "never started" apart from "payment still in flight".
type CheckoutOrder struct {
	SessionID   string `gorm:"primaryKey;size:128;not null"`
	OrderRef    string `gorm:"size:36;uniqueIndex;not null"`
	BuyerID     string `gorm:"size:64;index;not null"`
	BundleID    string `gorm:"size:64;index;not null"`
	AmountMinor int64  `gorm:"not null"`
	Currency    string `gorm:"size:8;not null"`
	Status      string `gorm:"size:32;index;not null"` // CREATED, COMPLETED, EXPIRED
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProcessedEvent dedups provider webhook deliveries by provider event ID.
type ProcessedEvent struct {
	EventID     string `gorm:"primaryKey;size:128;not null"`
	EventType   string `gorm:"size:64;index"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}

// LegacyPurchase is a row in the old per-buyer purchases collection, kept
// read-only and forward-filled into the unified index by the reconciler.
type LegacyPurchase struct {
	ID          uint   `gorm:"primaryKey"`
	BuyerID     string `gorm:"size:64;index;not null"`
	RecordType  string `gorm:"size:32;index;not null"` // bundle, tip, subscription
	SessionID   string `gorm:"size:128;index"`
	BundleID    string `gorm:"size:64"`
	AmountMinor int64
	Currency    string `gorm:"size:8"`
	PurchasedAt time.Time
	CreatedAt   time.Time
}

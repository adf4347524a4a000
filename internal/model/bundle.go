package model

import "time"

// ContentMetadata is the derived aggregate stored on a bundle. It is always
// recomputed from the full detailed list, never adjusted incrementally.
type ContentMetadata struct {
	TotalItems     int            `json:"total_items"`
	TotalSizeBytes int64          `json:"total_size_bytes"`
	CountsByType   map[string]int `json:"counts_by_type"`
	Formats        []string       `json:"formats"`
	Tags           []string       `json:"tags"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// BundleDocument is a creator-owned purchasable bundle. The content ID list
// and the detailed snapshot list are stored as JSON columns and must stay the
// same length; only the content mutator writes them, inside one transaction.
type BundleDocument struct {
	ID              string `gorm:"primaryKey;size:64;not null"`
	CreatorID       string `gorm:"size:64;index;not null"`
	Title           string `gorm:"size:255;not null"`
	Description     string `gorm:"size:2048"`
	PriceMinorUnits int64  `gorm:"not null"`
	Currency        string `gorm:"size:8;not null"`
	Active          bool   `gorm:"index;not null"`

	ContentItemIDs       []string        `gorm:"serializer:json"`
	DetailedContentItems []ContentItem   `gorm:"serializer:json"`
	Metadata             ContentMetadata `gorm:"serializer:json"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Creator owns bundles and receives sales. The counter fields are only ever
// changed by atomic increments.
type Creator struct {
	ID           string `gorm:"primaryKey;size:64;not null"`
	DisplayName  string `gorm:"size:255"`
	Email        string `gorm:"size:255;index"`
	Plan         string `gorm:"size:32;not null"` // free | pro
	TotalSales   int64  `gorm:"not null"`
	TotalRevenue int64  `gorm:"not null"` // minor units
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Buyer aggregate row. Same counter rules as Creator.
type Buyer struct {
	ID             string `gorm:"primaryKey;size:64;not null"`
	Email          string `gorm:"size:255;index"`
	TotalPurchases int64  `gorm:"not null"`
	TotalSpent     int64  `gorm:"not null"` // minor units
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

package dto

import "bundlehub/internal/model"

type CheckoutRequest struct {
	BundleID string `json:"bundle_id"`
}

type CheckoutResponse struct {
	SessionID   string `json:"session_id"`
	OrderRef    string `json:"order_ref"`
	CheckoutURL string `json:"checkout_url"`
}

type VerifyRequest struct {
	SessionID string `json:"session_id"`
}

type VerifyResponse struct {
	Status         string                `json:"status"` // completed | pending | delayed
	Purchase       *model.PurchaseRecord `json:"purchase,omitempty"`
	AlreadyGranted bool                  `json:"already_granted"`
}

type AddContentRequest struct {
	ContentIDs []string `json:"content_ids"`
}

// AddContentResult reports partial success: accepted items are committed
// even when the tail of the candidate list was skipped.
type AddContentResult struct {
	Added        []model.ContentItem `json:"added"`
	SkippedQuota int                 `json:"skipped_quota"`
	SkippedBad   int                 `json:"skipped_invalid"`
}

type ReconcileResult struct {
	Scanned  int `json:"scanned"`
	Upserted int `json:"upserted"`
	Skipped  int `json:"skipped"`
	Errors   int `json:"errors"`
}

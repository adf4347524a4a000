package model

// Stripe API payload shapes, trimmed to the fields the fulfillment path
// reads. Amounts are integer minor units as Stripe sends them.

type StripeCheckoutSession struct {
	ID            string         `json:"id"`
	URL           string         `json:"url"`
	PaymentIntent string         `json:"payment_intent"`
	PaymentStatus string         `json:"payment_status"` // paid | unpaid | no_payment_required
	Status        string         `json:"status"`         // open | complete | expired
	AmountTotal   int64          `json:"amount_total"`
	Currency      string         `json:"currency"`
	ClientRefID   string         `json:"client_reference_id"`
	Metadata      StripeMetadata `json:"metadata"`
	CustomerEmail string         `json:"customer_email"`
}

type StripePaymentIntent struct {
	ID       string         `json:"id"`
	Status   string         `json:"status"` // succeeded | processing | requires_payment_method | canceled
	Amount   int64          `json:"amount"`
	Currency string         `json:"currency"`
	Metadata StripeMetadata `json:"metadata"`
}

// StripeMetadata carries the keys checkout creation attaches so webhooks can
// be fulfilled without trusting the client.
type StripeMetadata struct {
	BundleID  string `json:"bundle_id"`
	BuyerID   string `json:"buyer_id"`
	CreatorID string `json:"creator_id"`
}

type StripeEventData struct {
	Object StripeCheckoutSession `json:"object"`
}

type StripeWebhookEvent struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Created int64           `json:"created"`
	Data    StripeEventData `json:"data"`
}

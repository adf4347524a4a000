package client

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bundlehub/internal/config"
	"bundlehub/internal/model"
)

type StripeClient interface {
	CreateCheckoutSession(ctx context.Context, params CreateSessionParams) (*model.StripeCheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*model.StripeCheckoutSession, error)
	GetPaymentIntent(ctx context.Context, intentID string) (*model.StripePaymentIntent, error)
	VerifyWebhookSignature(header string, body []byte) error
}

type CreateSessionParams struct {
	BundleID    string
	BuyerID     string
	CreatorID   string
	Name        string
	AmountMinor int64
	Currency    string
}

type stripeClientImpl struct {
	httpClient    *http.Client
	baseApiURL    string
	secretKey     string
	webhookSecret string
	successURL    string
	cancelURL     string
}

// signatureTolerance bounds how old a signed webhook timestamp may be.
const signatureTolerance = 5 * time.Minute

func NewStripeClient(cfg *config.Stripe, serviceBaseURL string) StripeClient {
	// redirect targets default to our own pages when not configured
	successURL := cfg.SuccessURL
	if successURL == "" {
		successURL = fmt.Sprintf("%s/checkout/success", serviceBaseURL)
	}
	cancelURL := cfg.CancelURL
	if cancelURL == "" {
		cancelURL = serviceBaseURL
	}

	return &stripeClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL:    cfg.BaseApiURL,
		secretKey:     cfg.SecretKey,
		webhookSecret: cfg.WebhookSecret,
		successURL:    successURL,
		cancelURL:     cancelURL,
	}
}

func (c *stripeClientImpl) CreateCheckoutSession(ctx context.Context, params CreateSessionParams) (*model.StripeCheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", c.successURL+"?session_id={CHECKOUT_SESSION_ID}")
	form.Set("cancel_url", c.cancelURL)
	form.Set("client_reference_id", params.BuyerID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", strings.ToLower(params.Currency))
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(params.AmountMinor, 10))
	form.Set("line_items[0][price_data][product_data][name]", params.Name)
	form.Set("metadata[bundle_id]", params.BundleID)
	form.Set("metadata[buyer_id]", params.BuyerID)
	form.Set("metadata[creator_id]", params.CreatorID)
	// payment_intent inherits the metadata so intent-scoped events carry it too
	form.Set("payment_intent_data[metadata][bundle_id]", params.BundleID)
	form.Set("payment_intent_data[metadata][buyer_id]", params.BuyerID)
	form.Set("payment_intent_data[metadata][creator_id]", params.CreatorID)

	var session model.StripeCheckoutSession
	if err := c.do(ctx, http.MethodPost, "/v1/checkout/sessions", form, &session); err != nil {
		return nil, fmt.Errorf("stripe create checkout session: %w", err)
	}

	return &session, nil
}

func (c *stripeClientImpl) GetCheckoutSession(ctx context.Context, sessionID string) (*model.StripeCheckoutSession, error) {
	var session model.StripeCheckoutSession
	err := c.do(ctx, http.MethodGet, "/v1/checkout/sessions/"+url.PathEscape(sessionID), nil, &session)
	if err != nil {
		return nil, fmt.Errorf("stripe get checkout session: %w", err)
	}

	return &session, nil
}

func (c *stripeClientImpl) GetPaymentIntent(ctx context.Context, intentID string) (*model.StripePaymentIntent, error) {
	var intent model.StripePaymentIntent
	err := c.do(ctx, http.MethodGet, "/v1/payment_intents/"+url.PathEscape(intentID), nil, &intent)
	if err != nil {
		return nil, fmt.Errorf("stripe get payment intent: %w", err)
	}

	return &intent, nil
}

// VerifyWebhookSignature checks the Stripe-Signature header (t=...,v1=...)
// against the webhook secret. The signed payload is "<t>.<raw body>".
func (c *stripeClientImpl) VerifyWebhookSignature(header string, body []byte) error {
	if header == "" {
		return fmt.Errorf("missing Stripe-Signature header")
	}

	var timestamp string
	var candidates []string
	for _, part := range strings.Split(header, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch k {
		case "t":
			timestamp = v
		case "v1":
			candidates = append(candidates, v)
		}
	}
	if timestamp == "" || len(candidates) == 0 {
		return fmt.Errorf("malformed Stripe-Signature header")
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("parse signature timestamp: %w", err)
	}
	age := time.Since(time.Unix(ts, 0))
	if age > signatureTolerance || age < -signatureTolerance {
		return fmt.Errorf("signature timestamp outside tolerance")
	}

	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, candidate := range candidates {
		if hmac.Equal([]byte(expected), []byte(candidate)) {
			return nil
		}
	}

	return fmt.Errorf("no matching v1 signature")
}

func (c *stripeClientImpl) do(ctx context.Context, method, path string, form url.Values, out interface{}) error {
	var bodyReader io.Reader
	if form != nil {
		bodyReader = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseApiURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("stripe error %d: %s", resp.StatusCode, string(b))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode stripe response: %w", err)
	}

	return nil
}

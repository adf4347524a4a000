package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"bundlehub/internal/client"
	"bundlehub/internal/config"
	"bundlehub/internal/dto"
	"bundlehub/internal/metrics"
	"bundlehub/internal/model"
	"bundlehub/internal/repository"
)

// FulfillmentVerifier is the single entry point for the three triggers that
// can complete a purchase: the provider webhook, the authenticated client
// verify call, and the post-redirect polling loop. All three converge on the
// same idempotency key, so whichever arrives first wins and the rest
// short-circuit.
type FulfillmentVerifier interface {
	HandleWebhook(ctx context.Context, signatureHeader string, body []byte) error
	VerifyAndRecord(ctx context.Context, buyerID, sessionID string) (*dto.VerifyResponse, error)
	AwaitCompletion(ctx context.Context, buyerID, sessionID string) (*dto.VerifyResponse, error)
}

type fulfillmentVerifierImpl struct {
	stripeClient client.StripeClient
	recorder     PurchaseRecorder
	indexRepo    repository.PurchaseIndexRepository
	eventRepo    repository.ProcessedEventRepository
	orderRepo    repository.CheckoutOrderRepository
	polling      config.Polling
	log          *zap.SugaredLogger
}

func NewFulfillmentVerifier(
	stripeClient client.StripeClient,
	recorder PurchaseRecorder,
	indexRepo repository.PurchaseIndexRepository,
	eventRepo repository.ProcessedEventRepository,
	orderRepo repository.CheckoutOrderRepository,
	polling config.Polling,
	log *zap.SugaredLogger,
) FulfillmentVerifier {
	return &fulfillmentVerifierImpl{
		stripeClient: stripeClient,
		recorder:     recorder,
		indexRepo:    indexRepo,
		eventRepo:    eventRepo,
		orderRepo:    orderRepo,
		polling:      polling,
		log:          log,
	}
}

func (s *fulfillmentVerifierImpl) HandleWebhook(ctx context.Context, signatureHeader string, body []byte) error {
	if err := s.stripeClient.VerifyWebhookSignature(signatureHeader, body); err != nil {
		return fmt.Errorf("verify webhook signature: %w", err)
	}

	var event model.StripeWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("decode webhook payload: %w", err)
	}

	exists, err := s.eventRepo.Exists(event.ID)
	if err != nil {
		return fmt.Errorf("check processed events: %w", err)
	}
	if exists {
		metrics.DuplicateFulfillments.WithLabelValues("webhook").Inc()
		s.log.Infow("webhook redelivery ignored", "event_id", event.ID, "type", event.Type)
		return nil
	}

	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		if _, err := s.fulfillSession(ctx, &event.Data.Object, "webhook"); err != nil {
			return err
		}
	case "payment_intent.succeeded":
		// fulfillment is driven by the session-level event; the intent
		// event for the same payment carries the same metadata and would
		// only race it
		s.log.Debugw("ignoring payment_intent.succeeded", "event_id", event.ID)
	default:
		s.log.Debugw("unhandled webhook event type", "event_id", event.ID, "type", event.Type)
	}

	return s.eventRepo.MarkProcessed(event.ID, event.Type)
}

func (s *fulfillmentVerifierImpl) VerifyAndRecord(ctx context.Context, buyerID, sessionID string) (*dto.VerifyResponse, error) {
	return s.verify(ctx, buyerID, sessionID, "verify")
}

func (s *fulfillmentVerifierImpl) verify(ctx context.Context, buyerID, sessionID, trigger string) (*dto.VerifyResponse, error) {
	if buyerID == "" || buyerID == model.AnonymousBuyerID {
		metrics.AnonymousRejections.Inc()
		s.log.Errorw("SECURITY: verify call without buyer identity", "session_id", sessionID, "trigger", trigger)
		return nil, model.ErrAnonymousBuyer
	}
	if sessionID == "" {
		return nil, fmt.Errorf("session id is required: %w", model.ErrValidation)
	}

	// short-circuit before touching the provider; redeliveries and races
	// land here and that is the expected outcome. The stored record still
	// belongs to whoever paid, so the ownership check applies here too.
	if record, err := s.indexRepo.FindByKey(ctx, sessionID); err == nil && record.Status == model.PurchaseCompleted {
		if record.BuyerID != buyerID {
			s.log.Errorw("SECURITY: buyer attempted to verify another buyer's session",
				"session_id", sessionID, "buyer_id", buyerID, "session_buyer", record.BuyerID)
			return nil, model.ErrUnauthorized
		}
		metrics.DuplicateFulfillments.WithLabelValues(trigger).Inc()
		return &dto.VerifyResponse{Status: "completed", Purchase: record, AlreadyGranted: true}, nil
	}

	// the provider record is the source of truth, never the client's claim
	session, err := s.stripeClient.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load checkout session: %w", err)
	}

	sessionBuyer := session.Metadata.BuyerID
	if sessionBuyer == "" {
		sessionBuyer = session.ClientRefID
	}
	if sessionBuyer != buyerID {
		s.log.Errorw("SECURITY: buyer attempted to verify another buyer's session",
			"session_id", sessionID, "buyer_id", buyerID, "session_buyer", sessionBuyer)
		return nil, model.ErrUnauthorized
	}

	record, err := s.fulfillSession(ctx, session, trigger)
	if err != nil {
		return nil, err
	}

	return &dto.VerifyResponse{Status: "completed", Purchase: record}, nil
}

// fulfillSession validates the provider-reported payment state and drives
// the recorder. The session ID doubles as the idempotency key everywhere.
func (s *fulfillmentVerifierImpl) fulfillSession(ctx context.Context, session *model.StripeCheckoutSession, trigger string) (*model.PurchaseRecord, error) {
	buyerID := session.Metadata.BuyerID
	if buyerID == "" {
		buyerID = session.ClientRefID
	}
	if buyerID == "" || buyerID == model.AnonymousBuyerID {
		metrics.AnonymousRejections.Inc()
		s.log.Errorw("SECURITY: checkout session without buyer identity",
			"session_id", session.ID, "trigger", trigger)
		return nil, model.ErrAnonymousBuyer
	}

	if session.PaymentStatus != "paid" && session.PaymentStatus != "no_payment_required" {
		return nil, fmt.Errorf("session %s payment_status=%s: %w",
			session.ID, session.PaymentStatus, model.ErrPaymentNotCompleted)
	}

	record, err := s.recorder.Record(ctx, model.FulfillmentEvent{
		IdempotencyKey: session.ID,
		BuyerID:        buyerID,
		BundleID:       session.Metadata.BundleID,
		CreatorID:      session.Metadata.CreatorID,
		AmountMinor:    session.AmountTotal,
		Currency:       session.Currency,
	})
	if err != nil {
		return nil, err
	}

	// best effort, the pending order row is diagnostics only
	if err := s.orderRepo.MarkCompleted(ctx, session.ID); err != nil {
		s.log.Warnw("mark checkout order completed", "session_id", session.ID, "error", err)
	}

	return record, nil
}

// AwaitCompletion is the bounded post-redirect polling loop. Exhausting the
// attempt budget is not an error: the payment may still settle and the
// webhook will finish the job, so the caller just sees "delayed".
func (s *fulfillmentVerifierImpl) AwaitCompletion(ctx context.Context, buyerID, sessionID string) (*dto.VerifyResponse, error) {
	// a session we never opened is not worth polling for; the pending order
	// row tells "unseen" apart from "payment still in flight"
	if _, err := s.orderRepo.FindBySessionID(ctx, sessionID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("unknown checkout session %s: %w", sessionID, model.ErrNotFound)
		}
		return nil, fmt.Errorf("load checkout order: %w", err)
	}

	for attempt := 1; attempt <= s.polling.MaxAttempts; attempt++ {
		resp, err := s.verify(ctx, buyerID, sessionID, "poll")
		if err == nil {
			return resp, nil
		}
		if !errors.Is(err, model.ErrPaymentNotCompleted) {
			return nil, err
		}

		if attempt == s.polling.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.polling.AttemptDelay):
		}
	}

	s.log.Infow("verification delayed past polling budget",
		"session_id", sessionID, "attempts", s.polling.MaxAttempts)

	return &dto.VerifyResponse{Status: "delayed"}, nil
}

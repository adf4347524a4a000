package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bundlehub/internal/client"
	"bundlehub/internal/dto"
	"bundlehub/internal/metrics"
	"bundlehub/internal/model"
	"bundlehub/internal/repository"
)

type CheckoutService interface {
	Checkout(ctx context.Context, buyerID, bundleID string) (*dto.CheckoutResponse, error)
}

type checkoutServiceImpl struct {
	stripeClient client.StripeClient
	bundleRepo   repository.BundleRepository
	orderRepo    repository.CheckoutOrderRepository
	log          *zap.SugaredLogger
}

func NewCheckoutService(
	stripeClient client.StripeClient,
	bundleRepo repository.BundleRepository,
	orderRepo repository.CheckoutOrderRepository,
	log *zap.SugaredLogger,
) CheckoutService {
	return &checkoutServiceImpl{
		stripeClient: stripeClient,
		bundleRepo:   bundleRepo,
		orderRepo:    orderRepo,
		log:          log,
	}
}

// Checkout opens a provider session for one bundle and remembers it as a
// pending order. Fulfillment happens later, through the verifier, once the
// provider confirms payment.
func (s *checkoutServiceImpl) Checkout(ctx context.Context, buyerID, bundleID string) (*dto.CheckoutResponse, error) {
	if buyerID == "" || buyerID == model.AnonymousBuyerID {
		metrics.AnonymousRejections.Inc()
		s.log.Errorw("SECURITY: checkout attempt without buyer identity", "bundle_id", bundleID)
		return nil, model.ErrAnonymousBuyer
	}

	bundle, err := s.bundleRepo.FindByID(ctx, bundleID)
	if err != nil {
		return nil, fmt.Errorf("resolve bundle: %w", err)
	}
	if !bundle.Active {
		return nil, fmt.Errorf("bundle %s is not for sale: %w", bundleID, model.ErrValidation)
	}

	orderRef := uuid.NewString()

	session, err := s.stripeClient.CreateCheckoutSession(ctx, client.CreateSessionParams{
		BundleID:    bundle.ID,
		BuyerID:     buyerID,
		CreatorID:   bundle.CreatorID,
		Name:        bundle.Title,
		AmountMinor: bundle.PriceMinorUnits,
		Currency:    bundle.Currency,
	})
	if err != nil {
		return nil, fmt.Errorf("stripe create session: %w", err)
	}

	err = s.orderRepo.Create(ctx, &model.CheckoutOrder{
		SessionID:   session.ID,
		OrderRef:    orderRef,
		BuyerID:     buyerID,
		BundleID:    bundle.ID,
		AmountMinor: bundle.PriceMinorUnits,
		Currency:    bundle.Currency,
		Status:      "CREATED",
	})
	if err != nil {
		return nil, fmt.Errorf("store pending order: %w", err)
	}

	s.log.Infow("checkout session opened",
		"order_ref", orderRef,
		"session_id", session.ID,
		"bundle_id", bundle.ID,
	)

	return &dto.CheckoutResponse{
		SessionID:   session.ID,
		OrderRef:    orderRef,
		CheckoutURL: session.URL,
	}, nil
}

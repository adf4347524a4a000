package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"bundlehub/internal/dto"
	"bundlehub/internal/metrics"
	"bundlehub/internal/model"
	"bundlehub/internal/repository"
)

const reconcilerPageSize = 200

// LegacyReconciler forward-fills the old per-buyer purchase rows into the
// unified index. It only ever inserts through the recorder's idempotent
// write path, so re-running it is always safe and never downgrades a
// completed record.
type LegacyReconciler interface {
	Reconcile(ctx context.Context) (*dto.ReconcileResult, error)
}

type legacyReconcilerImpl struct {
	legacyRepo repository.LegacyPurchaseRepository
	indexRepo  repository.PurchaseIndexRepository
	recorder   PurchaseRecorder
	log        *zap.SugaredLogger
}

func NewLegacyReconciler(
	legacyRepo repository.LegacyPurchaseRepository,
	indexRepo repository.PurchaseIndexRepository,
	recorder PurchaseRecorder,
	log *zap.SugaredLogger,
) LegacyReconciler {
	return &legacyReconcilerImpl{
		legacyRepo: legacyRepo,
		indexRepo:  indexRepo,
		recorder:   recorder,
		log:        log,
	}
}

func (s *legacyReconcilerImpl) Reconcile(ctx context.Context) (*dto.ReconcileResult, error) {
	result := &dto.ReconcileResult{}
	afterID := uint(0)

	for {
		rows, err := s.legacyRepo.ListByType(ctx, "bundle", afterID, reconcilerPageSize)
		if err != nil {
			return result, fmt.Errorf("scan legacy purchases: %w", err)
		}
		if len(rows) == 0 {
			break
		}

		for _, row := range rows {
			afterID = row.ID
			result.Scanned++

			if row.SessionID == "" {
				result.Errors++
				s.log.Warnw("legacy purchase has no session key, cannot reconcile", "legacy_id", row.ID)
				continue
			}
			if row.BuyerID == "" || row.BuyerID == model.AnonymousBuyerID {
				result.Errors++
				s.log.Warnw("legacy purchase has no buyer identity, refusing to grant", "legacy_id", row.ID)
				continue
			}

			existing, err := s.indexRepo.FindByKey(ctx, row.SessionID)
			if err == nil && existing.Status == model.PurchaseCompleted {
				result.Skipped++
				metrics.DuplicateFulfillments.WithLabelValues("reconciler").Inc()
				continue
			}
			if err != nil && !errors.Is(err, model.ErrNotFound) {
				result.Errors++
				s.log.Warnw("unified index lookup failed", "legacy_id", row.ID, "error", err)
				continue
			}

			_, err = s.recorder.Record(ctx, model.FulfillmentEvent{
				IdempotencyKey: row.SessionID,
				BuyerID:        row.BuyerID,
				BundleID:       row.BundleID,
				AmountMinor:    row.AmountMinor,
				Currency:       row.Currency,
				PurchasedAt:    row.PurchasedAt,
			})
			if err != nil {
				result.Errors++
				s.log.Warnw("legacy upsert failed", "legacy_id", row.ID, "session_id", row.SessionID, "error", err)
				continue
			}

			result.Upserted++
			metrics.ReconcilerUpserts.Inc()
		}

		if len(rows) < reconcilerPageSize {
			break
		}
	}

	s.log.Infow("legacy reconcile finished",
		"scanned", result.Scanned,
		"upserted", result.Upserted,
		"skipped", result.Skipped,
		"errors", result.Errors,
	)

	return result, nil
}

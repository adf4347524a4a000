package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"bundlehub/internal/metrics"
	"bundlehub/internal/model"
	"bundlehub/internal/repository"
)

// PurchaseRecorder turns a verified fulfillment event into the canonical
// purchase record and writes it to every store that must reflect it. Every
// sink is idempotent on the event's key, so the whole operation can be
// retried after a crash or a partial failure.
type PurchaseRecorder interface {
	Record(ctx context.Context, event model.FulfillmentEvent) (*model.PurchaseRecord, error)
}

type purchaseRecorderImpl struct {
	indexRepo   repository.PurchaseIndexRepository
	ledgerRepo  repository.SalesLedgerRepository
	historyRepo repository.PurchaseHistoryRepository
	bundleRepo  repository.BundleRepository
	contentRepo repository.ContentRepository
	uploadRepo  repository.UploadRepository
	creatorRepo repository.CreatorRepository
	buyerRepo   repository.BuyerRepository
	log         *zap.SugaredLogger
}

func NewPurchaseRecorder(
	indexRepo repository.PurchaseIndexRepository,
	ledgerRepo repository.SalesLedgerRepository,
	historyRepo repository.PurchaseHistoryRepository,
	bundleRepo repository.BundleRepository,
	contentRepo repository.ContentRepository,
	uploadRepo repository.UploadRepository,
	creatorRepo repository.CreatorRepository,
	buyerRepo repository.BuyerRepository,
	log *zap.SugaredLogger,
) PurchaseRecorder {
	return &purchaseRecorderImpl{
		indexRepo:   indexRepo,
		ledgerRepo:  ledgerRepo,
		historyRepo: historyRepo,
		bundleRepo:  bundleRepo,
		contentRepo: contentRepo,
		uploadRepo:  uploadRepo,
		creatorRepo: creatorRepo,
		buyerRepo:   buyerRepo,
		log:         log,
	}
}

func (s *purchaseRecorderImpl) Record(ctx context.Context, event model.FulfillmentEvent) (*model.PurchaseRecord, error) {
	if event.IdempotencyKey == "" {
		return nil, fmt.Errorf("idempotency key is required: %w", model.ErrValidation)
	}
	if event.BuyerID == "" || event.BuyerID == model.AnonymousBuyerID {
		metrics.AnonymousRejections.Inc()
		s.log.Errorw("SECURITY: fulfillment event without buyer identity",
			"idempotency_key", event.IdempotencyKey,
			"bundle_id", event.BundleID,
		)
		return nil, model.ErrAnonymousBuyer
	}
	if event.BundleID == "" {
		return nil, fmt.Errorf("bundle id is required: %w", model.ErrValidation)
	}

	// idempotency check first: webhook redelivery and client races are the
	// normal case here, not the exception
	existing, err := s.indexRepo.FindByKey(ctx, event.IdempotencyKey)
	if err == nil && existing.Status == model.PurchaseCompleted {
		return existing, nil
	}
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("lookup purchase index: %w", err)
	}

	bundle, err := s.bundleRepo.FindByID(ctx, event.BundleID)
	if err != nil {
		return nil, fmt.Errorf("resolve bundle: %w", err)
	}

	creatorID := event.CreatorID
	if creatorID == "" {
		creatorID = bundle.CreatorID
	}

	items := s.buildSnapshot(ctx, bundle)
	if len(items) == 0 {
		s.log.Warnw("recording purchase with empty content snapshot",
			"idempotency_key", event.IdempotencyKey, "bundle_id", bundle.ID)
	}

	// legacy rows carry their original purchase date; live fulfillments
	// are stamped now
	purchasedAt := event.PurchasedAt
	if purchasedAt.IsZero() {
		purchasedAt = time.Now().UTC()
	}
	record := &model.PurchaseRecord{
		IdempotencyKey: event.IdempotencyKey,
		BuyerID:        event.BuyerID,
		BundleID:       bundle.ID,
		CreatorID:      creatorID,
		AmountMinor:    event.AmountMinor,
		Currency:       event.Currency,
		Status:         model.PurchaseCompleted,
		Items:          items,
		PurchasedAt:    purchasedAt,
	}

	// Fan-out to the denormalized sinks first; the unified index entry is
	// the terminal write that marks the whole purchase done. A crash in the
	// middle leaves the index incomplete, so a retry redoes the fan-out and
	// every sink dedups on the idempotency key. Counter bumps are guarded
	// by whichever sink write actually inserted.
	ledgerInserted, err := s.ledgerRepo.CreateIfAbsent(ctx, &model.SalesLedgerEntry{
		IdempotencyKey: event.IdempotencyKey,
		CreatorID:      creatorID,
		BuyerID:        event.BuyerID,
		BundleID:       bundle.ID,
		BundleTitle:    bundle.Title,
		AmountMinor:    event.AmountMinor,
		Currency:       event.Currency,
		SoldAt:         purchasedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("write sales ledger: %w", model.ErrPartialWrite)
	}
	if ledgerInserted {
		if err := s.creatorRepo.IncrementSales(ctx, creatorID, event.AmountMinor); err != nil {
			return nil, fmt.Errorf("bump creator counters: %w", model.ErrPartialWrite)
		}
	}

	historyInserted, err := s.historyRepo.CreateIfAbsent(ctx, &model.PurchaseHistoryEntry{
		IdempotencyKey: event.IdempotencyKey,
		BuyerID:        event.BuyerID,
		BundleID:       bundle.ID,
		BundleTitle:    bundle.Title,
		AmountMinor:    event.AmountMinor,
		Currency:       event.Currency,
		Items:          items,
		PurchasedAt:    purchasedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("write purchase history: %w", model.ErrPartialWrite)
	}
	if historyInserted {
		if err := s.buyerRepo.IncrementPurchases(ctx, event.BuyerID, event.AmountMinor); err != nil {
			return nil, fmt.Errorf("bump buyer counters: %w", model.ErrPartialWrite)
		}
	}

	// check-then-act: re-check right before the terminal write; the insert
	// itself is conflict-safe so losing the race to a concurrent trigger is
	// fine, both writers converge on the same content
	existing, err = s.indexRepo.FindByKey(ctx, event.IdempotencyKey)
	if err == nil && existing.Status == model.PurchaseCompleted {
		return existing, nil
	}
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("recheck purchase index: %w", err)
	}

	inserted, err := s.indexRepo.CreateIfAbsent(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("write purchase index: %w", model.ErrPartialWrite)
	}
	if !inserted {
		winner, err := s.indexRepo.FindByKey(ctx, event.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("read back winning purchase record: %w", err)
		}
		return winner, nil
	}

	metrics.PurchasesRecorded.Inc()

	s.log.Infow("purchase recorded",
		"idempotency_key", event.IdempotencyKey,
		"buyer_id", event.BuyerID,
		"bundle_id", bundle.ID,
		"amount_minor", event.AmountMinor,
		"items", len(items),
	)

	return record, nil
}

// buildSnapshot captures what the buyer is entitled to at purchase time.
// Sources are tried in order and the chain stops at the first one that
// yields at least one normalized item.
func (s *purchaseRecorderImpl) buildSnapshot(ctx context.Context, bundle *model.BundleDocument) []model.ContentItem {
	// 1. the bundle's own detailed list, re-normalized so dangling
	// references that crept in are dropped from the snapshot
	if len(bundle.DetailedContentItems) > 0 {
		items := make([]model.ContentItem, 0, len(bundle.DetailedContentItems))
		for _, detail := range bundle.DetailedContentItems {
			item, err := NormalizeContent(sourceFromItem(detail), detail.ID)
			if err != nil {
				s.log.Warnw("dropping detailed item from snapshot", "content_id", detail.ID, "error", err)
				continue
			}
			items = append(items, *item)
		}
		if len(items) > 0 {
			return items
		}
	}

	// 2. the legacy ID list, resolved against content then uploads store
	if len(bundle.ContentItemIDs) > 0 {
		items := make([]model.ContentItem, 0, len(bundle.ContentItemIDs))
		for _, id := range bundle.ContentItemIDs {
			if record, err := s.contentRepo.FindByID(ctx, id); err == nil {
				if item, err := NormalizeContent(record.AsSource(), id); err == nil {
					items = append(items, *item)
				}
				continue
			}
			if upload, err := s.uploadRepo.FindByID(ctx, id); err == nil {
				if item, err := NormalizeContent(upload.AsSource(), id); err == nil {
					items = append(items, *item)
				}
			}
		}
		if len(items) > 0 {
			return items
		}
	}

	// 3. query both stores by bundle id
	var items []model.ContentItem
	if records, err := s.contentRepo.FindByBundleID(ctx, bundle.ID); err != nil {
		s.log.Warnw("content store query failed during snapshot", "bundle_id", bundle.ID, "error", err)
	} else {
		for _, record := range records {
			if item, err := NormalizeContent(record.AsSource(), record.ID); err == nil {
				items = append(items, *item)
			}
		}
	}
	if uploads, err := s.uploadRepo.FindByBundleID(ctx, bundle.ID); err != nil {
		s.log.Warnw("uploads store query failed during snapshot", "bundle_id", bundle.ID, "error", err)
	} else {
		for _, upload := range uploads {
			if item, err := NormalizeContent(upload.AsSource(), upload.ID); err == nil {
				items = append(items, *item)
			}
		}
	}

	return items
}

func sourceFromItem(item model.ContentItem) model.SourceRecord {
	return model.SourceRecord{
		Source:          model.SourceInlineSnippet,
		FileURL:         item.FileURL,
		ThumbnailURL:    item.ThumbnailURL,
		Title:           item.Title,
		MimeType:        item.MimeType,
		FileSizeBytes:   item.FileSizeBytes,
		DurationSeconds: item.DurationSeconds,
		Tags:            item.Tags,
		CreatorID:       item.CreatorID,
		CreatedAt:       item.CreatedAt,
	}
}

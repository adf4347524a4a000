package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"bundlehub/internal/dto"
	"bundlehub/internal/metrics"
	"bundlehub/internal/model"
	"bundlehub/internal/repository"
)

type BundleContentService interface {
	AddContent(ctx context.Context, bundleID string, candidateIDs []string, tier model.TierInfo) (*dto.AddContentResult, error)
}

type bundleContentServiceImpl struct {
	bundleRepo  repository.BundleRepository
	contentRepo repository.ContentRepository
	uploadRepo  repository.UploadRepository
	log         *zap.SugaredLogger
}

func NewBundleContentService(
	bundleRepo repository.BundleRepository,
	contentRepo repository.ContentRepository,
	uploadRepo repository.UploadRepository,
	log *zap.SugaredLogger,
) BundleContentService {
	return &bundleContentServiceImpl{
		bundleRepo:  bundleRepo,
		contentRepo: contentRepo,
		uploadRepo:  uploadRepo,
		log:         log,
	}
}

// AddContent appends normalized items to the bundle under the tier quota.
// Partial success is a valid terminal state: accepted items are committed and
// the excess is reported as skipped. The whole mutation happens inside one
// bundle-document transaction so concurrent calls serialize.
func (s *bundleContentServiceImpl) AddContent(ctx context.Context, bundleID string, candidateIDs []string, tier model.TierInfo) (*dto.AddContentResult, error) {
	if bundleID == "" || len(candidateIDs) == 0 {
		return nil, fmt.Errorf("bundle id and content ids are required: %w", model.ErrValidation)
	}

	result := &dto.AddContentResult{}

	_, err := s.bundleRepo.UpdateContent(ctx, bundleID, func(b *model.BundleDocument) error {
		existing := make(map[string]struct{}, len(b.ContentItemIDs))
		for _, id := range b.ContentItemIDs {
			existing[id] = struct{}{}
		}

		// candidates already in the bundle are a no-op, not a quota charge
		candidates := make([]string, 0, len(candidateIDs))
		seen := make(map[string]struct{}, len(candidateIDs))
		for _, id := range candidateIDs {
			if _, ok := existing[id]; ok {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			candidates = append(candidates, id)
		}
		if len(candidates) == 0 {
			return nil
		}

		remaining, unlimited := RemainingCapacity(tier, len(b.ContentItemIDs))
		if !unlimited {
			if remaining == 0 {
				return &model.QuotaError{
					Max:     *tier.MaxContentItemsPerBundle,
					Current: len(b.ContentItemIDs),
				}
			}
			if len(candidates) > remaining {
				result.SkippedQuota = len(candidates) - remaining
				candidates = candidates[:remaining]
				metrics.QuotaSkips.Add(float64(result.SkippedQuota))
			}
		}

		for _, id := range candidates {
			item, err := s.resolveAndNormalize(ctx, id)
			if err != nil {
				result.SkippedBad++
				s.log.Warnw("skipping content candidate", "bundle_id", bundleID, "content_id", id, "error", err)
				continue
			}

			b.ContentItemIDs = append(b.ContentItemIDs, item.ID)
			b.DetailedContentItems = append(b.DetailedContentItems, *item)
			result.Added = append(result.Added, *item)
		}

		// always rebuilt from the full list so the aggregate cannot drift
		b.Metadata = RecomputeMetadata(b.DetailedContentItems)

		return nil
	})

	if err != nil {
		return nil, err
	}

	return result, nil
}

// resolveAndNormalize tries the content store first, then the creator
// uploads store under the same key.
func (s *bundleContentServiceImpl) resolveAndNormalize(ctx context.Context, id string) (*model.ContentItem, error) {
	record, err := s.contentRepo.FindByID(ctx, id)
	if err == nil {
		return NormalizeContent(record.AsSource(), id)
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	upload, err := s.uploadRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("content %s not found in any store: %w", id, err)
	}

	return NormalizeContent(upload.AsSource(), id)
}

// RecomputeMetadata derives the bundle aggregate from the full detailed
// list. Deterministic for a given list; never computed incrementally.
func RecomputeMetadata(items []model.ContentItem) model.ContentMetadata {
	meta := model.ContentMetadata{
		TotalItems:   len(items),
		CountsByType: make(map[string]int, 4),
		UpdatedAt:    time.Now().UTC(),
	}

	formats := make(map[string]struct{})
	tags := make(map[string]struct{})
	for _, item := range items {
		meta.TotalSizeBytes += item.FileSizeBytes
		meta.CountsByType[string(item.ContentType)]++
		if item.MimeType != "" {
			formats[item.MimeType] = struct{}{}
		}
		for _, tag := range item.Tags {
			tags[tag] = struct{}{}
		}
	}

	meta.Formats = sortedKeys(formats)
	meta.Tags = sortedKeys(tags)

	return meta
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

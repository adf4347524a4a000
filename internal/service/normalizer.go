package service

import (
	"fmt"
	"sort"
	"strings"

	"bundlehub/internal/model"
)

// fallbackMimeType is assumed when a source record carries no MIME type.
const fallbackMimeType = "application/octet-stream"

const fallbackTitle = "Untitled"

// strippedExtensions are trimmed from the display title only; the exact
// title keeps whatever the source had.
var strippedExtensions = []string{
	".mp4", ".mov", ".webm", ".mkv", ".avi",
	".mp3", ".wav", ".m4a", ".flac", ".ogg",
	".jpg", ".jpeg", ".png", ".gif", ".webp", ".pdf",
}

// NormalizeContent maps one raw source record onto the canonical item. It is
// pure and deterministic: identical input always yields structurally
// identical output, which is what lets reprocessing be detected as a no-op.
// Records without any usable URL are rejected with model.ErrValidation and
// must not be stored or counted anywhere.
func NormalizeContent(src model.SourceRecord, sourceID string) (*model.ContentItem, error) {
	fileURL := firstValidURL(src.FileURL, src.PublicURL, src.DownloadURL)
	if fileURL == "" {
		return nil, fmt.Errorf("source %s (%s) has no resolvable file url: %w", sourceID, src.Source, model.ErrValidation)
	}

	mimeType := src.MimeType
	if mimeType == "" {
		mimeType = fallbackMimeType
	}

	title := firstNonEmpty(src.Title, src.FileName, src.OriginalFileName, fallbackTitle)

	item := &model.ContentItem{
		ID:              sourceID,
		Title:           title,
		DisplayTitle:    stripMediaExtension(title),
		FileURL:         fileURL,
		ThumbnailURL:    firstValidURL(src.ThumbnailURL, src.PreviewURL),
		MimeType:        mimeType,
		ContentType:     contentTypeFromMime(mimeType),
		FileSizeBytes:   clampNonNegative(src.FileSizeBytes),
		DurationSeconds: clampNonNegativeFloat(src.DurationSeconds),
		Tags:            normalizeTags(src.Tags),
		CreatorID:       src.CreatorID,
		CreatedAt:       src.CreatedAt,
	}

	return item, nil
}

func contentTypeFromMime(mimeType string) model.ContentType {
	switch {
	case strings.HasPrefix(mimeType, "video/"):
		return model.ContentTypeVideo
	case strings.HasPrefix(mimeType, "audio/"):
		return model.ContentTypeAudio
	case strings.HasPrefix(mimeType, "image/"):
		return model.ContentTypeImage
	default:
		return model.ContentTypeDocument
	}
}

func firstValidURL(candidates ...string) string {
	for _, candidate := range candidates {
		if strings.HasPrefix(candidate, "http://") || strings.HasPrefix(candidate, "https://") {
			return candidate
		}
	}
	return ""
}

func firstNonEmpty(candidates ...string) string {
	for _, candidate := range candidates {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}
	return ""
}

func stripMediaExtension(title string) string {
	lower := strings.ToLower(title)
	for _, ext := range strippedExtensions {
		if strings.HasSuffix(lower, ext) && len(title) > len(ext) {
			return title[:len(title)-len(ext)]
		}
	}
	return title
}

func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)

	return out
}

func clampNonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

func clampNonNegativeFloat(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

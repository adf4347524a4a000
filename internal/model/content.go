package model

import "time"

type ContentType string

const (
	ContentTypeVideo    ContentType = "video"
	ContentTypeAudio    ContentType = "audio"
	ContentTypeImage    ContentType = "image"
	ContentTypeDocument ContentType = "document"
)

// ContentItem is the canonical content descriptor. It is built once by the
// normalizer and never mutated afterwards; merges produce a new item.
type ContentItem struct {
	ID              string      `json:"id"`
	Title           string      `json:"title"`
	DisplayTitle    string      `json:"display_title"`
	FileURL         string      `json:"file_url"`
	ThumbnailURL    string      `json:"thumbnail_url,omitempty"`
	MimeType        string      `json:"mime_type"`
	ContentType     ContentType `json:"content_type"`
	FileSizeBytes   int64       `json:"file_size_bytes"`
	DurationSeconds float64     `json:"duration_seconds,omitempty"`
	Tags            []string    `json:"tags,omitempty"`
	CreatorID       string      `json:"creator_id"`
	CreatedAt       time.Time   `json:"created_at"`
}

// SourceKind tags which store a raw record came from. The normalizer uses it
// only for logging; field precedence is the same for every shape.
type SourceKind string

const (
	SourceContentStore  SourceKind = "content"
	SourceCreatorUpload SourceKind = "upload"
	SourceInlineSnippet SourceKind = "inline"
)

// SourceRecord is the tagged-variant input to the normalizer. The upload
// stores disagree about which URL and title fields they fill in, so every
// known candidate field is present here and precedence is decided in one
// place instead of per call site.
type SourceRecord struct {
	Source SourceKind `json:"source"`

	// URL candidates, in resolution order.
	FileURL     string `json:"file_url,omitempty"`
	PublicURL   string `json:"public_url,omitempty"`
	DownloadURL string `json:"download_url,omitempty"`

	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	PreviewURL   string `json:"preview_url,omitempty"`

	// Title candidates, in resolution order.
	Title            string `json:"title,omitempty"`
	FileName         string `json:"file_name,omitempty"`
	OriginalFileName string `json:"original_file_name,omitempty"`

	MimeType        string    `json:"mime_type,omitempty"`
	FileSizeBytes   int64     `json:"file_size_bytes,omitempty"`
	DurationSeconds float64   `json:"duration_seconds,omitempty"`
	Tags            []string  `json:"tags,omitempty"`
	CreatorID       string    `json:"creator_id,omitempty"`
	CreatedAt       time.Time `json:"created_at,omitempty"`
}

// ContentRecord is a row in the primary content store.
type ContentRecord struct {
	ID           string `gorm:"primaryKey;size:64;not null"`
	BundleID     string `gorm:"size:64;index"`
	CreatorID    string `gorm:"size:64;index;not null"`
	Title        string `gorm:"size:255"`
	FileURL      string `gorm:"size:2048"`
	ThumbnailURL string `gorm:"size:2048"`
	MimeType     string `gorm:"size:128"`
	FileSize     int64
	Duration     float64
	Tags         []string `gorm:"serializer:json"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreatorUpload is a row in the secondary creator-uploads store. It predates
// the content store and uses different field names, which is exactly why the
// normalizer exists.
type CreatorUpload struct {
	ID               string `gorm:"primaryKey;size:64;not null"`
	CreatorID        string `gorm:"size:64;index;not null"`
	BundleID         string `gorm:"size:64;index"`
	OriginalFileName string `gorm:"size:255"`
	PublicURL        string `gorm:"size:2048"`
	DownloadURL      string `gorm:"size:2048"`
	PreviewURL       string `gorm:"size:2048"`
	ContentType      string `gorm:"size:128"` // raw MIME type despite the column name
	SizeBytes        int64
	DurationSeconds  float64
	CreatedAt        time.Time
}

// AsSource maps a content-store row onto the normalizer input.
func (r *ContentRecord) AsSource() SourceRecord {
	return SourceRecord{
		Source:          SourceContentStore,
		FileURL:         r.FileURL,
		ThumbnailURL:    r.ThumbnailURL,
		Title:           r.Title,
		MimeType:        r.MimeType,
		FileSizeBytes:   r.FileSize,
		DurationSeconds: r.Duration,
		Tags:            r.Tags,
		CreatorID:       r.CreatorID,
		CreatedAt:       r.CreatedAt,
	}
}

// AsSource maps an uploads-store row onto the normalizer input.
func (u *CreatorUpload) AsSource() SourceRecord {
	return SourceRecord{
		Source:           SourceCreatorUpload,
		PublicURL:        u.PublicURL,
		DownloadURL:      u.DownloadURL,
		PreviewURL:       u.PreviewURL,
		OriginalFileName: u.OriginalFileName,
		MimeType:         u.ContentType,
		FileSizeBytes:    u.SizeBytes,
		DurationSeconds:  u.DurationSeconds,
		CreatorID:        u.CreatorID,
		CreatedAt:        u.CreatedAt,
	}
}

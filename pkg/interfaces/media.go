package interfaces

import (
	"context"
	"errors"
)

var (
	// ErrMediaNotFound indicates that the requested media item is not present in the store.
	ErrMediaNotFound = errors.New("media store: item not found")
	// ErrMediaStoreUnavailable reports that the backing store cannot be reached.
	ErrMediaStoreUnavailable = errors.New("media store: unavailable")
)

// MediaKind discriminates stored media payloads.
type MediaKind string

const (
	MediaKindAudio   MediaKind = "audio"
	MediaKindCaption MediaKind = "caption"
	MediaKindImage   MediaKind = "image"
	MediaKindVideo   MediaKind = "video"
)

// MediaMetadata captures descriptive properties persisted alongside a media payload.
type MediaMetadata struct {
	PageID       string    `json:"page_id"`
	Type         MediaKind `json:"type"`
	OriginalName string    `json:"original_name"`
	MimeType     string    `json:"mime_type,omitempty"`
	Source       string    `json:"source,omitempty"`
	EmbedURL     string    `json:"embed_url,omitempty"`
	Title        string    `json:"title,omitempty"`
}

// MediaUpload carries a payload and its metadata into the store.
type MediaUpload struct {
	PageID       string
	Kind         MediaKind
	OriginalName string
	MimeType     string
	Title        string
	Data         []byte
}

// MediaRecord is a stored media item. Data is nil when the record was fetched
// metadata-only; callers that need the payload request it explicitly.
type MediaRecord struct {
	ID       string
	Metadata MediaMetadata
	Data     []byte
}

// ProgressFunc reports bytes written during a store operation.
type ProgressFunc func(written, total int64)

// PlayableHandle grants temporary playback access to a stored media payload.
// Handles hold resources (temp files, object URLs) and must be released.
type PlayableHandle interface {
	MediaID() string
	URL() string
	Close() error
}

// MediaStore is the content-addressable service owning durable audio and
// caption binaries. The narration core only consumes this contract; hosts
// supply their own implementation or use the bundled filesystem store.
type MediaStore interface {
	// Store persists the upload and returns the stored record (metadata only).
	// The progress callback is optional.
	Store(ctx context.Context, upload MediaUpload, progress ProgressFunc) (*MediaRecord, error)
	// Get returns the record including its binary payload.
	Get(ctx context.Context, id string) (*MediaRecord, error)
	// GetMetadata returns the record without materializing the payload.
	GetMetadata(ctx context.Context, id string) (*MediaRecord, error)
	// ListAll enumerates every stored record, metadata only.
	ListAll(ctx context.Context) ([]*MediaRecord, error)
	// Delete removes the payload and its metadata. Deleting a missing item is not an error.
	Delete(ctx context.Context, id string) error
	// CreatePlayableHandle materializes an ephemeral playback handle for the item.
	CreatePlayableHandle(ctx context.Context, id string) (PlayableHandle, error)
	// ReleaseHandle disposes a handle previously returned by CreatePlayableHandle.
	ReleaseHandle(handle PlayableHandle)
}

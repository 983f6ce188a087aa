package media

import (
	"time"

	internalmedia "github.com/goliatone/go-narration/internal/media"
	"github.com/goliatone/go-narration/pkg/interfaces"
)

// Re-exported errors from the internal media package.
var (
	ErrResolutionSkipped = internalmedia.ErrResolutionSkipped
	ErrResolutionTimeout = internalmedia.ErrResolutionTimeout
	ErrNoAttachment      = internalmedia.ErrNoAttachment
)

// Re-exported types from the internal media package.
type (
	Attachment     = internalmedia.Attachment
	Library        = internalmedia.Library
	Resolver       = internalmedia.Resolver
	ResolverOption = internalmedia.ResolverOption
	Report         = internalmedia.Report
	OperationGuard = internalmedia.OperationGuard
)

// NewLibrary constructs the in-memory attachment state for an editing session.
func NewLibrary() *Library {
	return internalmedia.NewLibrary()
}

// NewResolver constructs a resolver bound to the shared attachment library.
func NewResolver(store interfaces.MediaStore, library *Library, opts ...ResolverOption) *Resolver {
	return internalmedia.NewResolver(store, library, opts...)
}

// FromRecord builds an attachment for a block from a stored media record.
func FromRecord(blockNumber string, record *interfaces.MediaRecord) *Attachment {
	return internalmedia.FromRecord(blockNumber, record)
}

// WithCache configures the metadata/caption cache tier and its TTL.
func WithCache(provider interfaces.CacheProvider, ttl time.Duration) ResolverOption {
	return internalmedia.WithCache(provider, ttl)
}

// WithGuard wires the active-operation guard consulted before each pass.
func WithGuard(guard OperationGuard) ResolverOption {
	return internalmedia.WithGuard(guard)
}

// WithLogger injects the resolver logger.
func WithLogger(logger interfaces.Logger) ResolverOption {
	return internalmedia.WithLogger(logger)
}

// WithClock overrides the time source used for interval guards.
func WithClock(now func() time.Time) ResolverOption {
	return internalmedia.WithClock(now)
}

// WithMinInterval sets the debounce window between resolution passes.
func WithMinInterval(interval time.Duration) ResolverOption {
	return internalmedia.WithMinInterval(interval)
}

// WithTimeout bounds the duration of a full resolution pass.
func WithTimeout(timeout time.Duration) ResolverOption {
	return internalmedia.WithTimeout(timeout)
}

// WithHandleLimit caps the number of playable handles kept materialized.
func WithHandleLimit(limit int) ResolverOption {
	return internalmedia.WithHandleLimit(limit)
}

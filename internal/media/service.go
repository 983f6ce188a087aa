package media

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-narration/blocks"
	"github.com/goliatone/go-narration/document"
	"github.com/goliatone/go-narration/internal/cache"
	"github.com/goliatone/go-narration/internal/logging"
	"github.com/goliatone/go-narration/pkg/interfaces"
)

var (
	// ErrResolutionSkipped reports that resolution did not run because a save,
	// an active operation, or the minimum interval guard blocked it.
	ErrResolutionSkipped = errors.New("media: resolution skipped")
	// ErrResolutionTimeout reports that the overall resolution pass exceeded
	// its bounded timeout. Recoverable; a later pass may complete.
	ErrResolutionTimeout = errors.New("media: resolution timed out")
	// ErrNoAttachment indicates no audio attachment exists for the block.
	ErrNoAttachment = errors.New("media: no attachment for block")
)

const (
	metaKeyPrefix    = "media:meta:"
	captionKeyPrefix = "media:caption:"

	defaultCacheTTL    = 5 * time.Minute
	defaultMinInterval = 2 * time.Second
	defaultTimeout     = 30 * time.Second
	defaultHandleLimit = 8
)

// OperationGuard reports whether a mutation (save, upload, recording, bulk
// import) is in flight. Resolution refuses to run while one is, so stale
// loads cannot race in-progress edits of the same block-addressed state.
type OperationGuard interface {
	Busy() bool
}

// Report summarizes one resolution pass. Individual failures degrade to
// "fewer loaded than expected" instead of aborting the pass.
type Report struct {
	Expected  int
	Loaded    int
	Recovered int
	Dropped   []string
}

// ResolverOption customises resolver behaviour.
type ResolverOption func(*Resolver)

// WithCache configures the metadata/caption cache tier and its TTL.
func WithCache(provider interfaces.CacheProvider, ttl time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.cache = provider
		if ttl > 0 {
			r.cacheTTL = ttl
		}
	}
}

// WithGuard wires the active-operation guard consulted before each pass.
func WithGuard(guard OperationGuard) ResolverOption {
	return func(r *Resolver) {
		r.guard = guard
	}
}

// WithLogger injects the resolver logger.
func WithLogger(logger interfaces.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock overrides the time source used for interval guards.
func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// WithMinInterval sets the debounce window between resolution passes.
func WithMinInterval(interval time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.minInterval = interval
	}
}

// WithTimeout bounds the duration of a full resolution pass.
func WithTimeout(timeout time.Duration) ResolverOption {
	return func(r *Resolver) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

// WithHandleLimit caps the number of playable handles kept materialized.
func WithHandleLimit(limit int) ResolverOption {
	return func(r *Resolver) {
		if limit > 0 {
			r.handleLimit = limit
		}
	}
}

// Resolver reconciles per-block attachments against the media store using a
// layered cache: placeholder descriptor, metadata-only record, and a lazily
// acquired playable handle created on first playback request.
type Resolver struct {
	store       interfaces.MediaStore
	library     *Library
	cache       interfaces.CacheProvider
	cacheTTL    time.Duration
	guard       OperationGuard
	logger      interfaces.Logger
	now         func() time.Time
	minInterval time.Duration
	timeout     time.Duration
	handleLimit int

	handles *cache.Recency

	mu      sync.Mutex
	lastRun time.Time
	playing map[string]bool
}

// NewResolver constructs a resolver bound to the shared attachment library.
func NewResolver(store interfaces.MediaStore, library *Library, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		store:       store,
		library:     library,
		logger:      logging.NoOp(),
		now:         time.Now,
		cacheTTL:    defaultCacheTTL,
		minInterval: defaultMinInterval,
		timeout:     defaultTimeout,
		handleLimit: defaultHandleLimit,
		playing:     make(map[string]bool),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	r.handles = cache.NewRecency(r.handleLimit, func(blockNumber string, value any) {
		handle, ok := value.(interfaces.PlayableHandle)
		if !ok || handle == nil {
			return
		}
		r.mu.Lock()
		delete(r.playing, blockNumber)
		r.mu.Unlock()
		r.store.ReleaseHandle(handle)
	})
	return r
}

// Resolve runs one full resolution pass: per-page document references first,
// then a store-wide fallback pass that recovers attachments the document
// forgot to reference. Single-item failures are dropped and logged; only a
// pass-level timeout surfaces as an error.
func (r *Resolver) Resolve(ctx context.Context, doc *document.CourseContent, blockList []blocks.Block) (*Report, error) {
	if r.guard != nil && r.guard.Busy() {
		r.logger.Debug("resolver.skipped", "reason", "operation in flight")
		return nil, ErrResolutionSkipped
	}
	r.mu.Lock()
	if !r.lastRun.IsZero() && r.now().Sub(r.lastRun) < r.minInterval {
		r.mu.Unlock()
		r.logger.Debug("resolver.skipped", "reason", "min interval")
		return nil, ErrResolutionSkipped
	}
	r.lastRun = r.now()
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	report := &Report{}
	resolved := make([]*Attachment, 0, len(blockList)*2)

	// Candidate references are collected index-aligned with the block list:
	// a missing media entry yields a nil candidate so later indices still
	// line up with their blocks.
	audioRefs := collectRefs(doc, blockList, string(interfaces.MediaKindAudio))
	captionRefs := collectRefs(doc, blockList, string(interfaces.MediaKindCaption))

	for i, block := range blockList {
		if ref := audioRefs[i]; ref != nil {
			report.Expected++
			att, err := r.resolveAudio(ctx, block.BlockNumber, *ref)
			if err != nil {
				if timedOut(ctx, err) {
					r.logger.Warn("resolver.timeout", "phase", "audio", "block", block.BlockNumber)
					return report, ErrResolutionTimeout
				}
				report.Dropped = append(report.Dropped, ref.StorageID)
				r.logger.Warn("resolver.media.dropped", "media_id", ref.StorageID, "block", block.BlockNumber, "error", err)
			} else if att != nil {
				resolved = append(resolved, att)
				report.Loaded++
			}
		}
		if ref := captionRefs[i]; ref != nil {
			report.Expected++
			att, err := r.resolveCaption(ctx, block.BlockNumber, *ref)
			if err != nil {
				if timedOut(ctx, err) {
					r.logger.Warn("resolver.timeout", "phase", "caption", "block", block.BlockNumber)
					return report, ErrResolutionTimeout
				}
				report.Dropped = append(report.Dropped, ref.StorageID)
				r.logger.Warn("resolver.media.dropped", "media_id", ref.StorageID, "block", block.BlockNumber, "error", err)
			} else if att != nil {
				resolved = append(resolved, att)
				report.Loaded++
			}
		}
	}

	r.library.Merge(resolved)

	recovered, err := r.fallbackPass(ctx, blockList)
	if err != nil {
		if timedOut(ctx, err) {
			r.logger.Warn("resolver.timeout", "phase", "fallback")
			return report, ErrResolutionTimeout
		}
		r.logger.Warn("resolver.fallback.failed", "error", err)
	}
	report.Recovered = recovered

	r.logger.Info("resolver.media.loaded",
		"expected", report.Expected,
		"loaded", report.Loaded,
		"recovered", report.Recovered,
		"dropped", len(report.Dropped),
	)
	return report, nil
}

func (r *Resolver) resolveAudio(ctx context.Context, blockNumber string, ref document.MediaEntry) (*Attachment, error) {
	if ref.StorageID == "" {
		return nil, nil
	}
	if r.cache != nil {
		if cached, err := r.cache.Get(ctx, metaKeyPrefix+ref.StorageID); err == nil {
			if att, ok := cached.(*Attachment); ok && att != nil {
				rebound := att.Clone()
				rebound.BlockNumber = blockNumber
				return rebound, nil
			}
		}
	}
	record, err := r.store.GetMetadata(ctx, ref.StorageID)
	if err != nil {
		if errors.Is(err, interfaces.ErrMediaNotFound) {
			// Keep the reference alive as a placeholder so reconciliation
			// does not drop it from the document.
			return &Attachment{
				BlockNumber: blockNumber,
				MediaID:     ref.StorageID,
				Kind:        interfaces.MediaKindAudio,
				Title:       ref.Title,
				Placeholder: true,
			}, nil
		}
		return nil, err
	}
	att := FromRecord(blockNumber, record)
	if att.Title == "" {
		att.Title = ref.Title
	}
	if r.cache != nil {
		_ = r.cache.Set(ctx, metaKeyPrefix+ref.StorageID, att.Clone(), r.cacheTTL)
	}
	return att, nil
}

func (r *Resolver) resolveCaption(ctx context.Context, blockNumber string, ref document.MediaEntry) (*Attachment, error) {
	// Caption text embedded in the document wins: no store round-trip.
	if ref.Content != "" {
		return &Attachment{
			BlockNumber: blockNumber,
			MediaID:     ref.StorageID,
			Kind:        interfaces.MediaKindCaption,
			Title:       ref.Title,
			Content:     ref.Content,
		}, nil
	}
	if ref.StorageID == "" {
		return nil, nil
	}
	if r.cache != nil {
		if cached, err := r.cache.Get(ctx, captionKeyPrefix+ref.StorageID); err == nil {
			if att, ok := cached.(*Attachment); ok && att != nil {
				rebound := att.Clone()
				rebound.BlockNumber = blockNumber
				return rebound, nil
			}
		}
	}
	record, err := r.store.Get(ctx, ref.StorageID)
	if err != nil {
		return nil, err
	}
	att := FromRecord(blockNumber, record)
	if att.Title == "" {
		att.Title = ref.Title
	}
	if r.cache != nil {
		_ = r.cache.Set(ctx, captionKeyPrefix+ref.StorageID, att.Clone(), r.cacheTTL)
	}
	return att, nil
}

// fallbackPass enumerates every item the store knows about, not just those
// the document references, and recovers attachments by matching normalized
// page ids back to blocks.
func (r *Resolver) fallbackPass(ctx context.Context, blockList []blocks.Block) (int, error) {
	records, err := r.store.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	var recovered []*Attachment
	for _, record := range records {
		if record == nil {
			continue
		}
		kind := record.Metadata.Type
		if kind != interfaces.MediaKindAudio && kind != interfaces.MediaKindCaption {
			continue
		}
		pageID := document.NormalizePageID(record.Metadata.PageID)
		block, ok := blocks.FindByPageID(blockList, pageID)
		if !ok {
			block, ok = topicByPosition(blockList, pageID)
		}
		if !ok {
			continue
		}
		if _, exists := r.library.Get(kind, block.BlockNumber); exists {
			continue
		}
		att := FromRecord(block.BlockNumber, record)
		if kind == interfaces.MediaKindCaption && att.Content == "" {
			full, err := r.store.Get(ctx, record.ID)
			if err != nil {
				r.logger.Warn("resolver.fallback.dropped", "media_id", record.ID, "error", err)
				continue
			}
			att = FromRecord(block.BlockNumber, full)
		}
		recovered = append(recovered, att)
	}
	return r.library.Merge(recovered), nil
}

// topicByPosition resolves a positional "topic-N" id against the Nth topic
// block. Legacy media records store positions while topic ids are usually
// slug-derived, so the literal lookup can miss even though the topic exists.
func topicByPosition(blockList []blocks.Block, pageID string) (blocks.Block, bool) {
	rest, ok := strings.CutPrefix(pageID, "topic-")
	if !ok {
		return blocks.Block{}, false
	}
	index, err := strconv.Atoi(rest)
	if err != nil || index < 0 {
		return blocks.Block{}, false
	}
	seen := 0
	for _, block := range blockList {
		if block.PageID == document.PageWelcome || block.PageID == document.PageObjectives {
			continue
		}
		if seen == index {
			return block, true
		}
		seen++
	}
	return blocks.Block{}, false
}

// AcquirePlayable materializes a playable handle for the block's audio
// attachment, creating it on first request and caching it in the bounded
// recency set. Evicted handles are released through the store.
func (r *Resolver) AcquirePlayable(ctx context.Context, blockNumber string) (interfaces.PlayableHandle, error) {
	if cached, ok := r.handles.Get(blockNumber); ok {
		if handle, ok := cached.(interfaces.PlayableHandle); ok {
			return handle, nil
		}
	}
	att, ok := r.library.Get(interfaces.MediaKindAudio, blockNumber)
	if !ok || att.MediaID == "" {
		return nil, ErrNoAttachment
	}
	handle, err := r.store.CreatePlayableHandle(ctx, att.MediaID)
	if err != nil {
		return nil, err
	}
	r.handles.Put(blockNumber, handle)
	return handle, nil
}

// StartPlayback acquires the block's playable handle and marks it playing.
func (r *Resolver) StartPlayback(ctx context.Context, blockNumber string) (interfaces.PlayableHandle, error) {
	handle, err := r.AcquirePlayable(ctx, blockNumber)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.playing[blockNumber] = true
	r.mu.Unlock()
	return handle, nil
}

// StopPlayback marks the block no longer playing.
func (r *Resolver) StopPlayback(blockNumber string) {
	r.mu.Lock()
	delete(r.playing, blockNumber)
	r.mu.Unlock()
}

// Playing reports whether the block's audio is currently marked playing.
func (r *Resolver) Playing(blockNumber string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playing[blockNumber]
}

// InvalidateBlock releases the block's materialized handle and evicts cached
// descriptors for the given media id. Playback is stopped before the handle
// is released so a superseded binary is never yanked mid-play.
func (r *Resolver) InvalidateBlock(ctx context.Context, blockNumber, mediaID string) {
	r.StopPlayback(blockNumber)
	if value, ok := r.handles.Remove(blockNumber); ok {
		if handle, ok := value.(interfaces.PlayableHandle); ok {
			r.store.ReleaseHandle(handle)
		}
	}
	if r.cache != nil && mediaID != "" {
		_ = r.cache.Delete(ctx, metaKeyPrefix+mediaID)
		_ = r.cache.Delete(ctx, captionKeyPrefix+mediaID)
	}
}

// Close releases every materialized handle. Call on wizard teardown.
func (r *Resolver) Close() {
	r.handles.Purge()
}

func collectRefs(doc *document.CourseContent, blockList []blocks.Block, mediaType string) []*document.MediaEntry {
	refs := make([]*document.MediaEntry, len(blockList))
	for i, block := range blockList {
		page := doc.FindPage(block.PageID)
		if page == nil {
			continue
		}
		if entry, ok := page.MediaOfType(mediaType); ok {
			copied := entry
			refs[i] = &copied
		}
	}
	return refs
}

func timedOut(ctx context.Context, err error) bool {
	return errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded)
}

package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goliatone/go-narration/blocks"
	"github.com/goliatone/go-narration/document"
	"github.com/goliatone/go-narration/internal/logging"
	"github.com/goliatone/go-narration/media"
	"github.com/goliatone/go-narration/pkg/interfaces"
)

var (
	// ErrNoDocument reports a save requested before a document was loaded.
	ErrNoDocument = errors.New("reconcile: no document loaded")
	// ErrSaveInFlight reports a flush requested while a save is running.
	ErrSaveInFlight = errors.New("reconcile: save already in flight")
)

// State names the engine's save lifecycle phase.
type State string

const (
	// StateIdle means no save is scheduled or running.
	StateIdle State = "idle"
	// StatePendingDebounce means a save is scheduled and waiting out the window.
	StatePendingDebounce State = "pending_debounce"
	// StateSaving means a save is running or settling.
	StateSaving State = "saving"
)

const (
	defaultDebounce    = 500 * time.Millisecond
	defaultMinInterval = 2 * time.Second
	defaultSettleDelay = 100 * time.Millisecond
)

// Option customises the engine.
type Option func(*Engine)

// WithLogger injects the engine logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock overrides the time source used for the rate-limit guard.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithDebounce sets the quiet window a mutation must wait out before saving.
func WithDebounce(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.debounce = d
		}
	}
}

// WithMinInterval sets the minimum spacing between completed saves.
func WithMinInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.minInterval = d
		}
	}
}

// WithSettleDelay sets how long the engine stays in the saving state after a
// save completes, absorbing the change notifications the save itself causes.
func WithSettleDelay(d time.Duration) Option {
	return func(e *Engine) {
		if d >= 0 {
			e.settle = d
		}
	}
}

// Engine reconciles the in-memory session (narration edits plus the
// attachment library) back into the persisted document. Saves are debounced
// and rate limited; a save that cannot run yet is dropped, not queued, because
// the next mutation reschedules one anyway.
type Engine struct {
	docs    interfaces.DocumentStore
	library *media.Library
	session *Session
	logger  interfaces.Logger

	debounce    time.Duration
	minInterval time.Duration
	settle      time.Duration
	now         func() time.Time

	mu        sync.Mutex
	state     State
	timer     *time.Timer
	doc       *document.CourseContent
	blockList []blocks.Block
	edits     map[string]string
}

// New constructs an engine persisting through the given document store.
func New(docs interfaces.DocumentStore, library *media.Library, opts ...Option) *Engine {
	e := &Engine{
		docs:        docs,
		library:     library,
		session:     NewSession(),
		logger:      logging.NoOp(),
		debounce:    defaultDebounce,
		minInterval: defaultMinInterval,
		settle:      defaultSettleDelay,
		now:         time.Now,
		state:       StateIdle,
		edits:       make(map[string]string),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Session exposes the engine's session so collaborators can register
// operations and the resolver can use it as its operation guard.
func (e *Engine) Session() *Session {
	return e.session
}

// State returns the current lifecycle phase.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// SetDocument loads the source document and its block list. Pending edits
// from a previous document are discarded.
func (e *Engine) SetDocument(doc *document.CourseContent, blockList []blocks.Block) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.doc = doc
	e.blockList = blockList
	e.edits = make(map[string]string)
}

// Document returns the engine's current source document.
func (e *Engine) Document() *document.CourseContent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc
}

// Blocks returns the block list extracted from the current document.
func (e *Engine) Blocks() []blocks.Block {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]blocks.Block(nil), e.blockList...)
}

// EditText records a narration edit for a block and schedules a save.
func (e *Engine) EditText(blockNumber, text string) {
	e.mu.Lock()
	e.edits[blockNumber] = text
	e.mu.Unlock()
	e.ScheduleSave()
}

// ScheduleSave arms the debounce timer. Repeated calls inside the window
// restart it, so a burst of mutations produces a single save. Scheduling
// during a save is a no-op: the merge that save performs reads the live
// library, and anything it misses is picked up by the next mutation.
func (e *Engine) ScheduleSave() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateSaving {
		return
	}
	e.state = StatePendingDebounce
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(e.debounce, e.onDebounce)
}

func (e *Engine) onDebounce() {
	e.mu.Lock()
	if e.state != StatePendingDebounce {
		e.mu.Unlock()
		return
	}
	if e.session.ActiveOperations() > 0 {
		e.state = StateIdle
		e.mu.Unlock()
		e.logger.Debug("reconcile.save.dropped", "reason", "operation in flight")
		return
	}
	if last := e.session.LastSave(); !last.IsZero() && e.now().Sub(last) < e.minInterval {
		e.state = StateIdle
		e.mu.Unlock()
		e.logger.Debug("reconcile.save.dropped", "reason", "rate limited")
		return
	}
	snap, err := e.snapshotLocked()
	if err != nil {
		e.state = StateIdle
		e.mu.Unlock()
		e.logger.Warn("reconcile.save.dropped", "reason", err.Error())
		return
	}
	e.state = StateSaving
	e.mu.Unlock()

	if err := e.save(context.Background(), snap); err != nil {
		e.logger.Error("reconcile.save.failed", "error", err)
	}
}

// Flush runs a save immediately, bypassing the debounce and rate-limit
// guards. Used on navigation and shutdown, when losing the pending edits
// would be worse than saving early.
func (e *Engine) Flush(ctx context.Context) error {
	e.mu.Lock()
	if e.state == StateSaving {
		e.mu.Unlock()
		return ErrSaveInFlight
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	snap, err := e.snapshotLocked()
	if err != nil {
		e.state = StateIdle
		e.mu.Unlock()
		return err
	}
	e.state = StateSaving
	e.mu.Unlock()

	return e.save(ctx, snap)
}

// ClearAll strips every media entry from the document and empties the
// attachment library, persisting the stripped document immediately.
// Narration text is untouched. Returns the attachments that were removed so
// the caller can release their stored blobs.
func (e *Engine) ClearAll(ctx context.Context) ([]*media.Attachment, error) {
	e.mu.Lock()
	if e.state == StateSaving {
		e.mu.Unlock()
		return nil, ErrSaveInFlight
	}
	if e.doc == nil {
		e.mu.Unlock()
		return nil, ErrNoDocument
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	stripped := StripMedia(e.doc)
	e.doc = stripped
	snap := saveSnapshot{
		doc:       stripped,
		blockList: append([]blocks.Block(nil), e.blockList...),
		edits:     cloneEdits(e.edits),
	}
	e.state = StateSaving
	e.mu.Unlock()

	removed := e.library.Clear()
	if err := e.save(ctx, snap); err != nil {
		return removed, err
	}
	e.logger.Info("reconcile.clear_all", "removed", len(removed))
	return removed, nil
}

type saveSnapshot struct {
	doc       *document.CourseContent
	blockList []blocks.Block
	edits     map[string]string
}

func (e *Engine) snapshotLocked() (saveSnapshot, error) {
	if e.doc == nil {
		return saveSnapshot{}, ErrNoDocument
	}
	return saveSnapshot{
		doc:       e.doc,
		blockList: append([]blocks.Block(nil), e.blockList...),
		edits:     cloneEdits(e.edits),
	}, nil
}

// save merges and persists one snapshot. The session is always released and
// the state always returns to idle, whether the store call succeeds or not;
// a failed save must never leave the engine wedged in the saving state.
func (e *Engine) save(ctx context.Context, snap saveSnapshot) (err error) {
	e.session.beginSave()
	defer func() {
		e.session.endSave(e.now())
		e.settleToIdle()
	}()

	attachments := append(
		e.library.All(interfaces.MediaKindAudio),
		e.library.All(interfaces.MediaKindCaption)...,
	)
	merged := Merge(snap.doc, snap.blockList, snap.edits, attachments)
	if merged == nil {
		return ErrNoDocument
	}
	if err = e.docs.SaveContent(ctx, merged); err != nil {
		return fmt.Errorf("reconcile: save content: %w", err)
	}

	e.mu.Lock()
	e.doc = merged
	for number, text := range snap.edits {
		if e.edits[number] == text {
			delete(e.edits, number)
		}
	}
	e.mu.Unlock()

	e.logger.Debug("reconcile.save.done", "attachments", len(attachments), "edits", len(snap.edits))
	return nil
}

// settleToIdle holds the saving state briefly after completion so change
// notifications triggered by the save itself do not schedule another one.
func (e *Engine) settleToIdle() {
	if e.settle <= 0 {
		e.mu.Lock()
		if e.state == StateSaving {
			e.state = StateIdle
		}
		e.mu.Unlock()
		return
	}
	time.AfterFunc(e.settle, func() {
		e.mu.Lock()
		if e.state == StateSaving {
			e.state = StateIdle
		}
		e.mu.Unlock()
	})
}

func cloneEdits(edits map[string]string) map[string]string {
	out := make(map[string]string, len(edits))
	for k, v := range edits {
		out[k] = v
	}
	return out
}

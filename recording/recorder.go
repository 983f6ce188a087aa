package recording

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goliatone/go-narration/blocks"
	"github.com/goliatone/go-narration/internal/logging"
	"github.com/goliatone/go-narration/media"
	"github.com/goliatone/go-narration/pkg/interfaces"
)

var (
	// ErrAlreadyRecording reports a start while a capture is running.
	ErrAlreadyRecording = errors.New("recording: capture already in progress")
	// ErrNotRecording reports a stop with no capture running.
	ErrNotRecording = errors.New("recording: no capture in progress")
	// ErrNoClip reports a save or preview with nothing captured.
	ErrNoClip = errors.New("recording: no captured clip")
)

// State names the recorder's capture lifecycle phase.
type State string

const (
	// StateIdle means nothing is captured or capturing.
	StateIdle State = "idle"
	// StateRecording means audio is being captured.
	StateRecording State = "recording"
	// StatePreviewReady means a clip is captured and awaiting save or discard.
	StatePreviewReady State = "preview_ready"
)

// Clip is one finished capture, held in memory until saved or discarded.
type Clip struct {
	Data       []byte
	MimeType   string
	CapturedAt time.Time
	Duration   time.Duration
}

var extensionByMime = map[string]string{
	"audio/webm": ".webm",
	"audio/ogg":  ".ogg",
	"audio/wav":  ".wav",
	"audio/mpeg": ".mp3",
	"audio/mp4":  ".m4a",
}

// Option customises the recorder.
type Option func(*Recorder)

// WithLogger injects the recorder logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock overrides the time source used for clip timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

// Recorder captures narration audio for one block at a time from an audio
// source, holds the finished clip for preview, and persists it through the
// media store on save. The capture stream is always stopped before the
// recorder leaves the recording state, on every exit path.
type Recorder struct {
	source interfaces.AudioSource
	store  interfaces.MediaStore
	logger interfaces.Logger
	now    func() time.Time

	mu        sync.Mutex
	state     State
	stream    interfaces.AudioStream
	chunks    [][]byte
	startedAt time.Time
	clip      *Clip
	drained   chan struct{}
}

// New constructs a recorder capturing from source and persisting to store.
func New(source interfaces.AudioSource, store interfaces.MediaStore, opts ...Option) *Recorder {
	r := &Recorder{
		source: source,
		store:  store,
		logger: logging.NoOp(),
		now:    time.Now,
		state:  StateIdle,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// State returns the current capture phase.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Clip returns the captured clip awaiting save, if any.
func (r *Recorder) Clip() (*Clip, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.clip == nil {
		return nil, false
	}
	clip := *r.clip
	clip.Data = append([]byte(nil), r.clip.Data...)
	return &clip, true
}

// Start opens the audio source and begins accumulating chunks. Permission
// and device errors from the source are returned unwrapped so callers can
// match them and prompt the user. Starting replaces any unsaved clip.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.state == StateRecording {
		r.mu.Unlock()
		return ErrAlreadyRecording
	}
	r.mu.Unlock()

	stream, err := r.source.Open(ctx)
	if err != nil {
		if errors.Is(err, interfaces.ErrCapturePermissionDenied) || errors.Is(err, interfaces.ErrCaptureDeviceUnavailable) {
			return err
		}
		return fmt.Errorf("recording: open source: %w", err)
	}

	r.mu.Lock()
	r.state = StateRecording
	r.stream = stream
	r.chunks = nil
	r.clip = nil
	r.startedAt = r.now()
	r.drained = make(chan struct{})
	drained := r.drained
	r.mu.Unlock()

	go r.collect(stream, drained)
	r.logger.Debug("recording.started", "mime_type", stream.MimeType())
	return nil
}

// collect drains the stream's chunk channel until the stream closes it.
func (r *Recorder) collect(stream interfaces.AudioStream, drained chan struct{}) {
	defer close(drained)
	for chunk := range stream.Chunks() {
		if len(chunk) == 0 {
			continue
		}
		buf := append([]byte(nil), chunk...)
		r.mu.Lock()
		r.chunks = append(r.chunks, buf)
		r.mu.Unlock()
	}
}

// Stop ends the capture and assembles the clip for preview.
func (r *Recorder) Stop() (*Clip, error) {
	r.mu.Lock()
	if r.state != StateRecording {
		r.mu.Unlock()
		return nil, ErrNotRecording
	}
	stream := r.stream
	drained := r.drained
	startedAt := r.startedAt
	r.mu.Unlock()

	stopErr := stream.Stop()
	<-drained

	r.mu.Lock()
	defer r.mu.Unlock()
	var buf bytes.Buffer
	for _, chunk := range r.chunks {
		buf.Write(chunk)
	}
	r.clip = &Clip{
		Data:       buf.Bytes(),
		MimeType:   stream.MimeType(),
		CapturedAt: startedAt,
		Duration:   r.now().Sub(startedAt),
	}
	r.chunks = nil
	r.stream = nil
	r.state = StatePreviewReady

	if stopErr != nil {
		r.logger.Warn("recording.stop.source", "error", stopErr)
	}
	r.logger.Debug("recording.stopped", "bytes", len(r.clip.Data))
	return r.clip, nil
}

// Discard drops the captured clip, or aborts a running capture. The recorder
// returns to idle either way.
func (r *Recorder) Discard() {
	r.mu.Lock()
	stream := r.stream
	drained := r.drained
	r.mu.Unlock()

	if stream != nil {
		if err := stream.Stop(); err != nil {
			r.logger.Warn("recording.discard.source", "error", err)
		}
		<-drained
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.stream = nil
	r.chunks = nil
	r.clip = nil
	r.state = StateIdle
}

// Save persists the captured clip as the audio attachment for the given
// block and returns it. The recorder returns to idle on success; on store
// failure the clip is kept so the save can be retried.
func (r *Recorder) Save(ctx context.Context, block blocks.Block, progress interfaces.ProgressFunc) (*media.Attachment, error) {
	r.mu.Lock()
	if r.state != StatePreviewReady || r.clip == nil {
		r.mu.Unlock()
		return nil, ErrNoClip
	}
	clip := r.clip
	r.mu.Unlock()

	record, err := r.store.Store(ctx, interfaces.MediaUpload{
		PageID:       block.PageID,
		Kind:         interfaces.MediaKindAudio,
		OriginalName: fmt.Sprintf("%s-recording%s", block.BlockNumber, extensionByMime[clip.MimeType]),
		MimeType:     clip.MimeType,
		Title:        block.PageTitle,
		Data:         clip.Data,
	}, progress)
	if err != nil {
		return nil, fmt.Errorf("recording: store clip: %w", err)
	}

	r.mu.Lock()
	r.clip = nil
	r.state = StateIdle
	r.mu.Unlock()

	r.logger.Info("recording.saved", "block", block.BlockNumber, "media_id", record.ID, "bytes", len(clip.Data))
	return media.FromRecord(block.BlockNumber, record), nil
}

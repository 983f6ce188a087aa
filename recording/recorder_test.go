package recording_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/goliatone/go-narration/blocks"
	"github.com/goliatone/go-narration/pkg/interfaces"
	"github.com/goliatone/go-narration/recording"
)

type stubStream struct {
	chunks   chan []byte
	mimeType string

	mu      sync.Mutex
	stopped int
}

func newStubStream(mimeType string) *stubStream {
	return &stubStream{chunks: make(chan []byte, 16), mimeType: mimeType}
}

func (s *stubStream) Chunks() <-chan []byte { return s.chunks }
func (s *stubStream) MimeType() string      { return s.mimeType }

func (s *stubStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped++
	if s.stopped == 1 {
		close(s.chunks)
	}
	return nil
}

func (s *stubStream) stopCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

type stubSource struct {
	stream  *stubStream
	openErr error
	opens   int
}

func (s *stubSource) Open(context.Context) (interfaces.AudioStream, error) {
	s.opens++
	if s.openErr != nil {
		return nil, s.openErr
	}
	return s.stream, nil
}

type recordingStore struct {
	mu      sync.Mutex
	uploads []interfaces.MediaUpload
	fail    error
}

func (s *recordingStore) Store(_ context.Context, upload interfaces.MediaUpload, _ interfaces.ProgressFunc) (*interfaces.MediaRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	s.uploads = append(s.uploads, upload)
	return &interfaces.MediaRecord{
		ID: "rec-1",
		Metadata: interfaces.MediaMetadata{
			PageID:       upload.PageID,
			Type:         upload.Kind,
			OriginalName: upload.OriginalName,
			MimeType:     upload.MimeType,
			Title:        upload.Title,
		},
	}, nil
}

func (s *recordingStore) Get(context.Context, string) (*interfaces.MediaRecord, error) {
	return nil, interfaces.ErrMediaNotFound
}

func (s *recordingStore) GetMetadata(context.Context, string) (*interfaces.MediaRecord, error) {
	return nil, interfaces.ErrMediaNotFound
}

func (s *recordingStore) ListAll(context.Context) ([]*interfaces.MediaRecord, error) { return nil, nil }
func (s *recordingStore) Delete(context.Context, string) error                       { return nil }

func (s *recordingStore) CreatePlayableHandle(context.Context, string) (interfaces.PlayableHandle, error) {
	return nil, interfaces.ErrMediaNotFound
}

func (s *recordingStore) ReleaseHandle(interfaces.PlayableHandle) {}

func welcomeBlock() blocks.Block {
	return blocks.Block{BlockNumber: "0001", PageID: "welcome", PageTitle: "Welcome"}
}

func TestRecordStopSave(t *testing.T) {
	stream := newStubStream("audio/webm")
	source := &stubSource{stream: stream}
	store := &recordingStore{}
	recorder := recording.New(source, store)

	if err := recorder.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if recorder.State() != recording.StateRecording {
		t.Fatalf("expected recording state, got %s", recorder.State())
	}

	stream.chunks <- []byte("one-")
	stream.chunks <- []byte("two")

	clip, err := recorder.Stop()
	if err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
	if recorder.State() != recording.StatePreviewReady {
		t.Fatalf("expected preview state, got %s", recorder.State())
	}
	if string(clip.Data) != "one-two" {
		t.Fatalf("expected concatenated chunks, got %q", clip.Data)
	}
	if clip.MimeType != "audio/webm" {
		t.Fatalf("expected stream mime type, got %s", clip.MimeType)
	}
	if stream.stopCount() == 0 {
		t.Fatal("expected stream stopped")
	}

	att, err := recorder.Save(context.Background(), welcomeBlock(), nil)
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if att.BlockNumber != "0001" || att.Kind != interfaces.MediaKindAudio {
		t.Fatalf("unexpected attachment: %+v", att)
	}
	if recorder.State() != recording.StateIdle {
		t.Fatalf("expected idle after save, got %s", recorder.State())
	}

	if len(store.uploads) != 1 {
		t.Fatalf("expected one upload, got %d", len(store.uploads))
	}
	upload := store.uploads[0]
	if upload.PageID != "welcome" || string(upload.Data) != "one-two" {
		t.Fatalf("unexpected upload: %+v", upload)
	}
	if upload.OriginalName != "0001-recording.webm" {
		t.Fatalf("unexpected original name: %s", upload.OriginalName)
	}
}

func TestStartSurfacesPermissionError(t *testing.T) {
	source := &stubSource{openErr: interfaces.ErrCapturePermissionDenied}
	recorder := recording.New(source, &recordingStore{})

	err := recorder.Start(context.Background())
	if !errors.Is(err, interfaces.ErrCapturePermissionDenied) {
		t.Fatalf("expected permission error surfaced, got %v", err)
	}
	if recorder.State() != recording.StateIdle {
		t.Fatalf("expected recorder idle after denied start, got %s", recorder.State())
	}
}

func TestStartWhileRecording(t *testing.T) {
	stream := newStubStream("audio/webm")
	recorder := recording.New(&stubSource{stream: stream}, &recordingStore{})

	if err := recorder.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := recorder.Start(context.Background()); !errors.Is(err, recording.ErrAlreadyRecording) {
		t.Fatalf("expected ErrAlreadyRecording, got %v", err)
	}
	recorder.Discard()
}

func TestStopWithoutCapture(t *testing.T) {
	recorder := recording.New(&stubSource{}, &recordingStore{})
	if _, err := recorder.Stop(); !errors.Is(err, recording.ErrNotRecording) {
		t.Fatalf("expected ErrNotRecording, got %v", err)
	}
}

func TestDiscardAbortsRunningCapture(t *testing.T) {
	stream := newStubStream("audio/webm")
	recorder := recording.New(&stubSource{stream: stream}, &recordingStore{})

	if err := recorder.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	stream.chunks <- []byte("partial")

	recorder.Discard()

	if recorder.State() != recording.StateIdle {
		t.Fatalf("expected idle after discard, got %s", recorder.State())
	}
	if stream.stopCount() == 0 {
		t.Fatal("expected stream stopped on discard")
	}
	if _, ok := recorder.Clip(); ok {
		t.Fatal("expected no clip after discard")
	}
}

func TestDiscardDropsPreview(t *testing.T) {
	stream := newStubStream("audio/webm")
	recorder := recording.New(&stubSource{stream: stream}, &recordingStore{})

	if err := recorder.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	stream.chunks <- []byte("clip")
	if _, err := recorder.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	recorder.Discard()
	if _, err := recorder.Save(context.Background(), welcomeBlock(), nil); !errors.Is(err, recording.ErrNoClip) {
		t.Fatalf("expected ErrNoClip after discard, got %v", err)
	}
}

func TestSaveFailureKeepsClipForRetry(t *testing.T) {
	stream := newStubStream("audio/webm")
	store := &recordingStore{fail: errors.New("disk full")}
	recorder := recording.New(&stubSource{stream: stream}, store)

	if err := recorder.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	stream.chunks <- []byte("clip")
	if _, err := recorder.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if _, err := recorder.Save(context.Background(), welcomeBlock(), nil); err == nil {
		t.Fatal("expected save failure")
	}
	if recorder.State() != recording.StatePreviewReady {
		t.Fatalf("expected clip kept for retry, got state %s", recorder.State())
	}

	store.mu.Lock()
	store.fail = nil
	store.mu.Unlock()
	if _, err := recorder.Save(context.Background(), welcomeBlock(), nil); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
}

func TestStartReplacesUnsavedClip(t *testing.T) {
	first := newStubStream("audio/webm")
	source := &stubSource{stream: first}
	recorder := recording.New(source, &recordingStore{})

	if err := recorder.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	first.chunks <- []byte("old")
	if _, err := recorder.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	source.stream = newStubStream("audio/webm")
	if err := recorder.Start(context.Background()); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if _, ok := recorder.Clip(); ok {
		t.Fatal("expected prior clip discarded on new capture")
	}
	recorder.Discard()
}

package importer_test

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/goliatone/go-narration/blocks"
	"github.com/goliatone/go-narration/document"
	"github.com/goliatone/go-narration/importer"
	"github.com/goliatone/go-narration/pkg/interfaces"
)

type memoryStore struct {
	mu      sync.Mutex
	stored  []interfaces.MediaUpload
	failFor map[string]error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{failFor: map[string]error{}}
}

func (s *memoryStore) Store(_ context.Context, upload interfaces.MediaUpload, progress interfaces.ProgressFunc) (*interfaces.MediaRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failFor[upload.OriginalName]; ok {
		return nil, err
	}
	s.stored = append(s.stored, upload)
	if progress != nil {
		progress(int64(len(upload.Data)), int64(len(upload.Data)))
	}
	return &interfaces.MediaRecord{
		ID: fmt.Sprintf("media-%d", len(s.stored)),
		Metadata: interfaces.MediaMetadata{
			PageID:       upload.PageID,
			Type:         upload.Kind,
			OriginalName: upload.OriginalName,
			MimeType:     upload.MimeType,
			Title:        upload.Title,
		},
	}, nil
}

func (s *memoryStore) Get(context.Context, string) (*interfaces.MediaRecord, error) {
	return nil, interfaces.ErrMediaNotFound
}

func (s *memoryStore) GetMetadata(context.Context, string) (*interfaces.MediaRecord, error) {
	return nil, interfaces.ErrMediaNotFound
}

func (s *memoryStore) ListAll(context.Context) ([]*interfaces.MediaRecord, error) { return nil, nil }
func (s *memoryStore) Delete(context.Context, string) error                       { return nil }

func (s *memoryStore) CreatePlayableHandle(context.Context, string) (interfaces.PlayableHandle, error) {
	return nil, interfaces.ErrMediaNotFound
}

func (s *memoryStore) ReleaseHandle(interfaces.PlayableHandle) {}

func buildZip(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, data := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := f.Write(data); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func importBlocks() []blocks.Block {
	doc := &document.CourseContent{
		WelcomePage:            &document.Page{Title: "Welcome"},
		LearningObjectivesPage: &document.Page{Title: "Objectives"},
		Topics: []*document.Page{
			{ID: "topic-0", Title: "Topic Zero"},
			{ID: "topic-1", Title: "Topic One"},
			{ID: "topic-2", Title: "Topic Two"},
			{ID: "topic-3", Title: "Topic Three"},
			{ID: "topic-4", Title: "Topic Four"},
		},
	}
	return blocks.Extract(doc)
}

func TestImportZipMatchesEntriesToBlocks(t *testing.T) {
	store := newMemoryStore()
	imp := importer.New(store)

	archive := buildZip(t, map[string][]byte{
		"0001-Welcome.mp3":      []byte("w"),
		"0002-Objectives.mp3":   []byte("o"),
		"audio_0003_topic.mp3":  []byte("t0"),
		"nested/dir/0004.mp3":   []byte("t1"),
		"0005.mp3":              []byte("t2"),
		"block7.mp3":            []byte("bad"),
		"0042-OutOfRange.mp3":   []byte("bad"),
		"notes.txt":             []byte("ignored"),
		"captions/0001-sub.vtt": []byte("ignored for audio"),
	})

	result, err := imp.ImportZip(context.Background(), archive, interfaces.MediaKindAudio, importBlocks(), nil)
	if err != nil {
		t.Fatalf("ImportZip returned error: %v", err)
	}

	if len(result.Stored) != 5 {
		t.Fatalf("expected 5 stored, got %d", len(result.Stored))
	}
	if len(result.Skipped) != 2 {
		t.Fatalf("expected 2 skipped, got %d: %+v", len(result.Skipped), result.Skipped)
	}

	reasons := map[string]string{}
	for _, skip := range result.Skipped {
		reasons[skip.Filename] = skip.Reason
	}
	if reasons["block7.mp3"] != "no 4-digit block number found" {
		t.Fatalf("unexpected reason for block7.mp3: %q", reasons["block7.mp3"])
	}
	if reasons["0042-OutOfRange.mp3"] != "no narration block for 0042" {
		t.Fatalf("unexpected reason for 0042: %q", reasons["0042-OutOfRange.mp3"])
	}

	seen := map[string]bool{}
	for _, att := range result.Stored {
		seen[att.BlockNumber] = true
		if att.Kind != interfaces.MediaKindAudio {
			t.Fatalf("expected audio attachment, got %s", att.Kind)
		}
	}
	for _, number := range []string{"0001", "0002", "0003", "0004", "0005"} {
		if !seen[number] {
			t.Fatalf("expected attachment for block %s", number)
		}
	}
}

func TestImportZipCaptionKind(t *testing.T) {
	store := newMemoryStore()
	imp := importer.New(store)

	archive := buildZip(t, map[string][]byte{
		"0001-Welcome.vtt": []byte("WEBVTT\n"),
		"0002-Audio.mp3":   []byte("wrong kind, ignored"),
	})

	result, err := imp.ImportZip(context.Background(), archive, interfaces.MediaKindCaption, importBlocks(), nil)
	if err != nil {
		t.Fatalf("ImportZip returned error: %v", err)
	}
	if len(result.Stored) != 1 || len(result.Skipped) != 0 {
		t.Fatalf("expected 1 stored / 0 skipped, got %d/%d", len(result.Stored), len(result.Skipped))
	}
	if result.Stored[0].Content != "WEBVTT\n" {
		t.Fatalf("expected caption content populated, got %q", result.Stored[0].Content)
	}
}

func TestImportZipFailingEntryDoesNotAbortArchive(t *testing.T) {
	store := newMemoryStore()
	store.failFor["0002-Objectives.mp3"] = errors.New("disk full")
	imp := importer.New(store)

	archive := buildZip(t, map[string][]byte{
		"0001-Welcome.mp3":    []byte("w"),
		"0002-Objectives.mp3": []byte("o"),
		"0003-Topic.mp3":      []byte("t"),
	})

	result, err := imp.ImportZip(context.Background(), archive, interfaces.MediaKindAudio, importBlocks(), nil)
	if err != nil {
		t.Fatalf("ImportZip returned error: %v", err)
	}
	if len(result.Stored) != 2 {
		t.Fatalf("expected 2 stored despite failure, got %d", len(result.Stored))
	}
	if len(result.Skipped) != 1 || result.Skipped[0].Filename != "0002-Objectives.mp3" {
		t.Fatalf("expected failing entry reported skipped, got %+v", result.Skipped)
	}
}

func TestImportZipRejectsUnsupportedKind(t *testing.T) {
	imp := importer.New(newMemoryStore())
	_, err := imp.ImportZip(context.Background(), buildZip(t, nil), interfaces.MediaKindImage, importBlocks(), nil)
	if !errors.Is(err, importer.ErrUnsupportedKind) {
		t.Fatalf("expected ErrUnsupportedKind, got %v", err)
	}
}

func TestImportZipRejectsOversizedArchive(t *testing.T) {
	imp := importer.New(newMemoryStore(), importer.WithLimits(16, 50))
	archive := buildZip(t, map[string][]byte{"0001.mp3": []byte("x")})
	_, err := imp.ImportZip(context.Background(), archive, interfaces.MediaKindAudio, importBlocks(), nil)
	if !errors.Is(err, importer.ErrArchiveTooLarge) {
		t.Fatalf("expected ErrArchiveTooLarge, got %v", err)
	}
}

func TestImportZipRejectsTooManyEntriesBeforeStoring(t *testing.T) {
	store := newMemoryStore()
	imp := importer.New(store, importer.WithLimits(importer.MaxArchiveSize, 2))
	archive := buildZip(t, map[string][]byte{
		"0001.mp3": []byte("a"),
		"0002.mp3": []byte("b"),
		"0003.mp3": []byte("c"),
	})
	_, err := imp.ImportZip(context.Background(), archive, interfaces.MediaKindAudio, importBlocks(), nil)
	if !errors.Is(err, importer.ErrTooManyEntries) {
		t.Fatalf("expected ErrTooManyEntries, got %v", err)
	}
	if len(store.stored) != 0 {
		t.Fatalf("expected rejection before any entry was stored, got %d stored", len(store.stored))
	}
}

func TestImportZipEntryCapIgnoresNonMatchingFiles(t *testing.T) {
	store := newMemoryStore()
	imp := importer.New(store, importer.WithLimits(importer.MaxArchiveSize, 2))
	archive := buildZip(t, map[string][]byte{
		"0001.mp3":  []byte("a"),
		"0002.mp3":  []byte("b"),
		"notes.txt": []byte("ignored"),
		"0001.vtt":  []byte("wrong kind"),
	})
	result, err := imp.ImportZip(context.Background(), archive, interfaces.MediaKindAudio, importBlocks(), nil)
	if err != nil {
		t.Fatalf("expected cap to count only matching entries, got %v", err)
	}
	if len(result.Stored) != 2 {
		t.Fatalf("expected 2 stored, got %d", len(result.Stored))
	}
}

func TestImportZipRejectsGarbage(t *testing.T) {
	imp := importer.New(newMemoryStore())
	_, err := imp.ImportZip(context.Background(), []byte("not a zip"), interfaces.MediaKindAudio, importBlocks(), nil)
	if !errors.Is(err, importer.ErrArchiveInvalid) {
		t.Fatalf("expected ErrArchiveInvalid, got %v", err)
	}
}

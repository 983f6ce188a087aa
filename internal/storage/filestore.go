package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goliatone/go-narration/internal/identity"
	"github.com/goliatone/go-narration/internal/logging"
	"github.com/goliatone/go-narration/pkg/interfaces"
)

// ErrInvalidProjectPath reports a project file path whose name carries no id.
var ErrInvalidProjectPath = errors.New("storage: project path has no numeric id")

const (
	payloadExt  = ".bin"
	metadataExt = ".json"

	// progressChunk is the write granularity reported to progress callbacks.
	progressChunk = 256 << 10
)

// Option customises the file store.
type Option func(*FileStore)

// WithLogger injects the store logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *FileStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// FileStore persists media under <root>/<project>/media, one payload file and
// one metadata sidecar per item:
//
//	<id>.bin   raw payload bytes
//	<id>.json  MediaMetadata
//
// Item ids are derived deterministically from page id and kind, so storing
// media for the same page and kind overwrites the previous item in place.
type FileStore struct {
	dir    string
	logger interfaces.Logger

	mu      sync.Mutex
	handles map[string]string
}

var _ interfaces.MediaStore = (*FileStore)(nil)

// New opens (creating if needed) the media directory for one project.
func New(root, projectID string, opts ...Option) (*FileStore, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, fmt.Errorf("storage: empty project id")
	}
	dir := filepath.Join(root, projectID, "media")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrMediaStoreUnavailable, err)
	}
	s := &FileStore{
		dir:     dir,
		logger:  logging.NoOp(),
		handles: make(map[string]string),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Dir returns the media directory this store writes under.
func (s *FileStore) Dir() string {
	return s.dir
}

// ExtractProjectID pulls the numeric project id out of a project file path.
// Project files are named "<anything>_<id>.scormproj"; the id is the run of
// digits after the last underscore of the file stem.
func ExtractProjectID(path string) (string, error) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	idx := strings.LastIndex(stem, "_")
	if idx < 0 || idx == len(stem)-1 {
		return "", fmt.Errorf("%w: %q", ErrInvalidProjectPath, path)
	}
	id := stem[idx+1:]
	for _, r := range id {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: %q", ErrInvalidProjectPath, path)
		}
	}
	return id, nil
}

// Store writes the payload and its metadata sidecar. Both writes go through a
// temp file and rename, so a crash never leaves a partial item visible.
func (s *FileStore) Store(ctx context.Context, upload interfaces.MediaUpload, progress interfaces.ProgressFunc) (*interfaces.MediaRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id := identity.MediaUUID(upload.PageID, string(upload.Kind)).String()

	if err := s.writeFile(id+payloadExt, upload.Data, progress); err != nil {
		return nil, err
	}

	meta := interfaces.MediaMetadata{
		PageID:       upload.PageID,
		Type:         upload.Kind,
		OriginalName: upload.OriginalName,
		MimeType:     upload.MimeType,
		Title:        upload.Title,
	}
	encoded, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("storage: encode metadata: %w", err)
	}
	if err := s.writeFile(id+metadataExt, encoded, nil); err != nil {
		return nil, err
	}

	s.logger.Debug("storage.stored", "media_id", id, "bytes", len(upload.Data), "kind", string(upload.Kind))
	return &interfaces.MediaRecord{ID: id, Metadata: meta}, nil
}

// Get returns the item with its payload.
func (s *FileStore) Get(ctx context.Context, id string) (*interfaces.MediaRecord, error) {
	record, err := s.GetMetadata(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, id+payloadExt))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", interfaces.ErrMediaNotFound, id)
		}
		return nil, fmt.Errorf("storage: read payload %s: %w", id, err)
	}
	record.Data = data
	return record, nil
}

// GetMetadata returns the item without touching its payload file.
func (s *FileStore) GetMetadata(ctx context.Context, id string) (*interfaces.MediaRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	encoded, err := os.ReadFile(filepath.Join(s.dir, id+metadataExt))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", interfaces.ErrMediaNotFound, id)
		}
		return nil, fmt.Errorf("storage: read metadata %s: %w", id, err)
	}
	var meta interfaces.MediaMetadata
	if err := json.Unmarshal(encoded, &meta); err != nil {
		return nil, fmt.Errorf("storage: decode metadata %s: %w", id, err)
	}
	return &interfaces.MediaRecord{ID: id, Metadata: meta}, nil
}

// ListAll enumerates every stored item, metadata only, skipping sidecars it
// cannot decode rather than failing the whole listing.
func (s *FileStore) ListAll(ctx context.Context) ([]*interfaces.MediaRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrMediaStoreUnavailable, err)
	}
	var records []*interfaces.MediaRecord
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), metadataExt) {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), metadataExt)
		record, err := s.GetMetadata(ctx, id)
		if err != nil {
			s.logger.Warn("storage.list.skip", "media_id", id, "error", err)
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// Delete removes the payload and sidecar. Missing files are not an error.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, name := range []string{id + payloadExt, id + metadataExt} {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("storage: delete %s: %w", name, err)
		}
	}
	s.logger.Debug("storage.deleted", "media_id", id)
	return nil
}

// CreatePlayableHandle copies the payload to a temp file and returns a handle
// whose URL points at the copy, so playback survives the item being replaced
// or deleted mid-session. ReleaseHandle removes the copy.
func (s *FileStore) CreatePlayableHandle(ctx context.Context, id string) (interfaces.PlayableHandle, error) {
	record, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp("", "narration-play-*"+payloadExt)
	if err != nil {
		return nil, fmt.Errorf("storage: create handle: %w", err)
	}
	if _, err := tmp.Write(record.Data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("storage: write handle: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("storage: close handle: %w", err)
	}

	s.mu.Lock()
	s.handles[tmp.Name()] = id
	s.mu.Unlock()

	return &fileHandle{mediaID: id, path: tmp.Name()}, nil
}

// ReleaseHandle disposes a handle created by this store. Handles from other
// stores are closed on a best-effort basis.
func (s *FileStore) ReleaseHandle(handle interfaces.PlayableHandle) {
	if handle == nil {
		return
	}
	if fh, ok := handle.(*fileHandle); ok {
		s.mu.Lock()
		delete(s.handles, fh.path)
		s.mu.Unlock()
	}
	if err := handle.Close(); err != nil {
		s.logger.Warn("storage.handle.release", "media_id", handle.MediaID(), "error", err)
	}
}

type fileHandle struct {
	mediaID string
	path    string

	once sync.Once
	err  error
}

func (h *fileHandle) MediaID() string { return h.mediaID }

func (h *fileHandle) URL() string {
	return "file://" + filepath.ToSlash(h.path)
}

func (h *fileHandle) Close() error {
	h.once.Do(func() {
		if err := os.Remove(h.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			h.err = err
		}
	})
	return h.err
}

// writeFile writes data atomically inside the store directory, reporting
// progress in fixed-size increments when a callback is supplied.
func (s *FileStore) writeFile(name string, data []byte, progress interfaces.ProgressFunc) error {
	tmp, err := os.CreateTemp(s.dir, "."+name+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %v", interfaces.ErrMediaStoreUnavailable, err)
	}
	defer os.Remove(tmp.Name())

	total := int64(len(data))
	var written int64
	for written < total || total == 0 {
		end := written + progressChunk
		if end > total {
			end = total
		}
		n, err := tmp.Write(data[written:end])
		written += int64(n)
		if err != nil {
			tmp.Close()
			return fmt.Errorf("storage: write %s: %w", name, err)
		}
		if progress != nil {
			progress(written, total)
		}
		if total == 0 {
			break
		}
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("storage: commit %s: %w", name, err)
	}
	return nil
}

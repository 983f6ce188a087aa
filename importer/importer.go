package importer

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/goliatone/go-narration/blocks"
	"github.com/goliatone/go-narration/internal/logging"
	"github.com/goliatone/go-narration/internal/media"
	"github.com/goliatone/go-narration/pkg/interfaces"
)

var (
	// ErrArchiveTooLarge reports an archive over the size ceiling.
	ErrArchiveTooLarge = errors.New("importer: archive exceeds size limit")
	// ErrTooManyEntries reports an archive with more processable entries than the cap.
	ErrTooManyEntries = errors.New("importer: archive exceeds entry limit")
	// ErrArchiveInvalid reports an unreadable archive.
	ErrArchiveInvalid = errors.New("importer: archive is not a valid zip")
	// ErrUnsupportedKind reports an import kind other than audio or caption.
	ErrUnsupportedKind = errors.New("importer: unsupported media kind")
)

const (
	// MaxArchiveSize bounds accepted archives to keep worst-case work predictable.
	MaxArchiveSize = 100 << 20
	// MaxEntries caps the number of matched entries processed per archive.
	MaxEntries = 50
)

// blockNumberPattern extracts the first 4-digit run from an entry filename.
var blockNumberPattern = regexp.MustCompile(`\d{4}`)

var extensionsByKind = map[interfaces.MediaKind]map[string]struct{}{
	interfaces.MediaKindAudio: {
		".mp3": {}, ".wav": {}, ".m4a": {}, ".ogg": {},
	},
	interfaces.MediaKindCaption: {
		".vtt": {}, ".srt": {},
	},
}

var mimeByExtension = map[string]string{
	".mp3": "audio/mpeg",
	".wav": "audio/wav",
	".m4a": "audio/mp4",
	".ogg": "audio/ogg",
	".vtt": "text/vtt",
	".srt": "application/x-subrip",
}

// SkippedFile records one archive entry that was not imported and why.
type SkippedFile struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

// Result reports the outcome of a bulk import: entries are all-or-nothing
// individually, the archive as a whole never is.
type Result struct {
	Stored  []*media.Attachment `json:"stored"`
	Skipped []SkippedFile       `json:"skipped,omitempty"`
}

// Option customises the importer.
type Option func(*Importer)

// WithLogger injects the importer logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(i *Importer) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithLimits overrides the archive size ceiling and entry cap.
func WithLimits(maxArchiveSize int64, maxEntries int) Option {
	return func(i *Importer) {
		if maxArchiveSize > 0 {
			i.maxArchiveSize = maxArchiveSize
		}
		if maxEntries > 0 {
			i.maxEntries = maxEntries
		}
	}
}

// Importer ingests ZIP archives of externally generated narration audio or
// captions, matching entries to blocks by the 4-digit block number embedded
// in the filename.
type Importer struct {
	store          interfaces.MediaStore
	logger         interfaces.Logger
	maxArchiveSize int64
	maxEntries     int
}

// New constructs an importer writing matched entries through the media store.
func New(store interfaces.MediaStore, opts ...Option) *Importer {
	imp := &Importer{
		store:          store,
		logger:         logging.NoOp(),
		maxArchiveSize: MaxArchiveSize,
		maxEntries:     MaxEntries,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(imp)
		}
	}
	return imp
}

// ImportZip processes the archive entry by entry. Directories and entries
// with a non-matching extension are ignored; entries without a 4-digit block
// number, or whose number addresses no block, are reported as skipped. A
// failing entry never aborts the rest of the archive. The returned
// attachments are the full replacement set for the given kind.
func (i *Importer) ImportZip(ctx context.Context, archive []byte, kind interfaces.MediaKind, blockList []blocks.Block, progress interfaces.ProgressFunc) (*Result, error) {
	if _, ok := extensionsByKind[kind]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}
	if int64(len(archive)) > i.maxArchiveSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrArchiveTooLarge, len(archive))
	}
	reader, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArchiveInvalid, err)
	}

	// The entry cap is validated up front, before anything is written, so an
	// oversized archive is rejected whole instead of leaving a partial set of
	// stored blobs behind.
	matching := 0
	for _, entry := range reader.File {
		if matchesKind(entry, kind) {
			matching++
		}
	}
	if matching > i.maxEntries {
		return nil, fmt.Errorf("%w: more than %d entries", ErrTooManyEntries, i.maxEntries)
	}

	result := &Result{}
	for _, entry := range reader.File {
		if !matchesKind(entry, kind) {
			continue
		}
		name := path.Base(entry.Name)
		ext := strings.ToLower(path.Ext(name))

		number := blockNumberPattern.FindString(name)
		if number == "" {
			result.Skipped = append(result.Skipped, SkippedFile{
				Filename: name,
				Reason:   "no 4-digit block number found",
			})
			continue
		}
		block, ok := blocks.FindByNumber(blockList, number)
		if !ok {
			result.Skipped = append(result.Skipped, SkippedFile{
				Filename: name,
				Reason:   fmt.Sprintf("no narration block for %s", number),
			})
			continue
		}

		att, err := i.importEntry(ctx, entry, kind, block, ext, progress)
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedFile{
				Filename: name,
				Reason:   err.Error(),
			})
			i.logger.Warn("importer.entry.failed", "file", name, "block", number, "error", err)
			continue
		}
		result.Stored = append(result.Stored, att)
		i.logger.Debug("importer.entry.stored", "file", name, "block", number, "media_id", att.MediaID)
	}

	i.logger.Info("importer.archive.done",
		"kind", string(kind),
		"stored", len(result.Stored),
		"skipped", len(result.Skipped),
	)
	return result, nil
}

// matchesKind reports whether the entry is a processable file of the given
// kind: not a directory, with an extension the kind accepts.
func matchesKind(entry *zip.File, kind interfaces.MediaKind) bool {
	if entry.FileInfo().IsDir() {
		return false
	}
	ext := strings.ToLower(path.Ext(path.Base(entry.Name)))
	_, ok := extensionsByKind[kind][ext]
	return ok
}

func (i *Importer) importEntry(ctx context.Context, entry *zip.File, kind interfaces.MediaKind, block blocks.Block, ext string, progress interfaces.ProgressFunc) (*media.Attachment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rc, err := entry.Open()
	if err != nil {
		return nil, fmt.Errorf("open entry: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read entry: %w", err)
	}

	record, err := i.store.Store(ctx, interfaces.MediaUpload{
		PageID:       block.PageID,
		Kind:         kind,
		OriginalName: path.Base(entry.Name),
		MimeType:     mimeByExtension[ext],
		Title:        block.PageTitle,
		Data:         data,
	}, progress)
	if err != nil {
		return nil, fmt.Errorf("store entry: %w", err)
	}

	att := media.FromRecord(block.BlockNumber, record)
	if kind == interfaces.MediaKindCaption && att.Content == "" {
		att.Content = string(data)
	}
	return att, nil
}

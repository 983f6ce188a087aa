package narrationcmd

import (
	"context"
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-narration/importer"
	"github.com/goliatone/go-narration/internal/commands"
	"github.com/goliatone/go-narration/internal/logging"
	"github.com/goliatone/go-narration/media"
	"github.com/goliatone/go-narration/pkg/interfaces"
	"github.com/goliatone/go-narration/reconcile"
)

// ErrBulkImportDisabled reports an archive import while the feature is off.
var ErrBulkImportDisabled = errors.New("narration: bulk import disabled")

const importArchiveMessageType = "narration.media.archive.import"

// ImportArchiveCommand ingests a ZIP of externally generated audio or caption
// files and replaces the session's attachment set of that kind.
type ImportArchiveCommand struct {
	Archive []byte `json:"archive"`
	Kind    string `json:"kind"`
}

// Type implements command.Message.
func (ImportArchiveCommand) Type() string { return importArchiveMessageType }

// Validate ensures the command carries an archive and an importable kind.
func (m ImportArchiveCommand) Validate() error {
	errs := validation.Errors{}
	if len(m.Archive) == 0 {
		errs["archive"] = validation.NewError("narration.media.archive.import.archive_required", "archive payload is required")
	}
	if m.Kind != string(interfaces.MediaKindAudio) && m.Kind != string(interfaces.MediaKindCaption) {
		errs["kind"] = validation.NewError("narration.media.archive.import.kind_invalid", "kind must be audio or caption")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ImportArchiveHandler runs the bulk import pipeline end to end: archive
// ingest, library replacement, handle invalidation for displaced attachments,
// cleanup of orphaned blobs, and an autosave.
type ImportArchiveHandler struct {
	inner *commands.Handler[ImportArchiveCommand]
}

// NewImportArchiveHandler constructs a handler wired to the session's importer,
// library, resolver, and autosave engine.
func NewImportArchiveHandler(imp *importer.Importer, library *media.Library, resolver *media.Resolver, engine *reconcile.Engine, store interfaces.MediaStore, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[ImportArchiveCommand]) *ImportArchiveHandler {
	logger = commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg ImportArchiveCommand) error {
		if !gates.bulkImportEnabled() {
			return ErrBulkImportDisabled
		}

		kind := interfaces.MediaKind(msg.Kind)
		session := engine.Session()
		session.BeginOperation("bulk-import")
		defer session.EndOperation("bulk-import")

		result, err := imp.ImportZip(ctx, msg.Archive, kind, engine.Blocks(), nil)
		if err != nil {
			return err
		}

		displaced := library.Replace(kind, result.Stored)

		kept := make(map[string]bool, len(result.Stored))
		for _, att := range result.Stored {
			kept[att.MediaID] = true
		}
		for _, att := range displaced {
			resolver.InvalidateBlock(ctx, att.BlockNumber, att.MediaID)
			if att.MediaID == "" || kept[att.MediaID] {
				continue
			}
			if err := store.Delete(ctx, att.MediaID); err != nil {
				logger.Warn("narration.import.cleanup", "media_id", att.MediaID, "error", err)
			}
		}

		engine.ScheduleSave()

		logging.WithFields(logger, map[string]any{
			"kind":      msg.Kind,
			"stored":    len(result.Stored),
			"skipped":   len(result.Skipped),
			"displaced": len(displaced),
		}).Info("narration.command.archive_imported")
		return nil
	}

	handlerOpts := []commands.HandlerOption[ImportArchiveCommand]{
		commands.WithLogger[ImportArchiveCommand](logger),
		commands.WithOperation[ImportArchiveCommand]("media.archive.import"),
		commands.WithTelemetry(commands.DefaultTelemetry[ImportArchiveCommand](logger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ImportArchiveHandler{
		inner: commands.NewHandler[ImportArchiveCommand](exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[ImportArchiveCommand].
func (h *ImportArchiveHandler) Execute(ctx context.Context, msg ImportArchiveCommand) error {
	return h.inner.Execute(ctx, msg)
}

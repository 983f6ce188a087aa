package narrationcmd

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-narration/internal/commands"
	"github.com/goliatone/go-narration/internal/logging"
	"github.com/goliatone/go-narration/media"
	"github.com/goliatone/go-narration/pkg/interfaces"
	"github.com/goliatone/go-narration/reconcile"
)

const (
	flushSaveMessageType = "narration.document.save.flush"
	clearAllMessageType  = "narration.media.clear_all"
)

// FlushSaveCommand persists the session state immediately, bypassing the
// debounce and rate-limit guards. Issued on navigation and shutdown.
type FlushSaveCommand struct{}

// Type implements command.Message.
func (FlushSaveCommand) Type() string { return flushSaveMessageType }

// Validate implements command.Message. The command carries no payload.
func (FlushSaveCommand) Validate() error { return nil }

// FlushSaveHandler drives an immediate save through the autosave engine.
type FlushSaveHandler struct {
	inner *commands.Handler[FlushSaveCommand]
}

// NewFlushSaveHandler constructs a handler wired to the autosave engine.
func NewFlushSaveHandler(engine *reconcile.Engine, logger interfaces.Logger, opts ...commands.HandlerOption[FlushSaveCommand]) *FlushSaveHandler {
	logger = commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg FlushSaveCommand) error {
		if err := engine.Flush(ctx); err != nil {
			return err
		}
		logger.Info("narration.command.save_flushed")
		return nil
	}

	handlerOpts := []commands.HandlerOption[FlushSaveCommand]{
		commands.WithLogger[FlushSaveCommand](logger),
		commands.WithOperation[FlushSaveCommand]("document.save.flush"),
		commands.WithTelemetry(commands.DefaultTelemetry[FlushSaveCommand](logger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &FlushSaveHandler{
		inner: commands.NewHandler[FlushSaveCommand](exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[FlushSaveCommand].
func (h *FlushSaveHandler) Execute(ctx context.Context, msg FlushSaveCommand) error {
	return h.inner.Execute(ctx, msg)
}

// ClearAllCommand removes every media attachment from the session and the
// store, leaving narration text untouched. Destructive; requires confirmation.
type ClearAllCommand struct {
	Confirm bool `json:"confirm"`
}

// Type implements command.Message.
func (ClearAllCommand) Type() string { return clearAllMessageType }

// Validate refuses the command unless the caller confirmed the removal.
func (m ClearAllCommand) Validate() error {
	if !m.Confirm {
		return validation.Errors{
			"confirm": validation.NewError("narration.media.clear_all.confirm_required", "clear all must be confirmed"),
		}
	}
	return nil
}

// ClearAllHandler strips media from the document, empties the library,
// releases playback handles, and deletes the stored blobs.
type ClearAllHandler struct {
	inner *commands.Handler[ClearAllCommand]
}

// NewClearAllHandler constructs a handler wired to the engine, resolver, and store.
func NewClearAllHandler(engine *reconcile.Engine, resolver *media.Resolver, store interfaces.MediaStore, logger interfaces.Logger, opts ...commands.HandlerOption[ClearAllCommand]) *ClearAllHandler {
	logger = commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg ClearAllCommand) error {
		// Clean up what was removed even when the save part of ClearAll failed.
		removed, err := engine.ClearAll(ctx)
		for _, att := range removed {
			resolver.InvalidateBlock(ctx, att.BlockNumber, att.MediaID)
			if att.MediaID == "" {
				continue
			}
			if deleteErr := store.Delete(ctx, att.MediaID); deleteErr != nil {
				logger.Warn("narration.clear_all.cleanup", "media_id", att.MediaID, "error", deleteErr)
			}
		}
		if err != nil {
			return err
		}

		logging.WithFields(logger, map[string]any{
			"removed": len(removed),
		}).Info("narration.command.media_cleared")
		return nil
	}

	handlerOpts := []commands.HandlerOption[ClearAllCommand]{
		commands.WithLogger[ClearAllCommand](logger),
		commands.WithOperation[ClearAllCommand]("media.clear_all"),
		commands.WithTelemetry(commands.DefaultTelemetry[ClearAllCommand](logger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ClearAllHandler{
		inner: commands.NewHandler[ClearAllCommand](exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[ClearAllCommand].
func (h *ClearAllHandler) Execute(ctx context.Context, msg ClearAllCommand) error {
	return h.inner.Execute(ctx, msg)
}

package narrationcmd

import (
	"context"
	"errors"

	"github.com/goliatone/go-narration/internal/commands"
	"github.com/goliatone/go-narration/internal/logging"
	"github.com/goliatone/go-narration/media"
	"github.com/goliatone/go-narration/pkg/interfaces"
	"github.com/goliatone/go-narration/reconcile"
)

// ErrResolutionDisabled reports a resolve request while the feature is off.
var ErrResolutionDisabled = errors.New("narration: media resolution disabled")

const resolveMediaMessageType = "narration.media.resolve"

// ResolveMediaCommand runs one media resolution pass against the session's
// current document and block list.
type ResolveMediaCommand struct{}

// Type implements command.Message.
func (ResolveMediaCommand) Type() string { return resolveMediaMessageType }

// Validate implements command.Message. The command carries no payload.
func (ResolveMediaCommand) Validate() error { return nil }

// ResolveMediaHandler drives the resolver from the engine's current state.
// A skipped pass (guard or interval) is a successful no-op, not a failure.
type ResolveMediaHandler struct {
	inner *commands.Handler[ResolveMediaCommand]
}

// NewResolveMediaHandler constructs a handler wired to the session resolver.
func NewResolveMediaHandler(resolver *media.Resolver, engine *reconcile.Engine, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[ResolveMediaCommand]) *ResolveMediaHandler {
	logger = commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg ResolveMediaCommand) error {
		if !gates.resolutionEnabled() {
			return ErrResolutionDisabled
		}

		report, err := resolver.Resolve(ctx, engine.Document(), engine.Blocks())
		if err != nil {
			if errors.Is(err, media.ErrResolutionSkipped) {
				logger.Debug("narration.command.resolve_skipped")
				return nil
			}
			return err
		}

		logging.WithFields(logger, map[string]any{
			"expected":  report.Expected,
			"loaded":    report.Loaded,
			"recovered": report.Recovered,
			"dropped":   len(report.Dropped),
		}).Info("narration.command.media_resolved")
		return nil
	}

	handlerOpts := []commands.HandlerOption[ResolveMediaCommand]{
		commands.WithLogger[ResolveMediaCommand](logger),
		commands.WithOperation[ResolveMediaCommand]("media.resolve"),
		commands.WithTelemetry(commands.DefaultTelemetry[ResolveMediaCommand](logger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ResolveMediaHandler{
		inner: commands.NewHandler[ResolveMediaCommand](exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[ResolveMediaCommand].
func (h *ResolveMediaHandler) Execute(ctx context.Context, msg ResolveMediaCommand) error {
	return h.inner.Execute(ctx, msg)
}

package narration

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-narration/blocks"
	"github.com/goliatone/go-narration/document"
	"github.com/goliatone/go-narration/importer"
	"github.com/goliatone/go-narration/internal/cache"
	"github.com/goliatone/go-narration/internal/commands"
	narrationcmd "github.com/goliatone/go-narration/internal/commands/narration"
	"github.com/goliatone/go-narration/internal/logging"
	"github.com/goliatone/go-narration/internal/logging/console"
	"github.com/goliatone/go-narration/internal/logging/gologger"
	"github.com/goliatone/go-narration/internal/storage"
	"github.com/goliatone/go-narration/media"
	"github.com/goliatone/go-narration/pkg/interfaces"
	"github.com/goliatone/go-narration/reconcile"
	"github.com/goliatone/go-narration/recording"
)

// ErrDocumentStoreRequired indicates no document store was supplied.
var ErrDocumentStoreRequired = errors.New("narration: document store is required")

// ErrRecordingUnavailable indicates recording was requested without an audio
// source or with the feature disabled.
var ErrRecordingUnavailable = errors.New("narration: recording unavailable")

// Block exports the narration block type for consumers of the module.
type Block = blocks.Block

// Attachment exports the media attachment type.
type Attachment = media.Attachment

// Option overrides a module collaborator before wiring.
type Option func(*Module)

// WithMediaStore injects a host-supplied media store instead of the bundled
// filesystem store.
func WithMediaStore(store interfaces.MediaStore) Option {
	return func(m *Module) {
		m.store = store
	}
}

// WithAudioSource injects the capture device used for narration recording.
func WithAudioSource(source interfaces.AudioSource) Option {
	return func(m *Module) {
		m.audioSource = source
	}
}

// WithLoggerProvider injects a logger provider, overriding the one built from
// the logging configuration.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(m *Module) {
		m.loggers = provider
	}
}

// Module is the top level narration runtime façade: one instance per open
// project, wiring the store, attachment library, resolver, importer, autosave
// engine, and recorder behind a small operation surface.
type Module struct {
	cfg         Config
	loggers     interfaces.LoggerProvider
	store       interfaces.MediaStore
	docs        interfaces.DocumentStore
	audioSource interfaces.AudioSource

	library  *media.Library
	resolver *media.Resolver
	importer *importer.Importer
	engine   *reconcile.Engine
	recorder *recording.Recorder

	importHandler  *narrationcmd.ImportArchiveHandler
	resolveHandler *narrationcmd.ResolveMediaHandler
	flushHandler   *narrationcmd.FlushSaveHandler
	clearHandler   *narrationcmd.ClearAllHandler
}

// New constructs a narration module using the provided configuration. The
// document store is mandatory; the media store defaults to the bundled
// filesystem store rooted at the configured project.
func New(cfg Config, docs interfaces.DocumentStore, opts ...Option) (*Module, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if docs == nil {
		return nil, ErrDocumentStoreRequired
	}

	m := &Module{cfg: cfg, docs: docs}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	if m.loggers == nil && cfg.Features.Logger {
		provider, err := buildLoggerProvider(cfg.Logging)
		if err != nil {
			return nil, err
		}
		m.loggers = provider
	}

	if m.store == nil {
		fileStore, err := storage.New(cfg.ProjectRoot, cfg.ProjectID,
			storage.WithLogger(logging.StorageLogger(m.loggers)))
		if err != nil {
			return nil, err
		}
		m.store = fileStore
	}

	m.library = media.NewLibrary()
	m.engine = reconcile.New(docs, m.library,
		reconcile.WithLogger(logging.ReconcileLogger(m.loggers)),
		reconcile.WithDebounce(cfg.Autosave.Debounce),
		reconcile.WithMinInterval(cfg.Autosave.MinInterval),
		reconcile.WithSettleDelay(cfg.Autosave.SettleDelay),
	)

	resolverOpts := []media.ResolverOption{
		media.WithGuard(m.engine.Session()),
		media.WithLogger(logging.MediaLogger(m.loggers)),
		media.WithMinInterval(cfg.Resolution.MinInterval),
		media.WithTimeout(cfg.Resolution.Timeout),
		media.WithHandleLimit(cfg.Resolution.HandleLimit),
	}
	if cfg.Cache.Enabled {
		resolverOpts = append(resolverOpts, media.WithCache(cache.NewMemory(), cfg.Cache.DefaultTTL))
	}
	m.resolver = media.NewResolver(m.store, m.library, resolverOpts...)

	m.importer = importer.New(m.store,
		importer.WithLogger(logging.ImporterLogger(m.loggers)),
		importer.WithLimits(cfg.Import.MaxArchiveSize, cfg.Import.MaxEntries),
	)

	if m.audioSource != nil && cfg.Features.Recording {
		m.recorder = recording.New(m.audioSource, m.store,
			recording.WithLogger(logging.RecordingLogger(m.loggers)))
	}

	gates := narrationcmd.FeatureGates{
		BulkImportEnabled: func() bool { return m.cfg.Features.BulkImport },
		ResolutionEnabled: func() bool { return m.cfg.Features.Resolution },
	}
	mediaCmdLogger := commands.CommandLogger(m.loggers, "media")
	m.importHandler = narrationcmd.NewImportArchiveHandler(m.importer, m.library, m.resolver, m.engine, m.store, mediaCmdLogger, gates)
	m.resolveHandler = narrationcmd.NewResolveMediaHandler(m.resolver, m.engine, mediaCmdLogger, gates)
	m.flushHandler = narrationcmd.NewFlushSaveHandler(m.engine, commands.CommandLogger(m.loggers, "document"))
	m.clearHandler = narrationcmd.NewClearAllHandler(m.engine, m.resolver, m.store, mediaCmdLogger)

	return m, nil
}

// LoadDocument validates and parses a raw course-content document, extracts
// its narration blocks, and makes it the engine's current document.
func (m *Module) LoadDocument(raw []byte) (*document.CourseContent, []Block, error) {
	doc, err := document.Parse(raw)
	if err != nil {
		return nil, nil, err
	}
	blockList := blocks.Extract(doc)
	m.engine.SetDocument(doc, blockList)
	return doc, blockList, nil
}

// SetDocument makes an already-parsed document the engine's current document.
func (m *Module) SetDocument(doc *document.CourseContent) []Block {
	blockList := blocks.Extract(doc)
	m.engine.SetDocument(doc, blockList)
	return blockList
}

// Blocks returns the block list extracted from the current document.
func (m *Module) Blocks() []Block {
	return m.engine.Blocks()
}

// Library returns the session's attachment library.
func (m *Module) Library() *media.Library {
	return m.library
}

// Resolver returns the session's media resolver.
func (m *Module) Resolver() *media.Resolver {
	return m.resolver
}

// Engine returns the autosave engine.
func (m *Module) Engine() *reconcile.Engine {
	return m.engine
}

// Recorder returns the narration recorder, or an error when no audio source
// is wired or the recording feature is disabled.
func (m *Module) Recorder() (*recording.Recorder, error) {
	if m.recorder == nil {
		return nil, ErrRecordingUnavailable
	}
	return m.recorder, nil
}

// EditNarration records a narration text edit and schedules an autosave.
func (m *Module) EditNarration(blockNumber, text string) {
	m.engine.EditText(blockNumber, text)
}

// Attach stores an uploaded file as the block's attachment of the given kind,
// replacing any previous one, and schedules an autosave.
func (m *Module) Attach(ctx context.Context, blockNumber string, upload interfaces.MediaUpload, progress interfaces.ProgressFunc) (*Attachment, error) {
	block, ok := blocks.FindByNumber(m.engine.Blocks(), blockNumber)
	if !ok {
		return nil, fmt.Errorf("narration: unknown block %s", blockNumber)
	}
	upload.PageID = block.PageID
	if upload.Title == "" {
		upload.Title = block.PageTitle
	}

	session := m.engine.Session()
	session.BeginOperation("upload")
	defer session.EndOperation("upload")

	if prior, ok := m.library.Get(upload.Kind, blockNumber); ok {
		m.resolver.InvalidateBlock(ctx, blockNumber, prior.MediaID)
	}

	record, err := m.store.Store(ctx, upload, progress)
	if err != nil {
		return nil, err
	}
	att := media.FromRecord(blockNumber, record)
	if upload.Kind == interfaces.MediaKindCaption && att.Content == "" {
		att.Content = string(upload.Data)
	}
	m.library.Put(att)
	m.engine.ScheduleSave()
	return att, nil
}

// RemoveAttachment drops the block's attachment of the given kind, releases
// its playback handle, deletes the stored blob, and schedules an autosave.
func (m *Module) RemoveAttachment(ctx context.Context, kind interfaces.MediaKind, blockNumber string) error {
	att, ok := m.library.Remove(kind, blockNumber)
	if !ok {
		return nil
	}
	m.resolver.InvalidateBlock(ctx, blockNumber, att.MediaID)
	if att.MediaID != "" {
		if err := m.store.Delete(ctx, att.MediaID); err != nil {
			return err
		}
	}
	m.engine.ScheduleSave()
	return nil
}

// SaveRecording persists the recorder's captured clip as the block's audio
// attachment and schedules an autosave.
func (m *Module) SaveRecording(ctx context.Context, blockNumber string, progress interfaces.ProgressFunc) (*Attachment, error) {
	recorder, err := m.Recorder()
	if err != nil {
		return nil, err
	}
	block, ok := blocks.FindByNumber(m.engine.Blocks(), blockNumber)
	if !ok {
		return nil, fmt.Errorf("narration: unknown block %s", blockNumber)
	}

	session := m.engine.Session()
	session.BeginOperation("recording")
	defer session.EndOperation("recording")

	if prior, ok := m.library.Get(interfaces.MediaKindAudio, blockNumber); ok {
		m.resolver.InvalidateBlock(ctx, blockNumber, prior.MediaID)
	}
	att, err := recorder.Save(ctx, block, progress)
	if err != nil {
		return nil, err
	}
	m.library.Put(att)
	m.engine.ScheduleSave()
	return att, nil
}

// ImportArchive ingests a ZIP of audio or caption files, replacing the
// session's attachment set of that kind.
func (m *Module) ImportArchive(ctx context.Context, archive []byte, kind interfaces.MediaKind) error {
	return m.importHandler.Execute(ctx, narrationcmd.ImportArchiveCommand{
		Archive: archive,
		Kind:    string(kind),
	})
}

// ResolveMedia runs one media resolution pass against the current document.
func (m *Module) ResolveMedia(ctx context.Context) error {
	return m.resolveHandler.Execute(ctx, narrationcmd.ResolveMediaCommand{})
}

// Flush persists the session state immediately.
func (m *Module) Flush(ctx context.Context) error {
	return m.flushHandler.Execute(ctx, narrationcmd.FlushSaveCommand{})
}

// ClearAll removes every media attachment from the session and the store.
func (m *Module) ClearAll(ctx context.Context) error {
	return m.clearHandler.Execute(ctx, narrationcmd.ClearAllCommand{Confirm: true})
}

// Metadata returns the project's wizard bookkeeping from the document store.
func (m *Module) Metadata(ctx context.Context) (map[string]any, error) {
	return m.docs.LoadMetadata(ctx)
}

// PatchMetadata applies a partial metadata update through the document store.
func (m *Module) PatchMetadata(ctx context.Context, patch map[string]any) error {
	return m.docs.SaveMetadata(ctx, patch)
}

// StartPlayback materializes the block's playable handle and marks it playing.
func (m *Module) StartPlayback(ctx context.Context, blockNumber string) (interfaces.PlayableHandle, error) {
	return m.resolver.StartPlayback(ctx, blockNumber)
}

// StopPlayback marks the block's audio no longer playing.
func (m *Module) StopPlayback(blockNumber string) {
	m.resolver.StopPlayback(blockNumber)
}

// Close releases playback handles and flushes pending edits.
func (m *Module) Close(ctx context.Context) error {
	err := m.engine.Flush(ctx)
	if errors.Is(err, reconcile.ErrNoDocument) || errors.Is(err, reconcile.ErrSaveInFlight) {
		err = nil
	}
	m.resolver.Close()
	return err
}

func buildLoggerProvider(cfg LoggingConfig) (interfaces.LoggerProvider, error) {
	switch provider := cfg.Provider; provider {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     cfg.Level,
			Format:    cfg.Format,
			AddSource: cfg.AddSource,
			Focus:     cfg.Focus,
		})
		if err != nil {
			return nil, err
		}
		return provider, nil
	default:
		return console.NewProvider(console.Options{}), nil
	}
}

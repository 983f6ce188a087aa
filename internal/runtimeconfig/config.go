package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrProjectRootRequired indicates the filesystem store has no root directory.
var ErrProjectRootRequired = errors.New("narration config: project root is required when storage provider is filesystem")

// ErrProjectIDRequired indicates the filesystem store has no project id.
var ErrProjectIDRequired = errors.New("narration config: project id is required when storage provider is filesystem")

// ErrStorageProviderUnknown indicates an unsupported storage provider name.
var ErrStorageProviderUnknown = errors.New("narration config: storage provider is invalid")

// ErrAutosaveDurationInvalid indicates a negative autosave timing value.
var ErrAutosaveDurationInvalid = errors.New("narration config: autosave durations must be zero or positive")

// ErrImportLimitInvalid indicates a non-positive archive size or entry cap.
var ErrImportLimitInvalid = errors.New("narration config: import limits must be positive")

// ErrHandleLimitInvalid indicates a non-positive playable handle cap.
var ErrHandleLimitInvalid = errors.New("narration config: resolution handle limit must be positive")

var ErrLoggingProviderRequired = errors.New("narration config: logging provider is required when logging feature is enabled")
var ErrLoggingProviderUnknown = errors.New("narration config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("narration config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("narration config: logging format is invalid")

// Config aggregates feature flags and adapter bindings for the narration module.
// Fields intentionally use simple types so host applications can extend them later.
type Config struct {
	Enabled     bool
	ProjectRoot string
	ProjectID   string
	Storage     StorageConfig
	Cache       CacheConfig
	Autosave    AutosaveConfig
	Import      ImportConfig
	Resolution  ResolutionConfig
	Features    Features
	Logging     LoggingConfig
}

// StorageConfig selects the media store backing the session.
type StorageConfig struct {
	Provider string
}

// CacheConfig captures descriptor cache behaviour.
type CacheConfig struct {
	Enabled    bool
	DefaultTTL time.Duration
}

// AutosaveConfig captures the debounced save timings.
type AutosaveConfig struct {
	Debounce    time.Duration
	MinInterval time.Duration
	SettleDelay time.Duration
}

// ImportConfig bounds bulk ZIP archive ingestion.
type ImportConfig struct {
	MaxArchiveSize int64
	MaxEntries     int
}

// ResolutionConfig tunes the media resolution pass.
type ResolutionConfig struct {
	MinInterval time.Duration
	Timeout     time.Duration
	HandleLimit int
}

// Features toggles module functionality.
type Features struct {
	BulkImport bool
	Recording  bool
	Resolution bool
	Logger     bool
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// DefaultConfig returns opinionated defaults for a desktop authoring session.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Storage: StorageConfig{
			Provider: "filesystem",
		},
		Cache: CacheConfig{
			Enabled:    true,
			DefaultTTL: 5 * time.Minute,
		},
		Autosave: AutosaveConfig{
			Debounce:    500 * time.Millisecond,
			MinInterval: 2 * time.Second,
			SettleDelay: 100 * time.Millisecond,
		},
		Import: ImportConfig{
			MaxArchiveSize: 100 << 20,
			MaxEntries:     50,
		},
		Resolution: ResolutionConfig{
			MinInterval: 2 * time.Second,
			Timeout:     30 * time.Second,
			HandleLimit: 8,
		},
		Features: Features{
			BulkImport: true,
			Recording:  true,
			Resolution: true,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
			Format:   "",
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	provider := normalizeProvider(cfg.Storage.Provider)
	switch provider {
	case "filesystem":
		if strings.TrimSpace(cfg.ProjectRoot) == "" {
			return ErrProjectRootRequired
		}
		if strings.TrimSpace(cfg.ProjectID) == "" {
			return ErrProjectIDRequired
		}
	case "", "custom":
		// A host-supplied store carries its own configuration.
	default:
		return fmt.Errorf("%w: %s", ErrStorageProviderUnknown, provider)
	}
	if cfg.Autosave.Debounce < 0 || cfg.Autosave.MinInterval < 0 || cfg.Autosave.SettleDelay < 0 {
		return ErrAutosaveDurationInvalid
	}
	if cfg.Features.BulkImport {
		if cfg.Import.MaxArchiveSize <= 0 {
			return fmt.Errorf("%w: archive size", ErrImportLimitInvalid)
		}
		if cfg.Import.MaxEntries <= 0 {
			return fmt.Errorf("%w: entry cap", ErrImportLimitInvalid)
		}
	}
	if cfg.Features.Resolution && cfg.Resolution.HandleLimit <= 0 {
		return ErrHandleLimitInvalid
	}
	if cfg.Features.Logger {
		logProvider := normalizeProvider(cfg.Logging.Provider)
		if logProvider == "" {
			return ErrLoggingProviderRequired
		}
		if !isSupportedProvider(logProvider) {
			return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, logProvider)
		}
		if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
			return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
		}
		if logProvider == "gologger" {
			if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
				return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
			}
		}
	}
	return nil
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "text":
		return true
	default:
		return false
	}
}

package runtimeconfig_test

import (
	"errors"
	"testing"

	"github.com/goliatone/go-narration/internal/runtimeconfig"
)

func validConfig() runtimeconfig.Config {
	cfg := runtimeconfig.DefaultConfig()
	cfg.ProjectRoot = "/projects"
	cfg.ProjectID = "1234"
	return cfg
}

func TestDefaultConfigValidatesWithProject(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestValidateFilesystemRequiresProject(t *testing.T) {
	cfg := validConfig()
	cfg.ProjectRoot = "  "
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrProjectRootRequired) {
		t.Fatalf("expected ErrProjectRootRequired, got %v", err)
	}

	cfg = validConfig()
	cfg.ProjectID = ""
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrProjectIDRequired) {
		t.Fatalf("expected ErrProjectIDRequired, got %v", err)
	}
}

func TestValidateCustomProviderSkipsProjectChecks(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Storage.Provider = "custom"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected custom provider to validate without project, got %v", err)
	}
}

func TestValidateRejectsUnknownStorageProvider(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Provider = "s3"
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrStorageProviderUnknown) {
		t.Fatalf("expected ErrStorageProviderUnknown, got %v", err)
	}
}

func TestValidateRejectsNegativeAutosaveDurations(t *testing.T) {
	cfg := validConfig()
	cfg.Autosave.MinInterval = -1
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrAutosaveDurationInvalid) {
		t.Fatalf("expected ErrAutosaveDurationInvalid, got %v", err)
	}
}

func TestValidateImportLimits(t *testing.T) {
	cfg := validConfig()
	cfg.Import.MaxArchiveSize = 0
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrImportLimitInvalid) {
		t.Fatalf("expected ErrImportLimitInvalid, got %v", err)
	}

	cfg = validConfig()
	cfg.Import.MaxEntries = -1
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrImportLimitInvalid) {
		t.Fatalf("expected ErrImportLimitInvalid, got %v", err)
	}

	// Limits only matter while bulk import is enabled.
	cfg = validConfig()
	cfg.Features.BulkImport = false
	cfg.Import.MaxArchiveSize = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected limits ignored when import disabled, got %v", err)
	}
}

func TestValidateHandleLimit(t *testing.T) {
	cfg := validConfig()
	cfg.Resolution.HandleLimit = 0
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrHandleLimitInvalid) {
		t.Fatalf("expected ErrHandleLimitInvalid, got %v", err)
	}

	cfg = validConfig()
	cfg.Features.Resolution = false
	cfg.Resolution.HandleLimit = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected handle limit ignored when resolution disabled, got %v", err)
	}
}

func TestValidateLogging(t *testing.T) {
	cfg := validConfig()
	cfg.Features.Logger = true
	cfg.Logging.Provider = ""
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLoggingProviderRequired) {
		t.Fatalf("expected ErrLoggingProviderRequired, got %v", err)
	}

	cfg = validConfig()
	cfg.Features.Logger = true
	cfg.Logging.Provider = "syslog"
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLoggingProviderUnknown) {
		t.Fatalf("expected ErrLoggingProviderUnknown, got %v", err)
	}

	cfg = validConfig()
	cfg.Features.Logger = true
	cfg.Logging.Level = "loud"
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLoggingLevelInvalid) {
		t.Fatalf("expected ErrLoggingLevelInvalid, got %v", err)
	}

	cfg = validConfig()
	cfg.Features.Logger = true
	cfg.Logging.Provider = "GoLogger"
	cfg.Logging.Format = "xml"
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrLoggingFormatInvalid) {
		t.Fatalf("expected ErrLoggingFormatInvalid, got %v", err)
	}

	cfg = validConfig()
	cfg.Features.Logger = true
	cfg.Logging.Provider = "gologger"
	cfg.Logging.Level = "Debug"
	cfg.Logging.Format = "json"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected gologger config to validate, got %v", err)
	}
}

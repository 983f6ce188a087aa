package narration

import "github.com/goliatone/go-narration/internal/runtimeconfig"

var (
	ErrProjectRootRequired     = runtimeconfig.ErrProjectRootRequired
	ErrProjectIDRequired       = runtimeconfig.ErrProjectIDRequired
	ErrStorageProviderUnknown  = runtimeconfig.ErrStorageProviderUnknown
	ErrAutosaveDurationInvalid = runtimeconfig.ErrAutosaveDurationInvalid
	ErrImportLimitInvalid      = runtimeconfig.ErrImportLimitInvalid
	ErrHandleLimitInvalid      = runtimeconfig.ErrHandleLimitInvalid
	ErrLoggingProviderRequired = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown  = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid     = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid    = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config           = runtimeconfig.Config
	StorageConfig    = runtimeconfig.StorageConfig
	CacheConfig      = runtimeconfig.CacheConfig
	AutosaveConfig   = runtimeconfig.AutosaveConfig
	ImportConfig     = runtimeconfig.ImportConfig
	ResolutionConfig = runtimeconfig.ResolutionConfig
	Features         = runtimeconfig.Features
	LoggingConfig    = runtimeconfig.LoggingConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

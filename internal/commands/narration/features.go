package narrationcmd

// FeatureGates exposes the runtime toggles required by narration command
// handlers. Calling code can inject closures that read from narration.Config
// to avoid concrete dependencies while still honouring feature flags.
type FeatureGates struct {
	// BulkImportEnabled returns true when ZIP archive import is active.
	BulkImportEnabled func() bool
	// ResolutionEnabled returns true when store-backed media resolution is active.
	ResolutionEnabled func() bool
}

func (g FeatureGates) bulkImportEnabled() bool {
	if g.BulkImportEnabled == nil {
		return true
	}
	return g.BulkImportEnabled()
}

func (g FeatureGates) resolutionEnabled() bool {
	if g.ResolutionEnabled == nil {
		return true
	}
	return g.ResolutionEnabled()
}

package cli

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:""`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable verbose output"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// RefreshCommand copies each profile's live history into the snapshot directory.
type RefreshCommand struct {
	globals *GlobalFlags
	version string
}

// SearchCommand searches snapshotted history by keyword and date range.
type SearchCommand struct {
	Start   string `long:"start" description:"Only visits on or after this day (YYYY-MM-DD)"`
	End     string `long:"end" description:"Only visits on or before this day (YYYY-MM-DD)"`
	Profile string `long:"profile" description:"Profile id, comma-separated ids, or all" default:"all"`
	Page    int    `long:"page" description:"Page number" default:"1"`
	PerPage int    `long:"per-page" description:"Results per page (0 uses the configured default)" default:"0"`
	Refresh bool   `long:"refresh" description:"Refresh snapshots before searching"`

	globals *GlobalFlags
	version string
}

// StatusCommand shows configured profiles and snapshot health.
type StatusCommand struct {
	globals *GlobalFlags
	version string
}

// ServeCommand starts the local HTTP service.
type ServeCommand struct {
	Host      string `long:"host" description:"Override listen host"`
	Port      int    `long:"port" description:"Override listen port"`
	NoRefresh bool   `long:"no-refresh" description:"Skip refreshing snapshots on startup"`

	globals *GlobalFlags
	version string
}

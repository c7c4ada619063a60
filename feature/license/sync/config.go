package sync

// Config holds the engine tunables loaded from the environment.
type Config struct {
	// InternalChunkSize pages the internal table during the gap scan.
	InternalChunkSize int `mapstructure:"internal_chunk_size" default:"1000"`
	// ExternalChunkSize pages the external table during index building and
	// the orphan scan.
	ExternalChunkSize int `mapstructure:"external_chunk_size" default:"500"`
	// BatchSize bounds one executor batch.
	BatchSize int `mapstructure:"batch_size" default:"50"`
	// MaxPages is the pagination safety ceiling.
	MaxPages int `mapstructure:"max_pages" default:"1000"`
	// MaxOperations caps one run's planned operations.
	MaxOperations int `mapstructure:"max_operations" default:"10000"`
	// BatchWorkers bounds concurrent writes inside one batch.
	BatchWorkers int `mapstructure:"batch_workers" default:"10"`
	// ArchiveReports enables uploading run summaries to object storage.
	ArchiveReports bool `mapstructure:"archive_reports" default:"false"`
	// ReportPrefix is the object storage prefix for archived summaries.
	ReportPrefix string `mapstructure:"report_prefix" default:"reports/sync"`
}

// Options converts the loaded configuration into engine options.
func (c Config) Options() Options {
	return Options{
		InternalChunkSize: c.InternalChunkSize,
		ExternalChunkSize: c.ExternalChunkSize,
		BatchSize:         c.BatchSize,
		MaxPages:          c.MaxPages,
		MaxOperations:     c.MaxOperations,
		BatchWorkers:      c.BatchWorkers,
	}.normalized()
}

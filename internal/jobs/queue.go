package jobs

// JobQueue provides an abstraction for enqueueing background jobs
type JobQueue interface {
	EnqueueEnrichment() error
	EnqueueImport(platform, username string) error
}

package contracts

import "context"

// CompFetcher downloads the full comps payload (stage 1)
type CompFetcher interface {
	FetchComps(ctx context.Context) (*CompsResponse, error)
}

// RecordPersister writes a normalized record and returns its path (stage 4)
type RecordPersister interface {
	Save(record *NormalizedRecord, id string) (string, error)
}

// RecordSink receives a copy of every persisted record (Redis, Postgres)
type RecordSink interface {
	Name() string
	Publish(ctx context.Context, runID string, record *NormalizedRecord) error
}

// RecordReporter prints a human-readable summary (stage 5)
type RecordReporter interface {
	Report(record *NormalizedRecord)
}

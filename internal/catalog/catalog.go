// Package catalog consumes the warehouse's scheduled-query registry and
// indexes which tables each query references. The registry itself sits
// behind the Fetcher interface so the bq CLI can be swapped for a fake.
package catalog

import "context"

// QueryRecord is one scheduled query as decoded from the catalog.
type QueryRecord struct {
	// Name is the query's display name.
	Name string
	// Query is the SQL body. May be empty for misconfigured records.
	Query string
	// Disabled marks queries that are registered but not running.
	Disabled bool
}

// Label returns the name as it appears in reports: the raw display name,
// suffixed with " (disabled)" when the query is disabled.
func (r QueryRecord) Label() string {
	if r.Disabled {
		return r.Name + " (disabled)"
	}
	return r.Name
}

// Fetcher supplies scheduled-query records from the warehouse catalog.
type Fetcher interface {
	FetchScheduledQueries(ctx context.Context) ([]QueryRecord, error)
}

package metrics

import (
	"sync/atomic"
)

// Metrics tracks operational metrics for a run.
type Metrics struct {
	PagesFetched         uint64 `json:"pages_fetched"`
	MembersUpserted      uint64 `json:"members_upserted"`
	PullRequestsUpserted uint64 `json:"pull_requests_upserted"`
	CommitsUpserted      uint64 `json:"commits_upserted"`
	ReportsWritten       uint64 `json:"reports_written"`
}

var global = &Metrics{}

// PageFetched increments the count of API pages fetched.
func PageFetched() { atomic.AddUint64(&global.PagesFetched, 1) }

// MemberUpserted increments the count of member rows written.
func MemberUpserted() { atomic.AddUint64(&global.MembersUpserted, 1) }

// PullRequestUpserted increments the count of pull request rows written.
func PullRequestUpserted() { atomic.AddUint64(&global.PullRequestsUpserted, 1) }

// CommitUpserted increments the count of commit rows written.
func CommitUpserted() { atomic.AddUint64(&global.CommitsUpserted, 1) }

// ReportWritten increments the count of artifacts rendered.
func ReportWritten() { atomic.AddUint64(&global.ReportsWritten, 1) }

// Get returns a snapshot of the current metrics.
func Get() Metrics {
	return Metrics{
		PagesFetched:         atomic.LoadUint64(&global.PagesFetched),
		MembersUpserted:      atomic.LoadUint64(&global.MembersUpserted),
		PullRequestsUpserted: atomic.LoadUint64(&global.PullRequestsUpserted),
		CommitsUpserted:      atomic.LoadUint64(&global.CommitsUpserted),
		ReportsWritten:       atomic.LoadUint64(&global.ReportsWritten),
	}
}

// Reset resets all metrics to zero (useful for testing).
func Reset() {
	atomic.StoreUint64(&global.PagesFetched, 0)
	atomic.StoreUint64(&global.MembersUpserted, 0)
	atomic.StoreUint64(&global.PullRequestsUpserted, 0)
	atomic.StoreUint64(&global.CommitsUpserted, 0)
	atomic.StoreUint64(&global.ReportsWritten, 0)
}

package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// Bucket granularities for FirstTimeContributions, expressed as timestamp
// prefix lengths: 4 characters of "YYYY-MM-..." is a year, 7 a month.
const (
	BucketYear  = 4
	BucketMonth = 7
)

// PeriodCount is one time bucket of the first-time-contributor aggregation.
// The JSON field is "month" for both granularities, matching the artifact
// format consumers already parse.
type PeriodCount struct {
	Period string `db:"period" json:"month"`
	Count  int    `db:"count" json:"count"`
}

// MonthlyPullRequests is one month bucket of merged pull request volume,
// split by organization membership of the author.
type MonthlyPullRequests struct {
	Month        string `db:"month" json:"month"`
	ByMembers    int    `db:"by_members" json:"by_members"`
	ByNonMembers int    `db:"by_non_members" json:"by_non_members"`
	Total        int    `db:"total" json:"total"`
}

// Summary holds the aggregate statistics for a date range.
type Summary struct {
	MergedByMembers    int `db:"by_members"`
	MergedByNonMembers int `db:"by_non_members"`
	MergedTotal        int `db:"total"`
	Contributors       int `db:"contributors"`
	Repos              int `db:"repos"`
	FirstTimers        int `db:"first_timers"`
}

// rangeBounds converts an inclusive calendar-date range into the half-open
// string range used by every SQL filter: merged_at >= since AND
// merged_at < day after until. Correct under lexicographic comparison of the
// stored RFC-3339 strings, and also excludes unmerged rows, whose empty
// merged_at sorts before any date.
func rangeBounds(since, until string) (string, string, error) {
	end, err := time.Parse("2006-01-02", until)
	if err != nil {
		return "", "", fmt.Errorf("parsing until date %q: %w", until, err)
	}
	if _, err := time.Parse("2006-01-02", since); err != nil {
		return "", "", fmt.Errorf("parsing since date %q: %w", since, err)
	}
	return since, end.AddDate(0, 0, 1).Format("2006-01-02"), nil
}

// FirstTimeContributions counts, per time bucket, the authors whose first
// merged pull request in the range falls into that bucket. Buckets are
// substrings of the stored timestamp, so lexicographic ordering is
// chronological.
func (s *Store) FirstTimeContributions(ctx context.Context, since, until string, prefixLen int) ([]PeriodCount, error) {
	lo, hi, err := rangeBounds(since, until)
	if err != nil {
		return nil, err
	}

	// Initialized so an empty range still renders as a JSON array.
	results := []PeriodCount{}
	err = s.db.SelectContext(ctx, &results, `
		SELECT first_date AS period, COUNT(username) AS count
		FROM (
		    SELECT username, substr(MIN(merged_at), 1, ?) AS first_date
		    FROM pull_requests
		    WHERE merged_at >= ? AND merged_at < ?
		    GROUP BY username
		)
		GROUP BY period
		ORDER BY period ASC`,
		prefixLen, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("querying first-time contributions: %w", err)
	}
	return results, nil
}

// MonthlyPullRequestVolume counts merged pull requests per month, split by
// whether the author is a known member.
func (s *Store) MonthlyPullRequestVolume(ctx context.Context, since, until string) ([]MonthlyPullRequests, error) {
	lo, hi, err := rangeBounds(since, until)
	if err != nil {
		return nil, err
	}

	// Initialized so an empty range still renders as a JSON array.
	results := []MonthlyPullRequests{}
	err = s.db.SelectContext(ctx, &results, `
		SELECT
		    substr(pr.merged_at, 1, 7) AS month,
		    COUNT(CASE WHEN m.username IS NOT NULL THEN 1 END) AS by_members,
		    COUNT(CASE WHEN m.username IS NULL THEN 1 END) AS by_non_members,
		    COUNT(*) AS total
		FROM pull_requests pr
		LEFT JOIN members m ON pr.username = m.username
		WHERE pr.merged_at >= ? AND pr.merged_at < ?
		GROUP BY month
		ORDER BY month ASC`,
		lo, hi)
	if err != nil {
		return nil, fmt.Errorf("querying monthly pull request volume: %w", err)
	}
	return results, nil
}

// DirectCommits returns commits by the curated authors, excluding any whose
// message contains one of the exclusion substrings. Row-level filter only,
// no date bound.
func (s *Store) DirectCommits(ctx context.Context, authors, excludeMessages []string) ([]Commit, error) {
	if len(authors) == 0 {
		return nil, nil
	}

	var sb strings.Builder
	sb.WriteString(`
		SELECT id, repo, sha, username, committed_at, message, url
		FROM commits
		WHERE username IN (?)`)
	args := []interface{}{authors}
	for range excludeMessages {
		sb.WriteString(` AND message NOT LIKE '%' || ? || '%'`)
	}
	for _, m := range excludeMessages {
		args = append(args, m)
	}
	sb.WriteString(` ORDER BY committed_at ASC`)

	query, expanded, err := sqlx.In(sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("building direct commits query: %w", err)
	}

	var commits []Commit
	if err := s.db.SelectContext(ctx, &commits, s.db.Rebind(query), expanded...); err != nil {
		return nil, fmt.Errorf("querying direct commits: %w", err)
	}
	return commits, nil
}

// MergedPullRequests returns pull requests merged within the range, authored
// by members or by non-members.
func (s *Store) MergedPullRequests(ctx context.Context, since, until string, byMembers bool) ([]PullRequest, error) {
	lo, hi, err := rangeBounds(since, until)
	if err != nil {
		return nil, err
	}

	membership := "NOT IN"
	if byMembers {
		membership = "IN"
	}

	var prs []PullRequest
	err = s.db.SelectContext(ctx, &prs, fmt.Sprintf(`
		SELECT id, repo, pr_num, username, title, created_at, merged_at
		FROM pull_requests
		WHERE merged_at >= ? AND merged_at < ?
		AND username %s (SELECT username FROM members)
		ORDER BY merged_at ASC`, membership),
		lo, hi)
	if err != nil {
		return nil, fmt.Errorf("querying merged pull requests: %w", err)
	}
	return prs, nil
}

// Summarize computes the aggregate statistics for the range: merged counts
// split by membership, totals, and the number of authors with no merged pull
// request before the range start.
func (s *Store) Summarize(ctx context.Context, since, until string) (Summary, error) {
	lo, hi, err := rangeBounds(since, until)
	if err != nil {
		return Summary{}, err
	}

	var sum Summary
	err = s.db.GetContext(ctx, &sum, `
		SELECT
		    COUNT(CASE WHEN m.username IS NOT NULL THEN 1 END) AS by_members,
		    COUNT(CASE WHEN m.username IS NULL THEN 1 END) AS by_non_members
		FROM pull_requests pr
		LEFT JOIN members m ON pr.username = m.username
		WHERE pr.merged_at >= ? AND pr.merged_at < ?`,
		lo, hi)
	if err != nil {
		return Summary{}, fmt.Errorf("querying membership split: %w", err)
	}

	err = s.db.GetContext(ctx, &sum.MergedTotal, `
		SELECT COUNT(*) FROM pull_requests
		WHERE merged_at >= ? AND merged_at < ?`,
		lo, hi)
	if err != nil {
		return Summary{}, fmt.Errorf("querying merged total: %w", err)
	}

	err = s.db.GetContext(ctx, &sum.Contributors, `
		SELECT COUNT(DISTINCT username) FROM pull_requests
		WHERE merged_at >= ? AND merged_at < ?`,
		lo, hi)
	if err != nil {
		return Summary{}, fmt.Errorf("querying contributors: %w", err)
	}

	err = s.db.GetContext(ctx, &sum.Repos, `
		SELECT COUNT(DISTINCT repo) FROM pull_requests
		WHERE merged_at >= ? AND merged_at < ?`,
		lo, hi)
	if err != nil {
		return Summary{}, fmt.Errorf("querying repos: %w", err)
	}

	err = s.db.GetContext(ctx, &sum.FirstTimers, `
		SELECT COUNT(DISTINCT username) FROM pull_requests
		WHERE merged_at >= ? AND merged_at < ?
		AND username NOT IN
		    (SELECT DISTINCT username FROM pull_requests WHERE merged_at != '' AND merged_at < ?)`,
		lo, hi, lo)
	if err != nil {
		return Summary{}, fmt.Errorf("querying first-time contributors: %w", err)
	}

	return sum, nil
}

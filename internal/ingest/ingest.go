package ingest

import (
	"context"
	"fmt"
	"log"
	"time"

	"orgstats/internal/config"
	"orgstats/internal/github"
	"orgstats/internal/metrics"
	"orgstats/internal/store"
)

// Source lists organization data from the hosting API. Implemented by
// github.Client; tests substitute a fake.
type Source interface {
	ListMembers(ctx context.Context, org string) ([]github.Member, error)
	ListRepositories(ctx context.Context, org string) ([]github.Repository, error)
	ListPullRequests(ctx context.Context, org, repo string) ([]github.PullRequest, error)
	ListCommits(ctx context.Context, org, repo string, since, until time.Time) ([]github.Commit, error)
}

// Stats counts the rows written by a run. Re-running over an overlapping
// range reports only newly inserted rows.
type Stats struct {
	Members      int
	Repos        int
	PullRequests int
	Commits      int
}

// Pipeline drives the source across paginated result sets and upserts
// normalized rows into the store. Any source or storage error aborts the
// run; rows already written stay written.
type Pipeline struct {
	source Source
	store  *store.Store
	cfg    *config.Config
}

// New creates an ingestion pipeline.
func New(source Source, st *store.Store, cfg *config.Config) *Pipeline {
	return &Pipeline{source: source, store: st, cfg: cfg}
}

// Run ingests commits (when a date range is given), members, and every
// repository's pull requests for the organization. since and until are
// calendar dates, normalized to [since 00:00:00, until 23:59:59] UTC for the
// commit scan.
func (p *Pipeline) Run(ctx context.Context, org, since, until string) (Stats, error) {
	var stats Stats

	if err := p.store.Migrate(ctx); err != nil {
		return stats, err
	}

	if since != "" && until != "" {
		lo, err := parseDate(since, false)
		if err != nil {
			return stats, err
		}
		hi, err := parseDate(until, true)
		if err != nil {
			return stats, err
		}

		for _, repo := range p.cfg.Commits.ScanRepos {
			n, err := p.ingestCommits(ctx, org, repo, lo, hi)
			if err != nil {
				return stats, err
			}
			stats.Commits += n
		}
	}

	n, err := p.ingestMembers(ctx, org)
	if err != nil {
		return stats, err
	}
	stats.Members = n

	repos, err := p.source.ListRepositories(ctx, org)
	if err != nil {
		return stats, err
	}
	stats.Repos = len(repos)

	for _, repo := range repos {
		log.Printf("Getting pull requests for: %s", repo.Name)
		n, err := p.ingestPullRequests(ctx, org, repo.Name)
		if err != nil {
			return stats, err
		}
		stats.PullRequests += n
	}

	return stats, nil
}

func (p *Pipeline) ingestCommits(ctx context.Context, org, repo string, since, until time.Time) (int, error) {
	commits, err := p.source.ListCommits(ctx, org, repo, since, until)
	if err != nil {
		return 0, err
	}

	var written int
	for _, c := range commits {
		ins, err := p.store.InsertCommit(ctx, store.Commit{
			Repo:        c.Repo,
			SHA:         c.SHA,
			Username:    c.Author,
			CommittedAt: store.FormatTime(c.CommittedAt),
			Message:     c.Message,
			URL:         c.URL,
		})
		if err != nil {
			return written, err
		}
		if ins {
			metrics.CommitUpserted()
			written++
		}
	}
	return written, nil
}

func (p *Pipeline) ingestMembers(ctx context.Context, org string) (int, error) {
	members, err := p.source.ListMembers(ctx, org)
	if err != nil {
		return 0, err
	}

	var written int
	for _, m := range members {
		ins, err := p.store.InsertMember(ctx, m.Login)
		if err != nil {
			return written, err
		}
		if ins {
			metrics.MemberUpserted()
			written++
		}
	}
	return written, nil
}

func (p *Pipeline) ingestPullRequests(ctx context.Context, org, repo string) (int, error) {
	prs, err := p.source.ListPullRequests(ctx, org, repo)
	if err != nil {
		return 0, err
	}

	var written int
	for _, pr := range prs {
		row := store.PullRequest{
			Repo:      pr.Repo,
			Number:    pr.Number,
			Username:  pr.Author,
			Title:     pr.Title,
			CreatedAt: store.FormatTime(pr.CreatedAt),
		}
		if pr.MergedAt != nil {
			row.MergedAt = store.FormatTime(*pr.MergedAt)
		}

		ins, err := p.store.InsertPullRequest(ctx, row)
		if err != nil {
			return written, err
		}
		if ins {
			metrics.PullRequestUpserted()
			written++
		}
	}
	return written, nil
}

// parseDate parses a YYYY-MM-DD calendar date as a UTC day boundary.
func parseDate(date string, endOfDay bool) (time.Time, error) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", date, err)
	}
	if endOfDay {
		t = t.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
	}
	return t, nil
}

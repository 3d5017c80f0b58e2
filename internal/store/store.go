package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS members (
    id              INTEGER PRIMARY KEY,
    username        TEXT NOT NULL,
    UNIQUE(username)
);

CREATE TABLE IF NOT EXISTS pull_requests (
    id              INTEGER PRIMARY KEY,
    repo            TEXT NOT NULL,
    pr_num          INTEGER NOT NULL,
    username        TEXT NOT NULL,
    title           TEXT NOT NULL,
    created_at      TEXT NOT NULL,
    merged_at       TEXT NOT NULL DEFAULT '',
    UNIQUE(repo, pr_num)
);

CREATE TABLE IF NOT EXISTS commits (
    id              INTEGER PRIMARY KEY,
    repo            TEXT NOT NULL,
    sha             TEXT NOT NULL,
    username        TEXT NOT NULL,
    committed_at    TEXT NOT NULL,
    message         TEXT NOT NULL,
    url             TEXT NOT NULL,
    UNIQUE(sha)
);
`

// Member is a members table row.
type Member struct {
	ID       int64  `db:"id"`
	Username string `db:"username"`
}

// PullRequest is a pull_requests table row. Timestamps are RFC-3339 UTC
// strings; merged_at is empty while the pull request is unmerged.
type PullRequest struct {
	ID        int64  `db:"id"`
	Repo      string `db:"repo"`
	Number    int    `db:"pr_num"`
	Username  string `db:"username"`
	Title     string `db:"title"`
	CreatedAt string `db:"created_at"`
	MergedAt  string `db:"merged_at"`
}

// Commit is a commits table row. Username is empty when the commit has no
// resolvable author.
type Commit struct {
	ID          int64  `db:"id"`
	Repo        string `db:"repo"`
	SHA         string `db:"sha"`
	Username    string `db:"username"`
	CommittedAt string `db:"committed_at"`
	Message     string `db:"message"`
	URL         string `db:"url"`
}

// Store owns the SQLite database handle. It is passed explicitly into each
// pipeline stage rather than held globally.
type Store struct {
	db *sqlx.DB
}

// Open opens (creating if needed) the database file at path.
func Open(path string) (*Store, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma %s: %w", pragma, err)
		}
	}

	return &Store{db: db}, nil
}

// Close closes the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Migrate creates the three tables if they do not exist. No version
// tracking: schema migration is a non-goal for this tool.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// InsertMember inserts a member, ignoring duplicates. Reports whether a new
// row was written.
func (s *Store) InsertMember(ctx context.Context, username string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO members (username) VALUES (?)`, username)
	if err != nil {
		return false, fmt.Errorf("inserting member %s: %w", username, err)
	}
	return inserted(res)
}

// InsertPullRequest inserts a pull request keyed by (repo, pr_num), ignoring
// duplicates. A pull request's title and merge state are frozen at first
// observation.
func (s *Store) InsertPullRequest(ctx context.Context, pr PullRequest) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO pull_requests (repo, pr_num, username, title, created_at, merged_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		pr.Repo, pr.Number, pr.Username, pr.Title, pr.CreatedAt, pr.MergedAt)
	if err != nil {
		return false, fmt.Errorf("inserting pull request %s#%d: %w", pr.Repo, pr.Number, err)
	}
	return inserted(res)
}

// InsertCommit inserts a commit keyed by sha, ignoring duplicates.
func (s *Store) InsertCommit(ctx context.Context, c Commit) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO commits (repo, sha, username, committed_at, message, url)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.Repo, c.SHA, c.Username, c.CommittedAt, c.Message, c.URL)
	if err != nil {
		return false, fmt.Errorf("inserting commit %s: %w", c.SHA, err)
	}
	return inserted(res)
}

func inserted(res interface{ RowsAffected() (int64, error) }) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// FormatTime renders a timestamp as the stored RFC-3339 UTC string. The
// fixed-width representation is load-bearing: range filters and bucketing
// compare these strings lexicographically.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

package report

import (
	"fmt"
	"strings"

	"orgstats/internal/store"
)

// WriteCommitDigest renders the curated direct-commit digest: one line per
// commit with date, repo, author, single-line message, and a short-sha link.
func (r *Renderer) WriteCommitDigest(filename string, commits []store.Commit) error {
	var sb strings.Builder
	for _, c := range commits {
		sb.WriteString(fmt.Sprintf(
			"-   %s - %s %s - %s [%s](%s)\n",
			commitDate(c.CommittedAt),
			c.Repo,
			displayAuthor(c.Username),
			strings.ReplaceAll(c.Message, "\n", " "),
			shortSHA(c.SHA),
			c.URL,
		))
	}

	return r.write(filename, []byte(sb.String()))
}

// commitDate is the calendar-date prefix of the stored RFC-3339 timestamp.
func commitDate(ts string) string {
	if len(ts) < 10 {
		return ts
	}
	return ts[:10]
}

func shortSHA(sha string) string {
	if len(sha) < 7 {
		return sha
	}
	return sha[:7]
}

// displayAuthor renders an unknown author as "n/a". The store keeps the
// field empty; the sentinel exists only here.
func displayAuthor(username string) string {
	if username == "" {
		return "n/a"
	}
	return username
}

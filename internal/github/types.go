package github

import "time"

// Member represents an organization member at fetch time.
type Member struct {
	Login string
}

// Repository represents an organization repository.
type Repository struct {
	Name string
}

// PullRequest represents a pull request as listed from the API.
type PullRequest struct {
	Repo      string
	Number    int
	Author    string
	Title     string
	CreatedAt time.Time
	MergedAt  *time.Time // nil when unmerged at fetch time
}

// Commit represents a commit as listed from the API.
type Commit struct {
	Repo        string
	SHA         string
	Author      string // empty when the commit has no resolvable author
	CommittedAt time.Time
	Message     string
	URL         string
}

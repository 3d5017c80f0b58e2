package github

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v60/github"

	"orgstats/internal/metrics"
)

const perPage = 100

// Client wraps the GitHub API for the listing operations the ingestion
// pipeline needs. Every listing walks all pages before returning.
type Client struct {
	client   *github.Client
	token    string
	progress func(msg string)
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.client.BaseURL, _ = c.client.BaseURL.Parse(url + "/")
	}
}

// WithProgress sets a callback invoked after each fetched page.
func WithProgress(f func(msg string)) Option {
	return func(c *Client) {
		c.progress = f
	}
}

// New creates a new GitHub client.
func New(token string, opts ...Option) *Client {
	httpClient := &http.Client{
		Transport: &tokenTransport{token: token},
	}

	c := &Client{
		client: github.NewClient(httpClient),
		token:  token,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// tokenTransport adds authorization header to requests.
type tokenTransport struct {
	token string
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+t.token)
	return http.DefaultTransport.RoundTrip(req)
}

func (c *Client) pageFetched(format string, args ...any) {
	metrics.PageFetched()
	if c.progress != nil {
		c.progress(fmt.Sprintf(format, args...))
	}
}

// ListMembers fetches all members of the organization.
func (c *Client) ListMembers(ctx context.Context, org string) ([]Member, error) {
	opts := &github.ListMembersOptions{
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	var members []Member
	for {
		users, resp, err := c.client.Organizations.ListMembers(ctx, org, opts)
		if err != nil {
			return nil, fmt.Errorf("listing members of %s: %w", org, err)
		}

		for _, u := range users {
			members = append(members, Member{Login: u.GetLogin()})
		}
		c.pageFetched("... %d members", len(members))

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return members, nil
}

// ListRepositories fetches all repositories of the organization.
func (c *Client) ListRepositories(ctx context.Context, org string) ([]Repository, error) {
	opts := &github.RepositoryListByOrgOptions{
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	var repos []Repository
	for {
		page, resp, err := c.client.Repositories.ListByOrg(ctx, org, opts)
		if err != nil {
			return nil, fmt.Errorf("listing repositories of %s: %w", org, err)
		}

		for _, r := range page {
			repos = append(repos, Repository{Name: r.GetName()})
		}
		c.pageFetched("... %d repositories", len(repos))

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return repos, nil
}

// ListPullRequests fetches every pull request of the repository, all states,
// newest first.
func (c *Client) ListPullRequests(ctx context.Context, org, repo string) ([]PullRequest, error) {
	opts := &github.PullRequestListOptions{
		State:       "all",
		Sort:        "created",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	var prs []PullRequest
	for {
		page, resp, err := c.client.PullRequests.List(ctx, org, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("listing pull requests of %s/%s: %w", org, repo, err)
		}

		for _, pr := range page {
			converted, err := convertPullRequest(repo, pr)
			if err != nil {
				return nil, fmt.Errorf("pull request %s/%s#%d: %w", org, repo, pr.GetNumber(), err)
			}
			prs = append(prs, converted)
		}
		c.pageFetched("... %d", len(prs))

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return prs, nil
}

// convertPullRequest maps an API pull request to the domain type. The API is
// assumed to always populate author, title, and creation time for real pull
// requests; a hole in any of them is an invariant violation, not a skippable
// row.
func convertPullRequest(repo string, pr *github.PullRequest) (PullRequest, error) {
	if pr.User == nil || pr.User.GetLogin() == "" {
		return PullRequest{}, fmt.Errorf("missing author")
	}
	if pr.Title == nil {
		return PullRequest{}, fmt.Errorf("missing title")
	}
	if pr.CreatedAt == nil {
		return PullRequest{}, fmt.Errorf("missing creation time")
	}

	converted := PullRequest{
		Repo:      repo,
		Number:    pr.GetNumber(),
		Author:    pr.User.GetLogin(),
		Title:     pr.GetTitle(),
		CreatedAt: pr.CreatedAt.Time.UTC(),
	}
	if pr.Base != nil && pr.Base.Repo != nil && pr.Base.Repo.GetName() != "" {
		converted.Repo = pr.Base.Repo.GetName()
	}
	if pr.MergedAt != nil {
		merged := pr.MergedAt.Time.UTC()
		converted.MergedAt = &merged
	}

	return converted, nil
}

// ListCommits fetches the repository's commit history within [since, until].
func (c *Client) ListCommits(ctx context.Context, org, repo string, since, until time.Time) ([]Commit, error) {
	opts := &github.CommitsListOptions{
		Since:       since,
		Until:       until,
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	var commits []Commit
	for {
		page, resp, err := c.client.Repositories.ListCommits(ctx, org, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("listing commits of %s/%s: %w", org, repo, err)
		}

		for _, rc := range page {
			commit := Commit{
				Repo:    repo,
				SHA:     rc.GetSHA(),
				Message: rc.GetCommit().GetMessage(),
				URL:     rc.GetHTMLURL(),
			}
			if rc.Author != nil {
				commit.Author = rc.Author.GetLogin()
			}
			if rc.GetCommit().GetCommitter().GetDate().IsZero() {
				return nil, fmt.Errorf("commit %s/%s@%s: missing commit time", org, repo, commit.SHA)
			}
			commit.CommittedAt = rc.GetCommit().GetCommitter().GetDate().Time.UTC()

			commits = append(commits, commit)
		}
		c.pageFetched("... %d commits", len(commits))

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return commits, nil
}

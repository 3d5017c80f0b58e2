package store

import (
	"context"
	"fmt"
	"testing"
)

func seedPullRequest(t *testing.T, s *Store, repo string, num int, user, mergedAt string) {
	t.Helper()
	_, err := s.InsertPullRequest(context.Background(), PullRequest{
		Repo:      repo,
		Number:    num,
		Username:  user,
		Title:     fmt.Sprintf("change %d", num),
		CreatedAt: "2024-01-01T00:00:00Z",
		MergedAt:  mergedAt,
	})
	if err != nil {
		t.Fatalf("seeding pull request: %v", err)
	}
}

func seedMember(t *testing.T, s *Store, user string) {
	t.Helper()
	if _, err := s.InsertMember(context.Background(), user); err != nil {
		t.Fatalf("seeding member: %v", err)
	}
}

func TestFirstTimeContributions_MonthBuckets(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// alice first merges in January, again in March; bob first merges in
	// March; carol is unmerged and must not count.
	seedPullRequest(t, s, "lila", 1, "alice", "2024-01-15T10:00:00Z")
	seedPullRequest(t, s, "lila", 2, "alice", "2024-03-01T10:00:00Z")
	seedPullRequest(t, s, "lila", 3, "bob", "2024-03-20T10:00:00Z")
	seedPullRequest(t, s, "lila", 4, "carol", "")

	results, err := s.FirstTimeContributions(ctx, "2024-01-01", "2024-12-31", BucketMonth)
	if err != nil {
		t.Fatalf("FirstTimeContributions() error = %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2: %+v", len(results), results)
	}
	if results[0].Period != "2024-01" || results[0].Count != 1 {
		t.Errorf("results[0] = %+v, want {2024-01 1}", results[0])
	}
	if results[1].Period != "2024-03" || results[1].Count != 1 {
		t.Errorf("results[1] = %+v, want {2024-03 1}", results[1])
	}
}

func TestFirstTimeContributions_YearBuckets(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seedPullRequest(t, s, "lila", 1, "alice", "2023-06-15T10:00:00Z")
	seedPullRequest(t, s, "lila", 2, "bob", "2024-02-29T10:00:00Z") // leap day
	seedPullRequest(t, s, "lila", 3, "carol", "2024-12-31T23:59:59Z")

	results, err := s.FirstTimeContributions(ctx, "2023-01-01", "2024-12-31", BucketYear)
	if err != nil {
		t.Fatalf("FirstTimeContributions() error = %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2: %+v", len(results), results)
	}
	if results[0].Period != "2023" || results[0].Count != 1 {
		t.Errorf("results[0] = %+v, want {2023 1}", results[0])
	}
	if results[1].Period != "2024" || results[1].Count != 2 {
		t.Errorf("results[1] = %+v, want {2024 2}", results[1])
	}
}

func TestFirstTimeContributions_UntilInclusive(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Merged late on the until day: must still count.
	seedPullRequest(t, s, "lila", 1, "alice", "2024-03-31T23:00:00Z")
	// Merged the day after: must not.
	seedPullRequest(t, s, "lila", 2, "bob", "2024-04-01T00:00:01Z")

	results, err := s.FirstTimeContributions(ctx, "2024-03-01", "2024-03-31", BucketMonth)
	if err != nil {
		t.Fatalf("FirstTimeContributions() error = %v", err)
	}

	if len(results) != 1 || results[0].Count != 1 {
		t.Fatalf("results = %+v, want a single 2024-03 bucket of 1", results)
	}
}

func TestFirstTimeContributions_EmptyRange(t *testing.T) {
	s := openTestStore(t)

	results, err := s.FirstTimeContributions(context.Background(), "2024-01-01", "2024-01-31", BucketMonth)
	if err != nil {
		t.Fatalf("FirstTimeContributions() error = %v", err)
	}
	if results == nil {
		t.Fatal("results = nil, want empty slice so the JSON artifact is an array")
	}
	if len(results) != 0 {
		t.Errorf("len(results) = %d, want 0", len(results))
	}
}

func TestMonthlyPullRequestVolume_EmptyRange(t *testing.T) {
	s := openTestStore(t)

	results, err := s.MonthlyPullRequestVolume(context.Background(), "2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatalf("MonthlyPullRequestVolume() error = %v", err)
	}
	if results == nil {
		t.Fatal("results = nil, want empty slice so the JSON artifact is an array")
	}
}

func TestMonthlyPullRequestVolume_Partition(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seedMember(t, s, "alice")
	seedPullRequest(t, s, "lila", 1, "alice", "2024-01-10T10:00:00Z")
	seedPullRequest(t, s, "lila", 2, "bob", "2024-01-12T10:00:00Z")
	seedPullRequest(t, s, "lila", 3, "bob", "2024-02-05T10:00:00Z")
	seedPullRequest(t, s, "mobile", 4, "alice", "2024-02-06T10:00:00Z")
	seedPullRequest(t, s, "lila", 5, "carol", "2024-02-07T10:00:00Z")

	results, err := s.MonthlyPullRequestVolume(ctx, "2024-01-01", "2024-12-31")
	if err != nil {
		t.Fatalf("MonthlyPullRequestVolume() error = %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2: %+v", len(results), results)
	}

	for _, r := range results {
		if r.ByMembers+r.ByNonMembers != r.Total {
			t.Errorf("bucket %s: by_members(%d) + by_non_members(%d) != total(%d)",
				r.Month, r.ByMembers, r.ByNonMembers, r.Total)
		}
	}
	if results[0].Month != "2024-01" || results[0].ByMembers != 1 || results[0].ByNonMembers != 1 {
		t.Errorf("results[0] = %+v, want {2024-01 1 1 2}", results[0])
	}
	if results[1].Month != "2024-02" || results[1].Total != 3 {
		t.Errorf("results[1] = %+v, want total 3", results[1])
	}
}

func TestDirectCommits_Filter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seed := []Commit{
		{Repo: "lila", SHA: "a1", Username: "alice", CommittedAt: "2024-01-01T10:00:00Z", Message: "Fix clock", URL: "u1"},
		{Repo: "lila", SHA: "a2", Username: "alice", CommittedAt: "2024-01-02T10:00:00Z", Message: "Merge branch 'main'", URL: "u2"},
		{Repo: "lila", SHA: "a3", Username: "mallory", CommittedAt: "2024-01-03T10:00:00Z", Message: "Sneaky change", URL: "u3"},
		{Repo: "lila", SHA: "a4", Username: "bob", CommittedAt: "2024-01-04T10:00:00Z", Message: "New translations via sync", URL: "u4"},
		{Repo: "lila", SHA: "a5", Username: "bob", CommittedAt: "2024-01-05T10:00:00Z", Message: "Add puzzle themes", URL: "u5"},
	}
	for _, c := range seed {
		if _, err := s.InsertCommit(ctx, c); err != nil {
			t.Fatalf("seeding commit: %v", err)
		}
	}

	commits, err := s.DirectCommits(ctx,
		[]string{"alice", "bob"},
		[]string{"Merge", "New translations"})
	if err != nil {
		t.Fatalf("DirectCommits() error = %v", err)
	}

	if len(commits) != 2 {
		t.Fatalf("len(commits) = %d, want 2: %+v", len(commits), commits)
	}
	if commits[0].SHA != "a1" || commits[1].SHA != "a5" {
		t.Errorf("unexpected commits: %+v", commits)
	}
}

func TestDirectCommits_EmptyAllowList(t *testing.T) {
	s := openTestStore(t)

	commits, err := s.DirectCommits(context.Background(), nil, []string{"Merge"})
	if err != nil {
		t.Fatalf("DirectCommits() error = %v", err)
	}
	if len(commits) != 0 {
		t.Errorf("expected no commits for empty allow-list, got %d", len(commits))
	}
}

func TestMergedPullRequests_MembershipSplit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seedMember(t, s, "alice")
	seedPullRequest(t, s, "lila", 1, "alice", "2024-01-10T10:00:00Z")
	seedPullRequest(t, s, "lila", 2, "bob", "2024-01-12T10:00:00Z")
	seedPullRequest(t, s, "lila", 3, "bob", "") // unmerged

	members, err := s.MergedPullRequests(ctx, "2024-01-01", "2024-01-31", true)
	if err != nil {
		t.Fatalf("MergedPullRequests(members) error = %v", err)
	}
	if len(members) != 1 || members[0].Username != "alice" {
		t.Errorf("member pull requests = %+v, want only alice's", members)
	}

	others, err := s.MergedPullRequests(ctx, "2024-01-01", "2024-01-31", false)
	if err != nil {
		t.Fatalf("MergedPullRequests(non-members) error = %v", err)
	}
	if len(others) != 1 || others[0].Username != "bob" {
		t.Errorf("non-member pull requests = %+v, want only bob's merged one", others)
	}
}

func TestSummarize(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seedMember(t, s, "alice")
	// alice merged before the range: not a first-timer.
	seedPullRequest(t, s, "lila", 1, "alice", "2023-12-01T10:00:00Z")
	seedPullRequest(t, s, "lila", 2, "alice", "2024-01-10T10:00:00Z")
	seedPullRequest(t, s, "mobile", 3, "bob", "2024-01-12T10:00:00Z")
	seedPullRequest(t, s, "lila", 4, "carol", "2024-01-15T10:00:00Z")
	// carol also has an old unmerged pull request; only merged history
	// predating the range disqualifies a first-timer.
	seedPullRequest(t, s, "lila", 5, "carol", "")

	sum, err := s.Summarize(ctx, "2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	if sum.MergedTotal != 3 {
		t.Errorf("MergedTotal = %d, want 3", sum.MergedTotal)
	}
	if sum.MergedByMembers != 1 || sum.MergedByNonMembers != 2 {
		t.Errorf("membership split = %d/%d, want 1/2", sum.MergedByMembers, sum.MergedByNonMembers)
	}
	if sum.Contributors != 3 {
		t.Errorf("Contributors = %d, want 3", sum.Contributors)
	}
	if sum.Repos != 2 {
		t.Errorf("Repos = %d, want 2", sum.Repos)
	}
	if sum.FirstTimers != 2 {
		t.Errorf("FirstTimers = %d, want 2 (bob and carol)", sum.FirstTimers)
	}
}

func TestRangeBounds_BadDate(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.MonthlyPullRequestVolume(context.Background(), "2024-01-01", "not-a-date"); err == nil {
		t.Error("expected error for malformed until date, got nil")
	}
}

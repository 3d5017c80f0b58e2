package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"orgstats/internal/config"
	"orgstats/internal/store"
)

func testRenderer(t *testing.T) (*Renderer, string) {
	t.Helper()
	dir := t.TempDir()
	return New(dir, config.DefaultConfig()), dir
}

func TestWriteJSON_StableOutput(t *testing.T) {
	r, dir := testRenderer(t)

	results := []store.PeriodCount{
		{Period: "2024-01", Count: 3},
		{Period: "2024-02", Count: 5},
	}

	if err := r.WriteJSON("results.json", results); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	first, err := os.ReadFile(filepath.Join(dir, "results.json"))
	if err != nil {
		t.Fatalf("reading artifact: %v", err)
	}

	want := `[
  {
    "month": "2024-01",
    "count": 3
  },
  {
    "month": "2024-02",
    "count": 5
  }
]
`
	if string(first) != want {
		t.Errorf("artifact = %q, want %q", first, want)
	}

	// Re-rendering the same input must be byte-identical.
	if err := r.WriteJSON("results.json", results); err != nil {
		t.Fatalf("second WriteJSON() error = %v", err)
	}
	second, err := os.ReadFile(filepath.Join(dir, "results.json"))
	if err != nil {
		t.Fatalf("reading artifact: %v", err)
	}
	if string(first) != string(second) {
		t.Error("re-render produced different bytes")
	}
}

func TestWriteJSON_EmptyAggregation(t *testing.T) {
	r, dir := testRenderer(t)

	if err := r.WriteJSON("empty.json", []store.PeriodCount{}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "empty.json"))
	if err != nil {
		t.Fatalf("reading artifact: %v", err)
	}
	if string(data) != "[]\n" {
		t.Errorf("artifact = %q, want %q", data, "[]\n")
	}
}

func TestWriteJSON_MonthlyVolumeFieldOrder(t *testing.T) {
	r, dir := testRenderer(t)

	results := []store.MonthlyPullRequests{
		{Month: "2024-01", ByMembers: 1, ByNonMembers: 2, Total: 3},
	}

	if err := r.WriteJSON("volume.json", results); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "volume.json"))
	if err != nil {
		t.Fatalf("reading artifact: %v", err)
	}

	text := string(data)
	order := []string{`"month"`, `"by_members"`, `"by_non_members"`, `"total"`}
	last := -1
	for _, field := range order {
		idx := strings.Index(text, field)
		if idx < 0 {
			t.Fatalf("field %s missing from artifact %q", field, text)
		}
		if idx < last {
			t.Errorf("field %s out of order in artifact %q", field, text)
		}
		last = idx
	}
}

func TestWriteChangelog_Prefixes(t *testing.T) {
	r, dir := testRenderer(t)

	prs := []store.PullRequest{
		{Repo: "api", Number: 7, Username: "alice", Title: "fix thing"},
		{Repo: "lila", Number: 8, Username: "bob", Title: "improve search"},
		{Repo: "mobile", Number: 9, Username: "carol", Title: "add dark mode"},
	}

	if err := r.WriteChangelog("changelog.md", "lichess-org", prs); err != nil {
		t.Fatalf("WriteChangelog() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "changelog.md"))
	if err != nil {
		t.Fatalf("reading artifact: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3: %q", len(lines), data)
	}

	want0 := "-   API Docs: Fix thing [#7](https://github.com/lichess-org/api/pull/7) (thanks [alice](https://github.com/alice))"
	if lines[0] != want0 {
		t.Errorf("line 0 = %q, want %q", lines[0], want0)
	}

	want1 := "-   Improve search [#8](https://github.com/lichess-org/lila/pull/8) (thanks [bob](https://github.com/bob))"
	if lines[1] != want1 {
		t.Errorf("line 1 = %q, want %q", lines[1], want1)
	}

	if !strings.HasPrefix(lines[2], "-   Mobile: Add dark mode ") {
		t.Errorf("line 2 = %q, want Mobile: prefix with capitalized title", lines[2])
	}
}

func TestWriteCommitDigest(t *testing.T) {
	r, dir := testRenderer(t)

	commits := []store.Commit{
		{
			Repo:        "lila",
			SHA:         "abc1234def5678",
			Username:    "alice",
			CommittedAt: "2024-03-01T12:00:00Z",
			Message:     "Fix clock\ndrift on resume",
			URL:         "https://github.com/lichess-org/lila/commit/abc1234def5678",
		},
		{
			Repo:        "mobile",
			SHA:         "ffff000",
			Username:    "",
			CommittedAt: "2024-03-02T09:30:00Z",
			Message:     "Bump deps",
			URL:         "https://github.com/lichess-org/mobile/commit/ffff000",
		},
	}

	if err := r.WriteCommitDigest("commits.md", commits); err != nil {
		t.Fatalf("WriteCommitDigest() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "commits.md"))
	if err != nil {
		t.Fatalf("reading artifact: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")

	want0 := "-   2024-03-01 - lila alice - Fix clock drift on resume [abc1234](https://github.com/lichess-org/lila/commit/abc1234def5678)"
	if lines[0] != want0 {
		t.Errorf("line 0 = %q, want %q", lines[0], want0)
	}

	if !strings.Contains(lines[1], " mobile n/a - ") {
		t.Errorf("line 1 = %q, want n/a author", lines[1])
	}
}

func TestCapitalizeFirst(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"fix thing", "Fix thing"},
		{"", ""},
		{"Already", "Already"},
		{"épée cleanup", "Épée cleanup"},
	}
	for _, c := range cases {
		if got := capitalizeFirst(c.in); got != c.want {
			t.Errorf("capitalizeFirst(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

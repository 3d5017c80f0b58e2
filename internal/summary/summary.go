package summary

import (
	"context"
	"fmt"
	"io"
	"strings"

	"orgstats/internal/config"
	"orgstats/internal/store"
)

// Narrator produces prose from a prompt. A nil Narrator means the
// text-completion service is unconfigured and narrative stages are skipped.
type Narrator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Reporter computes the summary statistics for a range and drafts narrative
// text around them.
type Reporter struct {
	store    *store.Store
	narrator Narrator
	cfg      *config.Config
	out      io.Writer
}

// New creates a summary reporter writing to out.
func New(st *store.Store, narrator Narrator, cfg *config.Config, out io.Writer) *Reporter {
	return &Reporter{store: st, narrator: narrator, cfg: cfg, out: out}
}

// Run prints the summary block for the range, then the narrative drafts.
func (r *Reporter) Run(ctx context.Context, org, since, until string) error {
	sum, err := r.store.Summarize(ctx, since, until)
	if err != nil {
		return err
	}

	block := summaryBlock(org, since, until, sum)
	fmt.Fprintln(r.out, block)

	fmt.Fprintln(r.out, "**Summary idea:**")
	if err := r.narrate(ctx, fmt.Sprintf(
		"Write a short paragraph summarizing this data for the intro of a blog post: %s", block)); err != nil {
		return err
	}

	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, "**Tweet ideas:**")
	if err := r.narrate(ctx, fmt.Sprintf(
		"Write 5 ideas for Twitter posts about this summary. Do not use emojis or hash tags. %s", block)); err != nil {
		return err
	}

	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, "**Feed ideas:**")
	if err := r.narrate(ctx, fmt.Sprintf(
		"Write 5 ideas for short blurbs about this summary. Do not use emojis or hash tags. Include a markdown link for reading more to %s : %s",
		r.cfg.Summary.ReadMoreURL, block)); err != nil {
		return err
	}

	return nil
}

// narrate sends one prompt and emits the response line by line. Skipped with
// a notice when no narrator is configured; never a hard failure.
func (r *Reporter) narrate(ctx context.Context, prompt string) error {
	if r.narrator == nil {
		fmt.Fprintln(r.out, "Skipping OpenAI API call until OPENAI_API_KEY is set")
		return nil
	}

	response, err := r.narrator.Complete(ctx, prompt)
	if err != nil {
		return fmt.Errorf("generating narrative: %w", err)
	}

	for _, line := range strings.Split(response, "\n") {
		fmt.Fprintln(r.out, line)
	}
	return nil
}

func summaryBlock(org, since, until string, sum store.Summary) string {
	return fmt.Sprintf("```"+`
%s GitHub Summary for %s to %s
---------------------------------------------------

Total merged pull requests: %d
Total repos with pull requests: %d
Total contributors: %d
First time contributors: %d

Merged pull requests (from team members): %d
Merged pull requests (from community members): %d`+"```",
		org, since, until,
		sum.MergedTotal,
		sum.Repos,
		sum.Contributors,
		sum.FirstTimers,
		sum.MergedByMembers,
		sum.MergedByNonMembers,
	)
}

package report

import (
	"fmt"
	"strings"
	"unicode"

	"orgstats/internal/store"
)

// WriteChangelog renders a Markdown bullet list of pull requests, one entry
// per row, linking the pull request and crediting the author.
func (r *Renderer) WriteChangelog(filename, org string, prs []store.PullRequest) error {
	base := r.cfg.GitHub.LinkBase

	var sb strings.Builder
	for _, pr := range prs {
		sb.WriteString(fmt.Sprintf(
			"-   %s%s [#%d](%s/%s/%s/pull/%d) (thanks [%s](%s/%s))\n",
			r.repoPrefix(pr.Repo),
			capitalizeFirst(pr.Title),
			pr.Number,
			base, org, pr.Repo, pr.Number,
			pr.Username,
			base, pr.Username,
		))
	}

	return r.write(filename, []byte(sb.String()))
}

// repoPrefix returns the display-name prefix for a repository: empty for
// core repos, "API Docs: " for the API docs repo, otherwise the capitalized
// repo name followed by a colon.
func (r *Renderer) repoPrefix(repo string) string {
	for _, core := range r.cfg.Repos.Core {
		if repo == core {
			return ""
		}
	}
	if repo == r.cfg.Repos.APIDocs {
		return "API Docs: "
	}
	return capitalizeFirst(repo) + ": "
}

// capitalizeFirst upper-cases the first rune only.
func capitalizeFirst(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

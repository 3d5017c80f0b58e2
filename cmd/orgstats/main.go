package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"orgstats/internal/config"
	"orgstats/internal/github"
	"orgstats/internal/ingest"
	"orgstats/internal/openai"
	"orgstats/internal/report"
	"orgstats/internal/server"
	"orgstats/internal/store"
	"orgstats/internal/summary"
)

var version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "fetch":
		runFetch(os.Args[2:])
	case "results":
		runResults(os.Args[2:])
	case "changelog":
		runChangelog(os.Args[2:])
	case "summary":
		runSummary(os.Args[2:])
	case "serve":
		runServe(os.Args[2:])
	case "version":
		fmt.Printf("orgstats v%s\n", version)
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: orgstats <command> [options] [args]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  fetch <org> [since until]   Ingest members, pull requests, and commits")
	fmt.Println("  results <org> since until   Render contribution aggregates as JSON")
	fmt.Println("  changelog <org> since until Render changelog and commit digest Markdown")
	fmt.Println("  summary <org> since until   Print summary statistics and narrative drafts")
	fmt.Println("  serve [port]                Serve the artifact directory (default port 8080)")
	fmt.Println("  version                     Print version information")
	fmt.Println()
	fmt.Println("Dates are YYYY-MM-DD; the until day is included in full.")
}

// parseArgs handles the shared -config/-env-file flags and returns the
// positional arguments.
func parseArgs(name string, args []string) (*config.Config, []string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to config file")
	envFile := fs.String("env-file", "", "Path to .env file (optional)")
	fs.Parse(args)

	// Load .env file if specified or exists
	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			log.Printf("Warning: could not load env file %s: %v", *envFile, err)
		}
	} else {
		godotenv.Load(".env")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	return cfg, fs.Args()
}

func openStore(cfg *config.Config) *store.Store {
	st, err := store.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		log.Fatalf("Failed to prepare database: %v", err)
	}
	return st
}

func runFetch(args []string) {
	cfg, pos := parseArgs("fetch", args)
	if len(pos) < 1 {
		log.Fatal("Usage: orgstats fetch <org> [since until]")
	}
	org := pos[0]

	since, until, err := fetchDates(pos)
	if err != nil {
		log.Fatalf("Usage: orgstats fetch <org> [since until]: %v", err)
	}

	token := cfg.GitHub.Token
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	if token == "" {
		log.Fatal("GITHUB_TOKEN environment variable not set")
	}

	st := openStore(cfg)
	defer st.Close()

	gh := github.New(token, github.WithProgress(func(msg string) {
		log.Print(msg)
	}))

	stats, err := ingest.New(gh, st, cfg).Run(context.Background(), org, since, until)
	if err != nil {
		log.Fatalf("Fetch failed: %v", err)
	}

	log.Printf("Fetched %d new members, %d new pull requests, %d new commits across %d repositories",
		stats.Members, stats.PullRequests, stats.Commits, stats.Repos)
}

// fetchDates extracts the optional date range from the fetch positionals.
// The commit scan needs both endpoints; a lone since is an operator mistake,
// not something to drop silently.
func fetchDates(pos []string) (since, until string, err error) {
	switch len(pos) {
	case 1:
		return "", "", nil
	case 2:
		return "", "", fmt.Errorf("both dates or neither (got only %s)", pos[1])
	default:
		return pos[1], pos[2], nil
	}
}

func runResults(args []string) {
	cfg, pos := parseArgs("results", args)
	if len(pos) < 3 {
		log.Fatal("Usage: orgstats results <org> <since> <until>")
	}
	since, until := pos[1], pos[2]

	st := openStore(cfg)
	defer st.Close()

	ctx := context.Background()
	r := report.New(cfg.Output.Dir, cfg)

	yearly, err := st.FirstTimeContributions(ctx, since, until, store.BucketYear)
	if err != nil {
		log.Fatalf("Results failed: %v", err)
	}
	if err := r.WriteJSON("results_first_time_contributions_yearly.json", yearly); err != nil {
		log.Fatalf("Results failed: %v", err)
	}

	monthly, err := st.FirstTimeContributions(ctx, since, until, store.BucketMonth)
	if err != nil {
		log.Fatalf("Results failed: %v", err)
	}
	if err := r.WriteJSON("results_first_time_contributions_monthly.json", monthly); err != nil {
		log.Fatalf("Results failed: %v", err)
	}

	volume, err := st.MonthlyPullRequestVolume(ctx, since, until)
	if err != nil {
		log.Fatalf("Results failed: %v", err)
	}
	if err := r.WriteJSON("results_pull_requests.json", volume); err != nil {
		log.Fatalf("Results failed: %v", err)
	}
}

func runChangelog(args []string) {
	cfg, pos := parseArgs("changelog", args)
	if len(pos) < 3 {
		log.Fatal("Usage: orgstats changelog <org> <since> <until>")
	}
	org, since, until := pos[0], pos[1], pos[2]

	st := openStore(cfg)
	defer st.Close()

	ctx := context.Background()
	r := report.New(cfg.Output.Dir, cfg)

	commits, err := st.DirectCommits(ctx, cfg.Commits.CuratedAuthors, cfg.Commits.ExcludeMessages)
	if err != nil {
		log.Fatalf("Changelog failed: %v", err)
	}
	if err := r.WriteCommitDigest("changelog_commits.md", commits); err != nil {
		log.Fatalf("Changelog failed: %v", err)
	}

	for _, byMembers := range []bool{true, false} {
		prs, err := st.MergedPullRequests(ctx, since, until, byMembers)
		if err != nil {
			log.Fatalf("Changelog failed: %v", err)
		}

		filename := "changelog_non_members.md"
		if byMembers {
			filename = "changelog_members.md"
		}
		if err := r.WriteChangelog(filename, org, prs); err != nil {
			log.Fatalf("Changelog failed: %v", err)
		}
	}
}

func runSummary(args []string) {
	cfg, pos := parseArgs("summary", args)
	if len(pos) < 3 {
		log.Fatal("Usage: orgstats summary <org> <since> <until>")
	}
	org, since, until := pos[0], pos[1], pos[2]

	st := openStore(cfg)
	defer st.Close()

	apiKey := cfg.OpenAI.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	// An absent key downgrades the narrative stages to a skip, never a
	// failure.
	var narrator summary.Narrator
	if apiKey != "" {
		narrator = openai.New(apiKey, cfg.OpenAI.Model)
	}

	rep := summary.New(st, narrator, cfg, os.Stdout)
	if err := rep.Run(context.Background(), org, since, until); err != nil {
		log.Fatalf("Summary failed: %v", err)
	}
}

func runServe(args []string) {
	cfg, pos := parseArgs("serve", args)

	port := 8080
	if len(pos) >= 1 {
		if p, err := strconv.Atoi(pos[0]); err == nil {
			port = p
		}
	}

	srv := server.New(cfg.Output.Dir, port)
	if err := srv.ListenAndServeWithShutdown(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

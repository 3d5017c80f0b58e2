package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config represents the tool configuration.
type Config struct {
	Database string        `yaml:"database"`
	Output   OutputConfig  `yaml:"output"`
	GitHub   GitHubConfig  `yaml:"github"`
	OpenAI   OpenAIConfig  `yaml:"openai"`
	Commits  CommitsConfig `yaml:"commits"`
	Repos    ReposConfig   `yaml:"repos"`
	Summary  SummaryConfig `yaml:"summary"`
}

// OutputConfig holds artifact output settings.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// GitHubConfig holds GitHub API settings.
type GitHubConfig struct {
	Token    string `yaml:"token"`
	LinkBase string `yaml:"link_base"`
}

// OpenAIConfig holds text-completion settings.
type OpenAIConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// SummaryConfig holds narrative-summary settings.
type SummaryConfig struct {
	// ReadMoreURL is linked from the generated feed blurbs.
	ReadMoreURL string `yaml:"read_more_url"`
}

// CommitsConfig controls the commit scan and the curated digest.
type CommitsConfig struct {
	// ScanRepos are the repositories whose commit history is fetched.
	ScanRepos []string `yaml:"scan_repos"`
	// CuratedAuthors is the allow-list for the direct-commit digest.
	CuratedAuthors []string `yaml:"curated_authors"`
	// ExcludeMessages drops commits whose message contains any of these substrings.
	ExcludeMessages []string `yaml:"exclude_messages"`
}

// ReposConfig controls changelog display names.
type ReposConfig struct {
	// Core repositories get no prefix in the changelog.
	Core []string `yaml:"core"`
	// APIDocs is the repository rendered with an "API Docs:" prefix.
	APIDocs string `yaml:"api_docs"`
}

// envVarPattern matches ${VAR_NAME} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Database: "database.sqlite",
		Output: OutputConfig{
			Dir: "web",
		},
		GitHub: GitHubConfig{
			LinkBase: "https://github.com",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4",
		},
		Commits: CommitsConfig{
			ScanRepos: []string{"lila", "mobile"},
			CuratedAuthors: []string{
				"ornicar", "veloce", "lakinwecker", "fitztrev", "niklasf",
				"lenguyenthanh", "lukhas", "isaacl", "trevorbayless",
				"thomas-daniels", "benediktwerner", "kraktus", "fituby",
				"schlawg",
			},
			ExcludeMessages: []string{
				"Merge",
				"New Crowdin updates",
				"New translations",
				"golf",
				"tweak",
				"refactor",
			},
		},
		Repos: ReposConfig{
			Core:    []string{"lila", "lila-ws", "lifat"},
			APIDocs: "api",
		},
		Summary: SummaryConfig{
			ReadMoreURL: "https://lichess.org/changelog",
		},
	}
}

// Load reads and parses the config file at the given path. A missing file is
// not an error: the tool runs on defaults with zero setup.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Substitute environment variables
	data = envVarPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		varName := envVarPattern.FindSubmatch(match)[1]
		return []byte(os.Getenv(string(varName)))
	})

	// Start with defaults
	cfg := DefaultConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return cfg, nil
}

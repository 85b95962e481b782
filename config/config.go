package config

import (
	"crypto/rsa"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/imranansari/cloudways-deploy-action/secrets"
)

// DefaultAPIURL is the Cloudways REST API base
const DefaultAPIURL = "https://api.cloudways.com/api/v1"

// DefaultGitHubAPIURL is the public GitHub REST API base
const DefaultGitHubAPIURL = "https://api.github.com"

// Config holds all configuration for the action
type Config struct {
	// Action inputs, set by the runner as INPUT_<NAME>
	Inputs Inputs `envPrefix:"INPUT_"`

	// Cloudways API Configuration
	Cloudways CloudwaysConfig `envPrefix:"CLOUDWAYS_"`

	// GitHub runner context and deployment tracking
	GitHub GitHubConfig `envPrefix:"GITHUB_"`

	// Application Configuration
	App AppConfig `envPrefix:"APP_"`

	// Secrets (loaded from files)
	Secrets SecretsConfig
}

// Inputs mirrors the inputs declared in action.yml.
// The runner keeps hyphens in input names, so INPUT_API-KEY is correct.
type Inputs struct {
	Email      string `env:"EMAIL,notEmpty"`
	APIKey     string `env:"API-KEY,notEmpty"`
	ServerID   string `env:"SERVER-ID"`
	AppID      string `env:"APP-ID"`
	BranchName string `env:"BRANCH-NAME"`
	DeployPath string `env:"DEPLOY-PATH"`

	Environment      string `env:"ENVIRONMENT" envDefault:"production"`
	ReportDeployment bool   `env:"REPORT-DEPLOYMENT" envDefault:"false"`
	GitHubToken      string `env:"GITHUB-TOKEN"`
}

type CloudwaysConfig struct {
	APIURL string `env:"API_URL" envDefault:"https://api.cloudways.com/api/v1"`
}

type GitHubConfig struct {
	// Runner provided context
	Repository string `env:"REPOSITORY"`
	SHA        string `env:"SHA"`
	APIURL     string `env:"API_URL" envDefault:"https://api.github.com"`
	ServerURL  string `env:"SERVER_URL" envDefault:"https://github.com"`
	RunID      string `env:"RUN_ID"`

	// GitHub App used when no token input is given
	AppID          int64  `env:"APP_ID"`
	PrivateKeyPath string `env:"APP_PRIVATE_KEY_PATH"`

	// Token copied from the github-token input
	Token string
}

type AppConfig struct {
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`
}

type SecretsConfig struct {
	GitHubAppKey *rsa.PrivateKey
}

// Owner returns the owner part of GITHUB_REPOSITORY
func (c GitHubConfig) Owner() string {
	owner, _, _ := strings.Cut(c.Repository, "/")
	return owner
}

// Repo returns the repository name part of GITHUB_REPOSITORY
func (c GitHubConfig) Repo() string {
	_, repo, _ := strings.Cut(c.Repository, "/")
	return repo
}

// RunURL returns the link to the current workflow run, or "" outside a runner
func (c GitHubConfig) RunURL() string {
	if c.Repository == "" || c.RunID == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/actions/runs/%s", strings.TrimSuffix(c.ServerURL, "/"), c.Repository, c.RunID)
}

// Load loads configuration from environment variables and files.
// A .env file in the working directory is only read outside GitHub Actions,
// where the working directory is the calling repository's checkout.
func Load() (*Config, error) {
	if !RunningInActions() {
		_ = godotenv.Load()
	}

	return parse(env.Options{})
}

// RunningInActions reports whether the process runs on a GitHub Actions runner
func RunningInActions() bool {
	return os.Getenv("GITHUB_ACTIONS") != ""
}

// LoadFromEnvironment loads configuration from the given variables only
func LoadFromEnvironment(environment map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environment})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}
	cfg.GitHub.Token = cfg.Inputs.GitHubToken

	if err := loadSecrets(cfg); err != nil {
		return nil, fmt.Errorf("failed to load secrets: %w", err)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadSecrets loads the GitHub App private key when App auth is configured
func loadSecrets(cfg *Config) error {
	if !cfg.Inputs.ReportDeployment || cfg.GitHub.Token != "" || cfg.GitHub.AppID == 0 {
		return nil
	}

	data, err := secrets.LoadFromFile(cfg.GitHub.PrivateKeyPath)
	if err != nil {
		return fmt.Errorf("failed to load GitHub App private key: %w", err)
	}

	key, err := secrets.ParseRSAPrivateKey(data)
	if err != nil {
		return fmt.Errorf("failed to parse GitHub App private key: %w", err)
	}
	cfg.Secrets.GitHubAppKey = key

	return nil
}

func validateConfig(cfg *Config) error {
	if !cfg.Inputs.ReportDeployment {
		return nil
	}

	if cfg.GitHub.Owner() == "" || cfg.GitHub.Repo() == "" {
		return fmt.Errorf("GITHUB_REPOSITORY must be owner/repo to report deployments, got %q", cfg.GitHub.Repository)
	}
	if cfg.GitHub.SHA == "" {
		return fmt.Errorf("GITHUB_SHA is required to report deployments")
	}
	if cfg.GitHub.Token == "" && cfg.Secrets.GitHubAppKey == nil {
		return fmt.Errorf("github-token input or GitHub App credentials are required to report deployments")
	}
	if !IsValidEnvironment(cfg.Inputs.Environment) {
		return fmt.Errorf("unknown environment %q, expected one of %s", cfg.Inputs.Environment, strings.Join(ValidEnvironments(), ", "))
	}
	return nil
}

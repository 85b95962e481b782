package github

import (
	"context"
	"crypto/rsa"
	"fmt"
	"net/http"
	"strings"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v58/github"
	"github.com/rs/zerolog"

	"github.com/imranansari/cloudways-deploy-action/config"
)

// ClientFactory creates authenticated GitHub clients
type ClientFactory struct {
	config     config.GitHubConfig
	privateKey *rsa.PrivateKey
	transport  http.RoundTripper
	logger     zerolog.Logger
	// Cache for installation IDs by owner/repo
	installationCache map[string]int64
}

// NewClientFactory creates a new GitHub client factory
func NewClientFactory(cfg config.GitHubConfig, privateKey *rsa.PrivateKey, logger zerolog.Logger) *ClientFactory {
	return &ClientFactory{
		config:            cfg,
		privateKey:        privateKey,
		transport:         http.DefaultTransport,
		logger:            logger,
		installationCache: make(map[string]int64),
	}
}

// ClientForRepo creates a GitHub client allowed to write deployments to owner/repo.
// A configured token wins; otherwise the GitHub App installation on the repo is used.
func (f *ClientFactory) ClientForRepo(ctx context.Context, owner, repo string) (*github.Client, error) {
	if f.config.Token != "" {
		return f.createTokenClient()
	}
	return f.createInstallationClientForRepo(ctx, owner, repo)
}

// createTokenClient creates a client using the workflow token
func (f *ClientFactory) createTokenClient() (*github.Client, error) {
	client, err := f.newClient(&http.Client{Transport: f.transport})
	if err != nil {
		return nil, err
	}
	client = client.WithAuthToken(f.config.Token)

	f.logger.Debug().
		Str("api_url", f.apiURL()).
		Msg("GitHub token client created")

	return client, nil
}

// createInstallationClientForRepo resolves the App installation for the repository
func (f *ClientFactory) createInstallationClientForRepo(ctx context.Context, owner, repo string) (*github.Client, error) {
	if f.privateKey == nil || f.config.AppID == 0 {
		return nil, fmt.Errorf("GitHub App credentials not configured")
	}

	atr := ghinstallation.NewAppsTransportFromPrivateKey(f.transport, f.config.AppID, f.privateKey)
	atr.BaseURL = f.apiURL()

	cacheKey := owner + "/" + repo
	installationID, exists := f.installationCache[cacheKey]
	if !exists {
		// Create temporary client to find the installation
		appClient, err := f.newClient(&http.Client{Transport: atr})
		if err != nil {
			return nil, err
		}

		installation, _, err := appClient.Apps.FindRepositoryInstallation(ctx, owner, repo)
		if err != nil {
			return nil, fmt.Errorf("failed to find app installation for %s: %w", cacheKey, err)
		}
		installationID = installation.GetID()
		if installationID == 0 {
			return nil, fmt.Errorf("no installation found for repository '%s'", cacheKey)
		}
		f.installationCache[cacheKey] = installationID

		f.logger.Info().
			Int64("app_id", f.config.AppID).
			Int64("installation_id", installationID).
			Str("repository", cacheKey).
			Msg("Found GitHub App installation for repository")
	}

	itr := ghinstallation.NewFromAppsTransport(atr, installationID)
	itr.BaseURL = f.apiURL()

	client, err := f.newClient(&http.Client{Transport: itr})
	if err != nil {
		return nil, err
	}

	f.logger.Debug().
		Int64("app_id", f.config.AppID).
		Int64("installation_id", installationID).
		Msg("GitHub installation client created")

	return client, nil
}

// newClient creates a client pointed at the configured API URL.
// Enterprise runners expose e.g. https://ghe.example.com/api/v3 as GITHUB_API_URL.
func (f *ClientFactory) newClient(httpClient *http.Client) (*github.Client, error) {
	client := github.NewClient(httpClient)
	if f.apiURL() == config.DefaultGitHubAPIURL {
		return client, nil
	}

	baseURL, err := client.BaseURL.Parse(f.apiURL() + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid GitHub API URL %q: %w", f.config.APIURL, err)
	}
	client.BaseURL = baseURL

	return client, nil
}

func (f *ClientFactory) apiURL() string {
	apiURL := strings.TrimSuffix(f.config.APIURL, "/")
	if apiURL == "" {
		return config.DefaultGitHubAPIURL
	}
	return apiURL
}

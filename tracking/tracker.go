// Package tracking mirrors a Cloudways deployment onto the GitHub Deployments
// API so the repository shows what was pulled where.
package tracking

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/go-github/v58/github"
	"github.com/rs/zerolog"

	"github.com/imranansari/cloudways-deploy-action/config"
)

// ClientProvider returns a GitHub client for a repository
type ClientProvider interface {
	ClientForRepo(ctx context.Context, owner, repo string) (*github.Client, error)
}

// Tracker records deployments and their statuses on one repository
type Tracker struct {
	clients ClientProvider
	owner   string
	repo    string
	logger  zerolog.Logger
}

// NewTracker creates a tracker for owner/repo
func NewTracker(clients ClientProvider, owner, repo string, logger zerolog.Logger) *Tracker {
	return &Tracker{
		clients: clients,
		owner:   owner,
		repo:    repo,
		logger:  logger,
	}
}

// CreateDeployment creates a new deployment in GitHub
func (t *Tracker) CreateDeployment(ctx context.Context, input CreateDeploymentInput) (*CreateDeploymentResult, error) {
	t.logger.Info().
		Str("github_owner", t.owner).
		Str("github_repo", t.repo).
		Str("ref", input.Ref).
		Str("environment", input.Environment).
		Msg("Creating GitHub deployment")

	client, err := t.clients.ClientForRepo(ctx, t.owner, t.repo)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}

	payload := map[string]interface{}{
		"triggered_by": "cloudways-deploy-action",
		"created_at":   time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range input.Payload {
		payload[k] = v
	}

	deploymentRequest := &github.DeploymentRequest{
		Ref:                   github.String(input.Ref),
		Task:                  github.String("deploy"),
		Environment:           github.String(input.Environment),
		Description:           github.String(truncateDescription(input.Description, 140)),
		ProductionEnvironment: github.Bool(config.IsProduction(input.Environment)),
		RequiredContexts:      &[]string{}, // The workflow running us is the check
		AutoMerge:             github.Bool(false),
		Payload:               payload,
	}

	deployment, _, err := client.Repositories.CreateDeployment(ctx, t.owner, t.repo, deploymentRequest)
	if err != nil {
		t.logger.Error().Err(err).Msg("Failed to create GitHub deployment")
		return nil, fmt.Errorf("failed to create deployment: %w", err)
	}

	result := &CreateDeploymentResult{
		DeploymentID: deployment.GetID(),
		URL:          deployment.GetURL(),
		Environment:  deployment.GetEnvironment(),
	}

	t.logger.Info().
		Int64("deployment_id", result.DeploymentID).
		Str("url", result.URL).
		Msg("Successfully created GitHub deployment")

	return result, nil
}

// UpdateDeploymentStatus updates the status of a deployment
func (t *Tracker) UpdateDeploymentStatus(ctx context.Context, input UpdateDeploymentStatusInput) error {
	t.logger.Info().
		Int64("deployment_id", input.DeploymentID).
		Str("state", input.State).
		Msg("Updating GitHub deployment status")

	client, err := t.clients.ClientForRepo(ctx, t.owner, t.repo)
	if err != nil {
		return fmt.Errorf("failed to create GitHub client: %w", err)
	}

	statusRequest := &github.DeploymentStatusRequest{
		State:        github.String(input.State),
		Description:  github.String(truncateDescription(input.Description, 140)),
		AutoInactive: github.Bool(true), // Automatically mark previous deployments as inactive
	}
	if input.LogURL != "" {
		statusRequest.LogURL = github.String(input.LogURL)
	}
	if input.EnvironmentURL != "" {
		statusRequest.EnvironmentURL = github.String(input.EnvironmentURL)
	}

	status, _, err := client.Repositories.CreateDeploymentStatus(ctx, t.owner, t.repo, input.DeploymentID, statusRequest)
	if err != nil {
		t.logger.Error().Err(err).
			Str("state", input.State).
			Msg("Failed to update GitHub deployment status")
		return fmt.Errorf("failed to update deployment status: %w", err)
	}

	t.logger.Info().
		Str("state", status.GetState()).
		Str("url", status.GetURL()).
		Msg("Successfully updated GitHub deployment status")

	return nil
}

// truncateDescription ensures description doesn't exceed GitHub's limit of
// maxLen characters. It cuts on rune boundaries so the result stays valid UTF-8.
func truncateDescription(desc string, maxLen int) string {
	if utf8.RuneCountInString(desc) <= maxLen {
		return desc
	}
	runes := []rune(desc)
	return string(runes[:maxLen-3]) + "..."
}

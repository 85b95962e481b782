package main

import (
	"context"
	"os"

	"github.com/google/uuid"

	"github.com/imranansari/cloudways-deploy-action/cloudways"
	"github.com/imranansari/cloudways-deploy-action/config"
	"github.com/imranansari/cloudways-deploy-action/ghaction"
	githubClient "github.com/imranansari/cloudways-deploy-action/github"
	"github.com/imranansari/cloudways-deploy-action/logging"
	"github.com/imranansari/cloudways-deploy-action/tracking"
	"github.com/imranansari/cloudways-deploy-action/workflows"
)

func main() {
	host := ghaction.New()
	run(context.Background(), host)
	os.Exit(host.ExitCode())
}

func run(ctx context.Context, host *ghaction.Host) {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		host.Fail(err.Error())
		return
	}

	// Initialize logger
	logging.InitLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	logger := logging.WorkflowLogger(uuid.NewString(), cfg.GitHub.RunID)

	logger.Info().
		Str("api_url", cfg.Cloudways.APIURL).
		Str("repository", cfg.GitHub.Repository).
		Str("environment", cfg.Inputs.Environment).
		Bool("report_deployment", cfg.Inputs.ReportDeployment).
		Msg("Starting Cloudways deploy action")

	api := cloudways.NewClient(cfg.Cloudways, logging.CloudwaysLogger())
	workflow := workflows.NewDeploymentWorkflow(
		cloudways.NewAuthenticator(api),
		cloudways.NewDeployer(api),
		host,
		logger,
	)

	if cfg.Inputs.ReportDeployment {
		githubLogger := logging.GitHubLogger()
		factory := githubClient.NewClientFactory(cfg.GitHub, cfg.Secrets.GitHubAppKey, githubLogger)
		workflow.WithTracker(tracking.NewTracker(factory, cfg.GitHub.Owner(), cfg.GitHub.Repo(), githubLogger))
	}

	workflow.Run(ctx, workflows.DeploymentWorkflowInput{
		Credentials: cloudways.Credentials{
			Email:  cfg.Inputs.Email,
			APIKey: cfg.Inputs.APIKey,
		},
		Request: cloudways.DeployRequest{
			ServerID:   cfg.Inputs.ServerID,
			AppID:      cfg.Inputs.AppID,
			BranchName: cfg.Inputs.BranchName,
			DeployPath: cfg.Inputs.DeployPath,
		},
		Environment: cfg.Inputs.Environment,
		Ref:         cfg.GitHub.SHA,
		LogURL:      cfg.GitHub.RunURL(),
	})
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/imranansari/cloudways-deploy-action/config"
	githubClient "github.com/imranansari/cloudways-deploy-action/github"
	"github.com/imranansari/cloudways-deploy-action/secrets"
)

// Checks that the GitHub App used for deployment tracking is installed on a
// repository and can read it.
func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	var (
		owner  = flag.String("owner", os.Getenv("TEST_REPO_OWNER"), "Repository owner")
		repo   = flag.String("repo", os.Getenv("TEST_REPO_NAME"), "Repository name")
		apiURL = flag.String("api", config.DefaultGitHubAPIURL, "GitHub API URL")
	)
	flag.Parse()

	if *owner == "" || *repo == "" {
		log.Fatal("Repository owner and name are required")
	}

	appIDStr := os.Getenv("GITHUB_APP_ID")
	if appIDStr == "" {
		log.Fatal("GITHUB_APP_ID not set")
	}
	appID, err := strconv.ParseInt(appIDStr, 10, 64)
	if err != nil {
		log.Fatalf("Invalid GITHUB_APP_ID: %v", err)
	}

	keyData, err := secrets.LoadFromFile(os.Getenv("GITHUB_APP_PRIVATE_KEY_PATH"))
	if err != nil {
		log.Fatalf("Failed to load private key: %v", err)
	}
	key, err := secrets.ParseRSAPrivateKey(keyData)
	if err != nil {
		log.Fatalf("Failed to parse private key: %v", err)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	factory := githubClient.NewClientFactory(config.GitHubConfig{
		APIURL: *apiURL,
		AppID:  appID,
	}, key, logger)

	ctx := context.Background()
	client, err := factory.ClientForRepo(ctx, *owner, *repo)
	if err != nil {
		log.Fatalf("Failed to create installation client: %v", err)
	}

	repository, _, err := client.Repositories.Get(ctx, *owner, *repo)
	if err != nil {
		log.Fatalf("Failed to access repository: %v", err)
	}

	fmt.Printf("✓ Repository found: %s\n", repository.GetFullName())
	fmt.Printf("  Default branch: %s\n", repository.GetDefaultBranch())

	deployments, _, err := client.Repositories.ListDeployments(ctx, *owner, *repo, nil)
	if err != nil {
		log.Fatalf("Failed to list deployments (does the App have deployments:write?): %v", err)
	}
	fmt.Printf("✓ Deployments readable (%d on first page)\n", len(deployments))
}

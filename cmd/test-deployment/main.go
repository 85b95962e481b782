package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/imranansari/cloudways-deploy-action/cloudways"
	"github.com/imranansari/cloudways-deploy-action/config"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Parse command line flags
	var (
		apiURL     = flag.String("api", envOr("CLOUDWAYS_API_URL", config.DefaultAPIURL), "Cloudways API base URL")
		email      = flag.String("email", os.Getenv("CLOUDWAYS_EMAIL"), "Cloudways account email")
		apiKey     = flag.String("api-key", os.Getenv("CLOUDWAYS_API_KEY"), "Cloudways API key")
		serverID   = flag.String("server", os.Getenv("CLOUDWAYS_SERVER_ID"), "Server ID")
		appID      = flag.String("app", os.Getenv("CLOUDWAYS_APP_ID"), "Application ID")
		branch     = flag.String("branch", "main", "Branch to pull")
		deployPath = flag.String("path", "", "Deploy path relative to the application root")
		verbose    = flag.Bool("v", false, "Log API calls")
	)
	flag.Parse()

	// Validate required flags
	if *email == "" || *apiKey == "" {
		log.Fatal("Cloudways email and API key are required")
	}
	if *serverID == "" || *appID == "" {
		log.Fatal("Server and application IDs are required")
	}

	level := zerolog.InfoLevel
	if !*verbose {
		level = zerolog.Disabled
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	api := cloudways.NewClient(config.CloudwaysConfig{APIURL: *apiURL}, logger)
	ctx := context.Background()

	log.Println("=== Authenticating ===")
	token, err := cloudways.NewAuthenticator(api).Authenticate(ctx, cloudways.Credentials{Email: *email, APIKey: *apiKey})
	if err != nil {
		log.Fatalf("Failed to authenticate: %v", err)
	}
	log.Println("✓ Access token obtained")

	log.Println("\n=== Requesting Git Pull ===")
	outcome, err := cloudways.NewDeployer(api).Deploy(ctx, token, cloudways.DeployRequest{
		ServerID:   *serverID,
		AppID:      *appID,
		BranchName: *branch,
		DeployPath: *deployPath,
	})
	if err != nil {
		log.Fatalf("Failed to request git pull: %v", err)
	}

	log.Printf("  Status: %d", outcome.StatusCode)
	log.Printf("  Body: %s", outcome.Raw)
	if err := outcome.Err(); err != nil {
		log.Fatalf("✗ Git pull rejected: %v", err)
	}

	log.Printf("✓ Git pull started!")
	log.Printf("  Operation ID: %s", outcome.Body.OperationID)
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

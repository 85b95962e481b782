package main

import (
	"context"
	"fmt"
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
		log.Println("No .env file found")
	}

	email := os.Getenv("CLOUDWAYS_EMAIL")
	apiKey := os.Getenv("CLOUDWAYS_API_KEY")
	if email == "" || apiKey == "" {
		log.Fatal("CLOUDWAYS_EMAIL and CLOUDWAYS_API_KEY must be set")
	}

	apiURL := os.Getenv("CLOUDWAYS_API_URL")
	if apiURL == "" {
		apiURL = config.DefaultAPIURL
	}

	fmt.Printf("API URL: %s\n", apiURL)
	fmt.Printf("Email: %s\n", email)
	fmt.Printf("API key length: %d\n", len(apiKey))

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	api := cloudways.NewClient(config.CloudwaysConfig{APIURL: apiURL}, logger)

	token, err := cloudways.NewAuthenticator(api).Authenticate(context.Background(), cloudways.Credentials{
		Email:  email,
		APIKey: apiKey,
	})
	if err != nil {
		var kind cloudways.ErrorKind = "unknown"
		for _, k := range []cloudways.ErrorKind{cloudways.KindAuthRejected, cloudways.KindAuthTokenMissing, cloudways.KindTransportOrParsing} {
			if cloudways.IsKind(err, k) {
				kind = k
			}
		}
		log.Fatalf("Authentication failed (%s): %v", kind, err)
	}

	prefix := string(token)
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}

	fmt.Println("\nSuccessfully authenticated!")
	fmt.Printf("Token (first 8 chars): %s...\n", prefix)
	fmt.Printf("Token length: %d\n", len(token))
}

package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ServiceName is attached to every log line
const ServiceName = "cloudways-deploy-action"

// InitLogger initializes zerolog with the specified configuration.
// Logs go to stderr; stdout carries workflow commands for the runner.
func InitLogger(level string, format string) {
	initLogger(os.Stderr, level, format)
}

func initLogger(out io.Writer, level string, format string) {
	// Set time format
	zerolog.TimeFieldFormat = time.RFC3339Nano

	// Parse log level
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	// Configure output format
	if format == "json" {
		log.Logger = zerolog.New(out).With().
			Timestamp().
			Caller().
			Logger()
	} else {
		// Console format (default), readable in the Actions log viewer
		log.Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		}).With().Timestamp().Logger()
	}

	// Add service metadata
	log.Logger = log.With().
		Str("service", ServiceName).
		Logger()
}

// WorkflowLogger creates a logger for one deployment workflow invocation
func WorkflowLogger(invocationID string, runID string) zerolog.Logger {
	return log.With().
		Str("invocation_id", invocationID).
		Str("run_id", runID).
		Str("component", "workflow").
		Logger()
}

// CloudwaysLogger creates a logger for Cloudways API operations
func CloudwaysLogger() zerolog.Logger {
	return log.With().
		Str("component", "cloudways").
		Logger()
}

// GitHubLogger creates a logger for GitHub API operations
func GitHubLogger() zerolog.Logger {
	return log.With().
		Str("component", "github").
		Logger()
}

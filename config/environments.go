package config

// Deployment environments reported to GitHub
const (
	// EnvironmentProduction represents the production environment
	EnvironmentProduction = "production"

	// EnvironmentStaging represents the staging environment
	EnvironmentStaging = "staging"

	// EnvironmentDevelopment represents the development environment
	EnvironmentDevelopment = "development"
)

// ValidEnvironments returns a list of all valid environment names
func ValidEnvironments() []string {
	return []string{
		EnvironmentProduction,
		EnvironmentStaging,
		EnvironmentDevelopment,
	}
}

// IsValidEnvironment checks if the given environment name is valid
func IsValidEnvironment(env string) bool {
	for _, validEnv := range ValidEnvironments() {
		if env == validEnv {
			return true
		}
	}
	return false
}

// IsProduction reports whether deployments to env should be flagged as production
func IsProduction(env string) bool {
	return env == EnvironmentProduction
}

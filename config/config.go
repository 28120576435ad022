package config

const (
	DependencySystem = "MAVEN"

	BaseURL              = "https://api.deps.dev/v3"
	DefaultMaxConcurrent = 10

	DefaultRefreshSchedule = "0 0 * * *"
	DefaultAllowedOrigin   = "http://localhost:5173"
)

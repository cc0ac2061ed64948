package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: OIDC/OAuth2 mapping configuration
//   - database.go: Application database, directory database, Redis
//   - http.go: HTTP server configuration
//   - provisioning.go: Post-login provisioning hooks
type AppConfig struct {
	// IsDev controls development mode behavior.
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// Debug enables verbose pipeline logging.
	Debug bool `env:"DEBUG" envDefault:"false"`

	// SettingsEncryptionKey decrypts the client secret held in the persisted
	// OIDC settings. Required for production, optional for development.
	SettingsEncryptionKey string `env:"SETTINGS_ENCRYPTION_KEY"`

	// OAuth2 claim mapping and provider-quirk configuration
	Auth AuthConfig

	// Database configuration
	Postgres  DBConfig        `envPrefix:"DB_"`
	Directory DirectoryConfig `envPrefix:"DIRECTORY_"`
	Redis     RedisConfig     `envPrefix:"REDIS_"`

	// Post-login provisioning hooks
	Provisioning ProvisioningConfig

	// HTTP server configuration
	HTTP HTTPConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.HTTP.Sanitize()
	c.Directory.Sanitize()
	c.detectDevMode()
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}

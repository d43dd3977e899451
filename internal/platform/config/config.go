// Copyright (c) 2026 VTES Biased. All rights reserved.
// Author: rulings@vtes-biased.org

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, git) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the rulings API server.
type Config struct {

	// Server settings
	SiteURLBase string `env:"SITE_URL_BASE" envDefault:"https://rulings.vtes-biased.org"`
	ServerPort  string `env:"SERVER_PORT"   envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"   envDefault:"development"`
	Debug       bool   `env:"DEBUG"         envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./db/migrations"`

	// Key-Value Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Cryptographic keys for identity signing
	JWTPrivKeyPath string `env:"JWT_PRIVATE_KEY_PATH,required"`
	JWTPubKeyPath  string `env:"JWT_PUBLIC_KEY_PATH,required"`

	// Rulings git repository (the canonical YAML files)
	RulingsGitRemote string `env:"RULINGS_GIT_REMOTE,required"`
	RulingsGitBranch string `env:"RULINGS_GIT_BRANCH" envDefault:"master"`
	RulingsWorkDir   string `env:"RULINGS_WORK_DIR"   envDefault:"./data/rulings"`
	GitSSHKeyPath    string `env:"GIT_SSH_KEY_PATH"`

	// Card catalog source (KRCG static exports)
	CardsURL string `env:"CARDS_URL" envDefault:"https://static.krcg.org/data/vtes.json"`

	// VEKN account API, used to authenticate users
	VeknAPIURL string `env:"VEKN_API_URL" envDefault:"https://www.vekn.net/api/vekn"`

	// Discord webhook receiving proposal submission notes
	DiscordWebhook string `env:"DISCORD_WEBHOOK"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowedOrigins returns the extra CORS origins configured beside the
// canonical site origin, parsed from a comma separated list.
func (c *Config) AllowedOrigins() []string {
	if c.ExtraOrigins == "" {
		return nil
	}
	var origins []string
	for _, origin := range strings.Split(c.ExtraOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

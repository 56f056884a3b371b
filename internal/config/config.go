// Package config loads server settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the server configuration.
type Config struct {
	Port         string `env:"PORT" envDefault:"8080"`
	DBPath       string `env:"DB_PATH" envDefault:"expenses.db"`
	TemplateDir  string `env:"TEMPLATE_DIR" envDefault:"web/templates"`
	StaticDir    string `env:"STATIC_DIR" envDefault:"web/static"`
	SecureCookie bool   `env:"SECURE_COOKIE" envDefault:"false"`
	LogEnv       string `env:"LOG_ENV" envDefault:"dev"`

	// GlobalCategories are template categories visible to every user.
	GlobalCategories []string `env:"GLOBAL_CATEGORIES" envSeparator:","`

	// Optional account created at startup when the database has no users.
	AdminUser     string `env:"ADMIN_USER"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
	AdminEmail    string `env:"ADMIN_EMAIL" envDefault:"admin@localhost.localdomain"`
}

// Load reads envFiles (missing files are ignored) and parses the environment.
// Variables already set in the environment win over .env entries.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if strings.TrimSpace(c.DBPath) == "" {
		problems = append(problems, "database path cannot be empty")
	}

	if c.LogEnv != "dev" && c.LogEnv != "prod" {
		problems = append(problems, fmt.Sprintf("invalid log env '%s': must be 'dev' or 'prod'", c.LogEnv))
	}

	if (c.AdminUser == "") != (c.AdminPassword == "") {
		problems = append(problems, "ADMIN_USER and ADMIN_PASSWORD must be set together")
	}

	for _, name := range c.GlobalCategories {
		if strings.TrimSpace(name) == "" {
			problems = append(problems, "GLOBAL_CATEGORIES contains an empty name")
			break
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

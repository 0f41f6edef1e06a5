package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/jordolang/tunedl/internal/shared"
)

// SetupDatabase initializes the resolution cache database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	config := r.config
	if _, err := os.Stat(configPath); err == nil {
		if loaded, err := shared.LoadConfig(configPath); err == nil {
			config = loaded
		} else {
			r.logger.Warn("failed to load config, using active configuration", "error", err)
		}
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return nil
}

// ConfigInit writes a fresh config file from the bundled template.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("path")

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: config file already exists at %s", shared.ErrInvalidArgument, path)
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	r.logger.Info("config file created", "path", path)
	return r.writePlain("Created %s. Fill in your credentials before running sync.\n", path)
}

// ConfigShow prints the active configuration with credentials redacted.
func (r *Runner) ConfigShow(ctx context.Context, cmd *cli.Command) error {
	redacted := *r.config
	redacted.Credentials.Spotify.ClientSecret = redact(redacted.Credentials.Spotify.ClientSecret)
	redacted.Credentials.AppleMusic.DeveloperToken = redact(redacted.Credentials.AppleMusic.DeveloperToken)
	redacted.Credentials.AppleMusic.UserToken = redact(redacted.Credentials.AppleMusic.UserToken)

	return r.writeJSON(redacted, true)
}

// Services lists the streaming services registered with the library manager.
func (r *Runner) Services(ctx context.Context, cmd *cli.Command) error {
	names := r.library.ListServices()
	if len(names) == 0 {
		return r.writePlain("No services configured. Add credentials to config.toml or .env.\n")
	}

	for _, name := range names {
		if err := r.writePlain("%s\n", name); err != nil {
			return err
		}
	}

	return nil
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/contentforge/internal/models"
	"github.com/desertthunder/contentforge/internal/repositories"
	"github.com/desertthunder/contentforge/internal/shared"
	"github.com/desertthunder/contentforge/internal/tasks"
	"github.com/urfave/cli/v3"
)

const devUserName = "Dev User"

// SetupDatabase creates the config file when missing, initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}
	r.config = config
	r.configPath = configPath

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

	states, err := shared.MigrationStatus(db)
	if err != nil {
		return fmt.Errorf("failed to read migration status: %w", err)
	}
	for _, s := range states {
		r.logger.Debug("migration", "version", s.Version, "name", s.Name, "applied", s.AppliedAt != nil)
	}

	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return nil
}

// Seed creates the configured dev user and optionally a demo project for it.
func (r *Runner) Seed(ctx context.Context, cmd *cli.Command) error {
	plan := models.Plan(strings.ToUpper(cmd.String("plan")))
	if !plan.Valid() {
		return fmt.Errorf("%w: unknown plan %q", shared.ErrInvalidArgument, cmd.String("plan"))
	}

	db, closeDB, err := r.openDB(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	users := repositories.NewUserRepository(db)
	user, err := users.EnsureUser(ctx, r.config.App.DevUserEmail, devUserName, plan)
	if err != nil {
		return fmt.Errorf("failed to create dev user: %w", err)
	}
	if user.Plan != plan {
		if err := users.SetPlan(ctx, user.ID, plan); err != nil {
			return err
		}
		user.Plan = plan
	}
	r.logger.Info("dev user ready", "id", user.ID, "email", user.Email, "plan", user.Plan)

	r.writePlain("User:  %s <%s>\n", user.ID, user.Email)
	r.writePlain("Plan:  %s\n", user.Plan.Label())

	if cmd.Bool("demo") {
		project, err := tasks.NewDemo(db, r.logger).Create(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("failed to create demo project: %w", err)
		}
		r.writePlain("Demo:  %s (%d outputs)\n", project.ID, len(project.Outputs))
	}
	return nil
}

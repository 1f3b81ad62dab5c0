package main

import (
	"fmt"

	"socialhub/internal/cache"
	"socialhub/internal/config"
	"socialhub/internal/database"
	"socialhub/internal/middleware"
	"socialhub/internal/repository"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:           "admin",
	Short:         "Maintenance commands for the socialhub backend.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		middleware.Configure(cfg.Env, cfg.LogLevel, cfg.LogFile)
		deps.cfg = cfg
		return nil
	},
}

// deps is filled once config is loaded; connections open lazily per command.
var deps struct {
	cfg *config.Config
}

func openDB() (*gorm.DB, error) {
	db, err := database.ConnectWithOptions(deps.cfg, database.ConnectOptions{SkipSchema: true})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

// userRepository caches through Redis when it is reachable so that deletes
// also drop cached profiles.
func userRepository(db *gorm.DB) repository.UserRepository {
	return repository.NewUserRepository(db, cache.NewStore(cache.Connect(deps.cfg.RedisURL)))
}

// Package bootstrap wires the runtime dependencies shared by the server and tools.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"socialhub/internal/cache"
	"socialhub/internal/config"
	"socialhub/internal/database"
	"socialhub/internal/middleware"
	"socialhub/internal/models"
	"socialhub/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemo fills an empty development database with the demo preset.
	SeedDemo bool
}

// InitRuntime connects to the database and Redis and optionally seeds demo data.
// A nil Redis client means Redis was unreachable.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	r := cache.Connect(cfg.RedisURL)

	if opts.SeedDemo {
		if err := ensureDemoData(cfg, db); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return db, r, nil
}

// ensureDemoData seeds only in development and only into a database without users.
func ensureDemoData(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil || cfg.Env != "development" {
		return nil
	}

	var users int64
	if err := db.WithContext(context.Background()).Model(&models.User{}).Count(&users).Error; err != nil {
		return err
	}
	if users > 0 {
		middleware.Logger.Info("demo seed skipped, database already has users", slog.Int64("users", users))
		return nil
	}

	stats, err := seed.NewSeeder(db, seed.Options{SkipBcrypt: true}).ApplyPreset(seed.BuiltInPresets["demo"])
	if err != nil {
		return err
	}
	middleware.Logger.Info("demo data seeded", slog.String("stats", stats.String()))
	return nil
}

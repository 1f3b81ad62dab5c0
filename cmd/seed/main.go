// Command seed fills the database with sample users, posts and engagement.
package main

import (
	"flag"
	"log"
	"strings"

	"socialhub/internal/config"
	"socialhub/internal/database"
	"socialhub/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numPosts := flag.Int("posts", 200, "Number of posts to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	preset := flag.String("preset", "", "Apply a named preset (overrides -users and -posts)")
	presetsFile := flag.String("presets-file", "", "YAML file with additional presets")
	fast := flag.Bool("fast", false, "Hash passwords with the minimum bcrypt cost")
	dryRun := flag.Bool("dry-run", false, "Build entities without writing them")
	randSeed := flag.Int64("seed", 0, "Random seed for reproducible runs (0 = time based)")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Env == "production" {
		log.Fatal("❌ Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	opts := seed.Options{
		NumUsers:    *numUsers,
		NumPosts:    *numPosts,
		ShouldClean: *shouldClean,
		SkipBcrypt:  *fast,
		DryRun:      *dryRun,
		Seed:        *randSeed,
	}
	s := seed.NewSeeder(db, opts)

	var stats seed.Stats
	if *preset != "" {
		presets, err := seed.LoadPresetFile(*presetsFile)
		if err != nil {
			log.Fatalf("❌ Loading presets failed: %v", err)
		}
		p, ok := presets[*preset]
		if !ok {
			log.Fatalf("❌ Unknown preset %q (available: %s)", *preset, strings.Join(seed.PresetNames(presets), ", "))
		}
		log.Printf("Applying preset: %s (%d users, %d posts)", p.Name, p.Users, p.Posts)
		stats, err = s.ApplyPreset(p)
		if err != nil {
			log.Fatalf("❌ Preset seeding failed: %v", err)
		}
	} else {
		log.Printf("Target: %d users, %d posts, clean=%v", *numUsers, *numPosts, *shouldClean)
		stats, err = s.Run()
		if err != nil {
			log.Fatalf("❌ Seeding failed: %v", err)
		}
	}

	log.Printf("✨ All done! %s", stats)
	log.Printf("📧 All seeded users have the password: %s", seed.DefaultPassword)
}

// Command main runs the database seeder for Diorama.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"

	"diorama/internal/config"
	"diorama/internal/database"
	"diorama/internal/seed"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// ensureDatabase creates the target database if it does not exist yet, so a
// fresh checkout can seed without manual psql steps. Connects to the
// maintenance database because Postgres cannot create a database from within
// itself.
func ensureDatabase(cfg *config.Config) error {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/postgres?sslmode=%s",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBSSLMode)
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open maintenance db: %w", err)
	}
	defer func() { _ = sqlDB.Close() }()

	ctx := context.Background()
	var exists bool
	err = sqlDB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`, cfg.DBName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check database existence: %w", err)
	}
	if exists {
		return nil
	}

	log.Printf("Database %q does not exist, creating it", cfg.DBName)
	if _, err := sqlDB.ExecContext(ctx, `CREATE DATABASE `+cfg.DBName); err != nil {
		return fmt.Errorf("create database: %w", err)
	}
	return nil
}

func main() {
	// Parse command line flags
	numUsers := flag.Int("users", 50, "Number of users to create")
	numPosts := flag.Int("posts", 200, "Number of posts to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	maxDays := flag.Int("max-days", 90, "Spread created_at timestamps over the past N days")
	skipBcrypt := flag.Bool("skip-bcrypt", false, "Store plaintext demo passwords (fast, local only)")
	dryRun := flag.Bool("dry-run", false, "Log what would be created without writing")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users, %d posts, clean=%v\n", *numUsers, *numPosts, *shouldClean)

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := ensureDatabase(cfg); err != nil {
		log.Fatalf("Failed to prepare database: %v", err)
	}

	// Connect to database
	if _, err = database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(database.DB, seed.Options{
		NumUsers:    *numUsers,
		NumPosts:    *numPosts,
		ShouldClean: *shouldClean,
		MaxDays:     *maxDays,
		SkipBcrypt:  *skipBcrypt,
		DryRun:      *dryRun,
	})

	if err := s.Run(); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Println("✨ All done! Your database is now populated with test data.")
	log.Println("📧 All test users have the password: password123")
}

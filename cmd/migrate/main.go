package main

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"musicatlas/internal/logging"
)

const usage = "usage: migrate [up|down|version|force <version>]"

func main() {
	logging.SetGlobalLogger(logging.New(logging.Config{Level: "info", Format: "text", Output: os.Stderr}))
	_ = godotenv.Load(".env", "config/local.env")

	if len(os.Args) < 2 {
		log.Fatal().Msg(usage)
	}

	dsn, err := databaseURL()
	if err != nil {
		log.Fatal().Err(err).Msg("resolve database")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to database")
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("create postgres driver")
	}

	sourceURL, err := migrationsSource()
	if err != nil {
		log.Fatal().Err(err).Msg("locate migrations")
	}
	m, err := migrate.NewWithDatabaseInstance(sourceURL, "postgres", driver)
	if err != nil {
		log.Fatal().Err(err).Msg("create migrate instance")
	}

	if err := apply(m, os.Args[1:]); err != nil {
		log.Fatal().Err(err).Str("command", os.Args[1]).Msg("migration failed")
	}
}

func apply(m *migrate.Migrate, args []string) error {
	switch args[0] {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
		log.Info().Msg("Migrations applied successfully")
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
		log.Info().Msg("Migrations rolled back successfully")
	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			log.Info().Msg("no migrations applied")
			return nil
		}
		if err != nil {
			return err
		}
		log.Info().Uint("version", version).Bool("dirty", dirty).Msg("current schema version")
	case "force":
		if len(args) != 2 {
			return errors.New(usage)
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[1], err)
		}
		if err := m.Force(version); err != nil {
			return err
		}
		log.Info().Int("version", version).Msg("schema version forced")
	default:
		return errors.New(usage)
	}
	return nil
}

func databaseURL() (string, error) {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn, nil
	}

	user, name := os.Getenv("DB_USER"), os.Getenv("DB_NAME")
	if user == "" || name == "" {
		return "", errors.New("DATABASE_URL is required (or DB_HOST, DB_USER, DB_NAME)")
	}
	host := os.Getenv("DB_HOST")
	if host == "" {
		host = "localhost"
	}
	port := os.Getenv("DB_PORT")
	if port == "" {
		port = "5432"
	}
	sslMode := os.Getenv("DB_SSLMODE")
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, os.Getenv("DB_PASSWORD"), name, sslMode), nil
}

// migrationsSource resolves MIGRATIONS_DIR (default ./migrations) into a file:// URL.
func migrationsSource() (string, error) {
	dir := os.Getenv("MIGRATIONS_DIR")
	if dir == "" {
		dir = "migrations"
	}
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("get absolute path: %w", err)
	}
	if _, err := os.Stat(absPath); err != nil {
		return "", err
	}
	return fmt.Sprintf("file://%s", filepath.ToSlash(absPath)), nil
}

package main

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/pageza/mealplango/backend/internal/database"
)

var (
	dsn           string
	migrationsDir string
)

func main() {
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Apply and roll back MealPlanGo schema migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dsn, "database-url", os.Getenv("DATABASE_URL"), "Postgres connection string")
	root.PersistentFlags().StringVar(&migrationsDir, "dir", "migrations", "migrations directory")

	root.AddCommand(
		&cobra.Command{Use: "up", Short: "Apply pending migrations", RunE: withDB(up)},
		&cobra.Command{Use: "down", Short: "Roll back the last applied migration", RunE: withDB(down)},
		&cobra.Command{Use: "status", Short: "List migrations and whether they are applied", RunE: withDB(status)},
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func withDB(fn func(cmd *cobra.Command, db *sql.DB) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		if dsn == "" {
			return errors.New("DATABASE_URL environment variable is not set")
		}
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		if _, err := db.ExecContext(cmd.Context(), `
			CREATE TABLE IF NOT EXISTS schema_migrations (
				id SERIAL PRIMARY KEY,
				name VARCHAR(255) NOT NULL UNIQUE,
				applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`); err != nil {
			return fmt.Errorf("failed to create migrations table: %w", err)
		}
		return fn(cmd, db)
	}
}

func applied(cmd *cobra.Command, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(cmd.Context(), "SELECT name FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read migration status: %w", err)
	}
	defer rows.Close()

	done := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		done[name] = true
	}
	return done, rows.Err()
}

func up(cmd *cobra.Command, db *sql.DB) error {
	files, err := database.MigrationFiles(migrationsDir)
	if err != nil {
		return err
	}
	done, err := applied(cmd, db)
	if err != nil {
		return err
	}

	for _, name := range files {
		if done[name] {
			fmt.Printf("Migration already applied: %s\n", name)
			continue
		}
		if err := execFile(cmd, db, name, "INSERT INTO schema_migrations (name) VALUES ($1)", name); err != nil {
			return err
		}
		fmt.Printf("Successfully applied migration: %s\n", name)
	}
	fmt.Println("All migrations applied successfully.")
	return nil
}

func down(cmd *cobra.Command, db *sql.DB) error {
	var last string
	err := db.QueryRowContext(cmd.Context(),
		"SELECT name FROM schema_migrations ORDER BY applied_at DESC, id DESC LIMIT 1").Scan(&last)
	if errors.Is(err, sql.ErrNoRows) {
		return errors.New("no migrations to roll back")
	}
	if err != nil {
		return fmt.Errorf("failed to get last migration: %w", err)
	}

	rollback := strings.TrimSuffix(last, ".sql") + "_rollback.sql"
	if err := execFile(cmd, db, rollback, "DELETE FROM schema_migrations WHERE name = $1", last); err != nil {
		return err
	}
	fmt.Printf("Successfully rolled back migration: %s\n", last)
	return nil
}

func status(cmd *cobra.Command, db *sql.DB) error {
	files, err := database.MigrationFiles(migrationsDir)
	if err != nil {
		return err
	}
	done, err := applied(cmd, db)
	if err != nil {
		return err
	}
	for _, name := range files {
		state := "pending"
		if done[name] {
			state = "applied"
		}
		fmt.Printf("%-8s %s\n", state, name)
	}
	return nil
}

// execFile runs a migration file and its bookkeeping statement in one transaction.
func execFile(cmd *cobra.Command, db *sql.DB, file, record, name string) error {
	content, err := os.ReadFile(filepath.Join(migrationsDir, file))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", file, err)
	}

	tx, err := db.BeginTx(cmd.Context(), nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(cmd.Context(), string(content)); err != nil {
		return fmt.Errorf("failed to execute %s: %w", file, err)
	}
	if _, err := tx.ExecContext(cmd.Context(), record, name); err != nil {
		return fmt.Errorf("failed to record %s: %w", name, err)
	}
	return tx.Commit()
}

package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/crewvitals/vigil/internal/api"
	dbstore "github.com/crewvitals/vigil/internal/db"
)

func sqliteDSN(path string) string {
	return fmt.Sprintf("file:%s?cache=shared&_busy_timeout=5000", filepath.ToSlash(path))
}

// MigrateIfNeeded performs a one-time import of a legacy JSON snapshot into a
// fresh sqlite database. An existing sqlite file means the import already
// happened; a missing snapshot means there is nothing to import.
func MigrateIfNeeded(snapshotPath, sqlitePath string) error {
	if sqlitePath == "" {
		return errors.New("sqlite path is required")
	}
	if _, err := os.Stat(sqlitePath); err == nil {
		return nil // already migrated
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("check sqlite file: %w", err)
	}
	if snapshotPath == "" {
		return nil
	}
	if _, err := os.Stat(snapshotPath); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	log.Printf("First run detected, importing legacy snapshot %s...", snapshotPath)

	legacy := api.NewMemoryStore(snapshotPath)
	users, checkins, session := legacy.Snapshot()
	if len(users) == 0 && len(checkins) == 0 && session == nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(sqlitePath), 0o755); err != nil {
		return fmt.Errorf("create sqlite dir: %w", err)
	}
	sqliteDB, err := sql.Open("sqlite3", sqliteDSN(sqlitePath))
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer func() {
		if cerr := sqliteDB.Close(); cerr != nil {
			log.Printf("warning: failed to close sqlite db: %v", cerr)
		}
	}()

	if err := dbstore.RunMigrations(sqliteDB, os.Getenv("VIGIL_MIGRATIONS_DIR")); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	dst, err := dbstore.NewSQLiteStore(sqliteDB)
	if err != nil {
		return fmt.Errorf("init sqlite store: %w", err)
	}

	for _, u := range users {
		if u != nil {
			dst.AddUser(u)
		}
	}
	// Oldest first so sqlite insertion order reproduces the log order.
	for i := len(checkins) - 1; i >= 0; i-- {
		if checkins[i] != nil {
			dst.AddCheckIn(checkins[i])
		}
	}
	if session != nil {
		dst.SaveSession(session)
	}

	log.Printf("Snapshot import completed successfully.")
	return nil
}

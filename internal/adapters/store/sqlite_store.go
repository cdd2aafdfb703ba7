package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/llm-email-triage/internal/core"
	"go.uber.org/zap"
)

// SQLiteStore is a SQLite implementation of the ProfileStore interface
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore creates a new SQLite profile store
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Create table if it doesn't exist
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS company_profiles (
			config_id TEXT PRIMARY KEY,
			company_name TEXT NOT NULL,
			custom_instructions TEXT,
			created_at TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger,
	}, nil
}

// Save stores a profile, assigning an id when none is given
func (s *SQLiteStore) Save(ctx context.Context, profile *core.CompanyProfile) (*core.CompanyProfile, error) {
	stored := *profile
	if stored.ConfigID == "" {
		stored.ConfigID = newConfigID()
		stored.CreatedAt = time.Now().UTC()
	} else {
		var createdAt time.Time
		err := s.db.QueryRowContext(ctx, `
			SELECT created_at FROM company_profiles WHERE config_id = ?
		`, stored.ConfigID).Scan(&createdAt)
		switch {
		case err == sql.ErrNoRows:
			if stored.CreatedAt.IsZero() {
				stored.CreatedAt = time.Now().UTC()
			}
		case err != nil:
			return nil, fmt.Errorf("failed to query profile: %w", err)
		default:
			stored.CreatedAt = createdAt
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO company_profiles
		(config_id, company_name, custom_instructions, created_at)
		VALUES (?, ?, ?, ?)
	`, stored.ConfigID, stored.CompanyName, stored.CustomInstructions, stored.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	s.logger.Debug("Saved company profile",
		zap.String("config_id", stored.ConfigID),
		zap.String("company_name", stored.CompanyName))
	return &stored, nil
}

// Get retrieves a profile by config id
func (s *SQLiteStore) Get(ctx context.Context, configID string) (*core.CompanyProfile, error) {
	profile := &core.CompanyProfile{ConfigID: configID}

	err := s.db.QueryRowContext(ctx, `
		SELECT company_name, custom_instructions, created_at
		FROM company_profiles
		WHERE config_id = ?
	`, configID).Scan(&profile.CompanyName, &profile.CustomInstructions, &profile.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}

	return profile, nil
}

// Delete removes a profile
func (s *SQLiteStore) Delete(ctx context.Context, configID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM company_profiles WHERE config_id = ?
	`, configID)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/mikey/llm-email-triage/internal/core"
	"go.uber.org/zap"
)

// MySQLStore is a MySQL implementation of the ProfileStore interface
type MySQLStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMySQLStore creates a new MySQL profile store
func NewMySQLStore(dsn string, logger *zap.Logger) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS company_profiles (
			config_id VARCHAR(64) PRIMARY KEY,
			company_name VARCHAR(255) NOT NULL,
			custom_instructions TEXT,
			created_at TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &MySQLStore{
		db:     db,
		logger: logger,
	}, nil
}

// Save stores a profile, assigning an id when none is given
func (s *MySQLStore) Save(ctx context.Context, profile *core.CompanyProfile) (*core.CompanyProfile, error) {
	stored := *profile
	if stored.ConfigID == "" {
		stored.ConfigID = newConfigID()
		stored.CreatedAt = time.Now().UTC()
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO company_profiles
		(config_id, company_name, custom_instructions, created_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
		company_name = VALUES(company_name),
		custom_instructions = VALUES(custom_instructions)
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
func (s *MySQLStore) Get(ctx context.Context, configID string) (*core.CompanyProfile, error) {
	profile := &core.CompanyProfile{ConfigID: configID}
	var createdAt time.Time

	err := s.db.QueryRowContext(ctx, `
		SELECT company_name, custom_instructions, created_at
		FROM company_profiles
		WHERE config_id = ?
	`, configID).Scan(&profile.CompanyName, &profile.CustomInstructions, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}

	profile.CreatedAt = createdAt
	return profile, nil
}

// Delete removes a profile
func (s *MySQLStore) Delete(ctx context.Context, configID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM company_profiles WHERE config_id = ?
	`, configID)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *MySQLStore) Close() error {
	return s.db.Close()
}

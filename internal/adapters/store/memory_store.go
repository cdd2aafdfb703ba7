package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mikey/llm-email-triage/internal/core"
	"go.uber.org/zap"
)

// newConfigID assigns the short uppercase ids handed to clients
func newConfigID() string {
	return strings.ToUpper(uuid.NewString()[:8])
}

// MemoryStore is an in-memory implementation of the ProfileStore interface
type MemoryStore struct {
	profiles map[string]*core.CompanyProfile
	mu       sync.RWMutex
	logger   *zap.Logger
}

// NewMemoryStore creates a new in-memory profile store
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]*core.CompanyProfile),
		logger:   logger,
	}
}

// Save stores a profile, assigning an id when none is given
func (s *MemoryStore) Save(_ context.Context, profile *core.CompanyProfile) (*core.CompanyProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *profile
	if stored.ConfigID == "" {
		stored.ConfigID = newConfigID()
		stored.CreatedAt = time.Now().UTC()
	} else if prev, ok := s.profiles[stored.ConfigID]; ok {
		stored.CreatedAt = prev.CreatedAt
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	s.profiles[stored.ConfigID] = &stored
	s.logger.Debug("Saved company profile",
		zap.String("config_id", stored.ConfigID),
		zap.String("company_name", stored.CompanyName))
	return &stored, nil
}

// Get retrieves a profile by config id
func (s *MemoryStore) Get(_ context.Context, configID string) (*core.CompanyProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[configID]
	if !ok {
		return nil, core.ErrProfileNotFound
	}
	copied := *profile
	return &copied, nil
}

// Delete removes a profile
func (s *MemoryStore) Delete(_ context.Context, configID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.profiles, configID)
	return nil
}

// Close is a no-op for the in-memory store
func (s *MemoryStore) Close() error {
	return nil
}

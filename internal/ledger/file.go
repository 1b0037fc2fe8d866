package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"tokenEngine/internal/model"
)

// FileStore persists the ledger as a single JSON snapshot. Both
// collections live in one file so a write can never leave them split
// across inconsistent versions.
type FileStore struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewFileStore creates a file-backed store at path.
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{path: path, logger: logger}
}

// Load reads the snapshot. Missing or unparseable files yield an empty
// ledger.
func (s *FileStore) Load(_ context.Context) (model.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(), nil
}

func (s *FileStore) loadLocked() model.Ledger {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("ledger read failed, starting empty", zap.String("path", s.path), zap.Error(err))
		}
		return model.Ledger{}
	}

	var led model.Ledger
	if err := json.Unmarshal(data, &led); err != nil {
		s.logger.Warn("ledger parse failed, starting empty", zap.String("path", s.path), zap.Error(err))
		return model.Ledger{}
	}
	return led
}

// SaveDeployments replaces the deployments collection and persists the
// whole snapshot.
func (s *FileStore) SaveDeployments(_ context.Context, deployments []model.Deployment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	led := s.loadLocked()
	led.Deployments = deployments
	return s.writeLocked(led)
}

// SaveEvents replaces the issuance event collection and persists the
// whole snapshot.
func (s *FileStore) SaveEvents(_ context.Context, events []model.IssuanceEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	led := s.loadLocked()
	led.Events = events
	return s.writeLocked(led)
}

func (s *FileStore) writeLocked(led model.Ledger) error {
	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create ledger dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(led, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write ledger tmp: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("rename ledger: %w", err)
	}
	return nil
}

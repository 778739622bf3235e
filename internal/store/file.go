// Package store reads and writes the per-user flat files shared with the
// config service.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"go-goodhr-automation/internal/models"
)

var (
	ErrMalformed       = models.ErrMalformed
	ErrUserNotFound    = models.ErrUserNotFound
	ErrRuleSetNotFound = models.ErrRuleSetNotFound
	ErrInvalidPhone    = errors.New("invalid phone number")
	ErrUserExists      = errors.New("user config already exists")
)

var phonePattern = regexp.MustCompile(`^1[3-9]\d{9}$`)

const stampLayout = "2006-01-02 15:04:05"

// ValidatePhone checks a mainland mobile number, which doubles as the user ID.
func ValidatePhone(phone string) error {
	if !phonePattern.MatchString(phone) {
		return fmt.Errorf("%w: %q", ErrInvalidPhone, phone)
	}
	return nil
}

// FileStore keeps one JSON document per user under <dataDir>/users.
// Every read goes to disk so edits made by the panel apply to the next
// candidate without a restart.
type FileStore struct {
	mu  sync.Mutex
	dir string
	now func() time.Time
}

// NewFileStore creates the users directory if needed.
func NewFileStore(dataDir string) (*FileStore, error) {
	dir := filepath.Join(dataDir, "users")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create users directory: %w", err)
	}
	return &FileStore{dir: dir, now: time.Now}, nil
}

func (s *FileStore) path(userID string) string {
	return filepath.Join(s.dir, userID+".json")
}

// Load reads and validates the user's config.
func (s *FileStore) Load(ctx context.Context, userID string) (*models.UserConfig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidatePhone(userID); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(userID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
		}
		return nil, fmt.Errorf("failed to read config for %s: %w", userID, err)
	}

	cfg := &models.UserConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		if errors.Is(err, ErrMalformed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, userID, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save replaces the whole document.
func (s *FileStore) Save(ctx context.Context, userID string, cfg *models.UserConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidatePhone(userID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg.UpdatedAt = s.now().Format(stampLayout)
	data, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return s.writeFile(userID, data)
}

// CreateDefault writes a fresh config for a new user. It refuses to touch an
// existing file.
func (s *FileStore) CreateDefault(ctx context.Context, userID string, today models.Date) (*models.UserConfig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidatePhone(userID); err != nil {
		return nil, err
	}
	if _, err := os.Stat(s.path(userID)); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrUserExists, userID)
	}

	quota := models.DefaultQuotaState(today)
	stamp := s.now().Format(stampLayout)
	cfg := &models.UserConfig{
		Username:     userID,
		Version:      quota.Version,
		Platform:     "boss",
		JobsData:     json.RawMessage(`[]`),
		KeywordsData: models.KeywordsData{},
		Versions:     quota.Versions,
		CreatedAt:    stamp,
	}
	if err := s.Save(ctx, userID, cfg); err != nil {
		return nil, err
	}
	log.Printf("📝 Created default config for %s", userID)
	return cfg, nil
}

// Snapshot reads the user file once and resolves the selected position's
// rules, click policy and greet cap from that single version of it.
func (s *FileStore) Snapshot(ctx context.Context, userID string) (models.RuleSnapshot, error) {
	cfg, err := s.Load(ctx, userID)
	if err != nil {
		return models.RuleSnapshot{}, err
	}
	return cfg.RuleSnapshot(cfg.Position())
}

func (s *FileStore) QuotaState(ctx context.Context, userID string) (*models.QuotaState, error) {
	cfg, err := s.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return cfg.QuotaState(), nil
}

// SaveQuotaState rewrites only the version fields and leaves every other key
// of the document as the config service wrote it.
func (s *FileStore) SaveQuotaState(ctx context.Context, userID string, state *models.QuotaState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := state.Validate(); err != nil {
		return err
	}
	if err := ValidatePhone(userID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(userID))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrUserNotFound, userID)
		}
		return fmt.Errorf("failed to read config for %s: %w", userID, err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, userID, err)
	}

	fields := map[string]any{
		"version":    state.Version,
		"versions":   state.Versions,
		"updated_at": s.now().Format(stampLayout),
	}
	for key, v := range fields {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", key, err)
		}
		doc[key] = raw
	}

	out, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return s.writeFile(userID, out)
}

// writeFile replaces the document through a temp file so readers never see
// a half-written config.
func (s *FileStore) writeFile(userID string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, userID+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Rename(tmpName, s.path(userID)); err != nil {
		return fmt.Errorf("failed to replace config: %w", err)
	}
	return nil
}

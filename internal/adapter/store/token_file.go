package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/berfenger/vivint2mqtt/internal/core/port"
)

const schemaVersion = 1

type tokenFile struct {
	SchemaVersion int    `json:"schema_version"`
	RefreshToken  string `json:"refresh_token"`
}

// FileTokenStore keeps the refresh token in a JSON file with owner-only
// permissions.
type FileTokenStore struct {
	Path string
}

func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{Path: path}
}

// Load returns the persisted token, or an empty string when no token has
// been saved yet.
func (s *FileTokenStore) Load() (string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read token file: %w", err)
	}
	var file tokenFile
	if err := json.Unmarshal(data, &file); err != nil {
		return "", fmt.Errorf("decode token file: %w", err)
	}
	if file.SchemaVersion != schemaVersion {
		return "", fmt.Errorf("unsupported token file schema_version: %d", file.SchemaVersion)
	}
	return file.RefreshToken, nil
}

func (s *FileTokenStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("mkdir token dir: %w", err)
	}
	data, err := json.MarshalIndent(tokenFile{SchemaVersion: schemaVersion, RefreshToken: token}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal token file: %w", err)
	}
	return os.WriteFile(s.Path, data, 0o600)
}

func (s *FileTokenStore) Clear() error {
	err := os.Remove(s.Path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}

// ensure interface compliance
var _ port.TokenStore = (*FileTokenStore)(nil)

// Package tokenstore persists the client session on disk.
package tokenstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/celerix-dev/celerix-builder/internal/vault"
	"github.com/celerix-dev/celerix-builder/pkg/schema"
)

// FileName is the session file inside the state directory.
const FileName = "session.json"

// FileStore handles the disk I/O for one persisted session.
type FileStore struct {
	Dir string
	key []byte
	mu  sync.Mutex // Protects concurrent writes to the filesystem
}

// New initializes a file store. A non-empty passphrase seals the file.
func New(dir, passphrase string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	s := &FileStore{Dir: dir}
	if passphrase != "" {
		s.key = vault.KeyFromPassphrase(passphrase)
	}
	return s, nil
}

// Path returns the session file path.
func (s *FileStore) Path() string {
	return filepath.Join(s.Dir, FileName)
}

// Save writes the session atomically: temp file first, then rename, so a
// crash leaves either the old session or the new one.
func (s *FileStore) Save(sess schema.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	if s.key != nil {
		sealed, err := vault.Seal(data, s.key)
		if err != nil {
			return fmt.Errorf("seal session: %w", err)
		}
		data = []byte(sealed)
	}

	tempPath := s.Path() + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return err
	}
	return os.Rename(tempPath, s.Path())
}

// Load returns schema.ErrNoSession when no session file exists.
func (s *FileStore) Load() (schema.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.Path())
	if errors.Is(err, os.ErrNotExist) {
		return schema.Session{}, schema.ErrNoSession
	}
	if err != nil {
		return schema.Session{}, err
	}

	if s.key != nil {
		data, err = vault.Open(strings.TrimSpace(string(data)), s.key)
		if err != nil {
			return schema.Session{}, fmt.Errorf("unseal session: %w", err)
		}
	}

	var sess schema.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return schema.Session{}, fmt.Errorf("corrupt session file: %w", err)
	}
	if sess.AccessToken == "" {
		return schema.Session{}, schema.ErrNoSession
	}
	return sess, nil
}

// Clear removes the session file. Clearing an absent session is not an error.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

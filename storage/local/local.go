// Package local implements storage.Storage on an afero filesystem.
package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/kbukum/voicescribe/logger"
	"github.com/kbukum/voicescribe/storage"
)

const (
	dirMode  = 0o755
	fileMode = 0o644
)

// Storage keeps working files in a single directory of an afero.Fs.
type Storage struct {
	fs       afero.Fs
	basePath string
	log      *logger.Logger
}

// NewStorage creates the storage and makes sure basePath exists. Creating the
// directory is logged once; an existing directory is not an error.
func NewStorage(fs afero.Fs, basePath string, log *logger.Logger) (*Storage, error) {
	if log == nil {
		log = logger.Nop()
	}
	s := &Storage{fs: fs, basePath: filepath.Clean(basePath), log: log}
	if err := s.ensureDir(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Storage) ensureDir() error {
	exists, err := afero.DirExists(s.fs, s.basePath)
	if err != nil {
		return fmt.Errorf("storage: stat base directory: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.fs.MkdirAll(s.basePath, dirMode); err != nil {
		return fmt.Errorf("storage: create base directory: %w", err)
	}
	s.log.Info(fmt.Sprintf("Created '%s' directory", s.basePath), logger.Fields(logger.FieldPath, s.basePath))
	return nil
}

// resolve maps a key to a path inside basePath. Keys are single file names.
func (s *Storage) resolve(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("storage: invalid key %q", key)
	}
	return filepath.Join(s.basePath, key), nil
}

// Path returns basePath/key.
func (s *Storage) Path(key string) string {
	return filepath.Join(s.basePath, key)
}

// Upload writes data to basePath/key, truncating any previous content.
func (s *Storage) Upload(_ context.Context, key string, data []byte) error {
	p, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := afero.WriteFile(s.fs, p, data, fileMode); err != nil {
		return fmt.Errorf("storage: write file: %w", err)
	}
	return nil
}

// Download reads basePath/key.
func (s *Storage) Download(_ context.Context, key string) ([]byte, error) {
	p, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, key)
		}
		return nil, fmt.Errorf("storage: read file: %w", err)
	}
	return data, nil
}

// Delete removes basePath/key. Returns nil if the file does not exist.
func (s *Storage) Delete(_ context.Context, key string) error {
	p, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: delete file: %w", err)
	}
	return nil
}

// Exists checks whether basePath/key exists.
func (s *Storage) Exists(_ context.Context, key string) (bool, error) {
	p, err := s.resolve(key)
	if err != nil {
		return false, err
	}
	ok, err := afero.Exists(s.fs, p)
	if err != nil {
		return false, fmt.Errorf("storage: stat file: %w", err)
	}
	return ok, nil
}

// Check verifies the base directory is still present.
func (s *Storage) Check(_ context.Context) error {
	ok, err := afero.DirExists(s.fs, s.basePath)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("storage: %s is missing", s.basePath)
	}
	return nil
}

// Fs returns the underlying filesystem.
func (s *Storage) Fs() afero.Fs {
	return s.fs
}

var (
	_ storage.Storage = (*Storage)(nil)
	_ storage.Checker = (*Storage)(nil)
)

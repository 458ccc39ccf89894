// Package modelstore persists model artifacts on the filesystem.
package modelstore

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/phishguard/phishing-filter/internal/ml"
)

// ErrArtifactNotFound is returned by Load when no artifact exists at the path.
var ErrArtifactNotFound = errors.New("model artifact not found")

// Store reads and writes serialized model artifacts.
type Store struct {
	logger *zap.Logger
}

// New creates a model store.
func New(logger *zap.Logger) *Store {
	return &Store{logger: logger}
}

// Save serializes the artifact to path atomically: the encoded bytes are
// written to a temporary file in the same directory and renamed over the
// target, so a crash mid-write never leaves a partial artifact.
func (s *Store) Save(artifact *ml.Artifact, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary artifact file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(artifact); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary artifact file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace artifact: %w", err)
	}

	s.logger.Info("Model saved",
		zap.String("path", path),
		zap.String("version", artifact.Version))
	return nil
}

// Load reads and validates the artifact at path. A missing file yields
// ErrArtifactNotFound; a schema-inconsistent artifact fails loudly rather
// than serving misaligned predictions.
func (s *Store) Load(path string) (*ml.Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, path)
		}
		return nil, fmt.Errorf("failed to open artifact: %w", err)
	}
	defer f.Close()

	var artifact ml.Artifact
	if err := gob.NewDecoder(f).Decode(&artifact); err != nil {
		return nil, fmt.Errorf("failed to decode artifact %s: %w", path, err)
	}
	if err := artifact.Validate(); err != nil {
		return nil, fmt.Errorf("artifact %s: %w", path, err)
	}
	return &artifact, nil
}

// Backup copies the current artifact at path into backupDir under a
// timestamped name and returns the backup path. When no artifact exists yet
// this is a warning-level no-op, not an error.
func (s *Store) Backup(path, backupDir string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Warn("No existing model to back up", zap.String("path", path))
			return "", nil
		}
		return "", fmt.Errorf("failed to open artifact for backup: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	backupPath := backupName(backupDir, time.Now())
	dst, err := os.OpenFile(backupPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create backup file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", fmt.Errorf("failed to copy artifact to backup: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("failed to close backup file: %w", err)
	}

	s.logger.Info("Backup created", zap.String("path", backupPath))
	return backupPath, nil
}

// backupName picks a timestamped backup file name that does not collide with
// an earlier backup taken in the same second.
func backupName(backupDir string, now time.Time) string {
	base := fmt.Sprintf("model_backup_%s", now.UTC().Format("20060102_150405"))
	name := filepath.Join(backupDir, base+".gob")
	for i := 1; ; i++ {
		if _, err := os.Stat(name); os.IsNotExist(err) {
			return name
		}
		name = filepath.Join(backupDir, fmt.Sprintf("%s_%d.gob", base, i))
	}
}

package snapshot

import (
	"os"
	"path/filepath"

	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/errors"
	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/logging"
)

// FileStore persists snapshot documents to a single file. Writes go
// through a temp file and rename so a crash never leaves a torn snapshot.
type FileStore struct {
	path   string
	logger logging.Logger
}

// NewFileStore creates a file store for the given path.
func NewFileStore(path string, logger logging.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

// Path returns the snapshot file path.
func (s *FileStore) Path() string {
	return s.path
}

// Exists reports whether a snapshot file is present.
func (s *FileStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Save encodes and writes the document.
func (s *FileStore) Save(doc Document) error {
	data, err := Encode(doc)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.NewIOError("failed to create snapshot directory", err).WithContext("dir", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return errors.NewIOError("failed to create snapshot temp file", err).WithContext("path", s.path)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.NewIOError("failed to write snapshot", err).WithContext("path", s.path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.NewIOError("failed to close snapshot temp file", err).WithContext("path", s.path)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return errors.NewIOError("failed to replace snapshot file", err).WithContext("path", s.path)
	}

	s.logger.Infof("Snapshot saved, path: %s, services: %d, health_records: %d",
		s.path, len(doc.Services), len(doc.HealthChecks))
	return nil
}

// Load reads and decodes the document.
func (s *FileStore) Load() (Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, errors.NewNotFoundError("snapshot file not found", err).WithContext("path", s.path)
		}
		return Document{}, errors.NewIOError("failed to read snapshot file", err).WithContext("path", s.path)
	}

	doc, err := Decode(data)
	if err != nil {
		return Document{}, err
	}

	s.logger.Infof("Snapshot loaded, path: %s, services: %d, health_records: %d",
		s.path, len(doc.Services), len(doc.HealthChecks))
	return doc, nil
}

package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wonny/compsync/internal/contracts"
	"github.com/wonny/compsync/pkg/logger"
)

const (
	stagePersist = "persist"

	// DefaultFileName is used when no id is supplied
	DefaultFileName = "comp_config.json"
)

// FileStore writes normalized records as indented JSON under one directory.
// Writes overwrite in place and are not atomic.
type FileStore struct {
	dir    string
	logger *logger.Logger
}

// NewFileStore creates a file store rooted at dir
func NewFileStore(dir string, log *logger.Logger) *FileStore {
	return &FileStore{
		dir:    dir,
		logger: log.WithField("stage", stagePersist),
	}
}

// Dir returns the output directory
func (s *FileStore) Dir() string {
	return s.dir
}

// PathFor returns where Save would write record for id
func (s *FileStore) PathFor(record *contracts.NormalizedRecord, id string) string {
	if id == "" {
		return filepath.Join(s.dir, DefaultFileName)
	}
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s.json", record.FileStem(), id))
}

// Save writes record and returns the file path.
// With an id the file is <name>_<id>.json, otherwise comp_config.json.
func (s *FileStore) Save(record *contracts.NormalizedRecord, id string) (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", contracts.NewFailure(stagePersist, contracts.KindPersist, "create output directory", err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", contracts.NewFailure(stagePersist, contracts.KindPersist, "marshal record", err)
	}

	path := s.PathFor(record, id)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", contracts.NewFailure(stagePersist, contracts.KindPersist, "write record", err)
	}

	s.logger.Info("Saved successfully")
	s.logger.WithField("path", path).Infof("File location @ %s", path)

	return path, nil
}

// Load reads a previously saved record
func (s *FileStore) Load(path string) (*contracts.NormalizedRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}

	var record contracts.NormalizedRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", path, err)
	}

	return &record, nil
}

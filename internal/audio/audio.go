// Package audio stores synthesized speech clips on local disk so the HTTP
// layer can hand clients a URL instead of inlining audio bytes in JSON
// responses. Clips are session artifacts and are wiped on shutdown.
package audio

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Store writes clips into a single directory, one file per clip, named by a
// generated UUID so ids are safe to embed in URLs.
type Store struct {
	dir    string
	logger *zap.Logger
}

func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "audio: create directory %s", dir)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Put writes a clip and returns its id.
func (s *Store) Put(data []byte) (string, error) {
	id := uuid.New().String()
	if err := os.WriteFile(s.path(id), data, 0o644); err != nil {
		return "", eris.Wrapf(err, "audio: write clip %s", id)
	}
	return id, nil
}

// Path resolves a clip id to its file path. Ids must parse as UUIDs, which
// also keeps path traversal out of the id parameter.
func (s *Store) Path(id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", eris.Wrapf(err, "audio: invalid clip id %q", id)
	}
	path := s.path(id)
	if _, err := os.Stat(path); err != nil {
		return "", eris.Wrapf(err, "audio: clip %s", id)
	}
	return path, nil
}

// Cleanup removes every stored clip. Called on shutdown.
func (s *Store) Cleanup() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn("failed to list audio directory", zap.Error(err))
		return
	}
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".wav" {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			s.logger.Warn("failed to remove audio clip", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		removed++
	}
	if removed > 0 {
		s.logger.Info("removed audio clips", zap.Int("count", removed))
	}
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".wav")
}

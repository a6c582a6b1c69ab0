package disk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/2beens/gymreps/internal/reps"
	"github.com/2beens/gymreps/internal/sessions"

	log "github.com/sirupsen/logrus"
)

// Store keeps all summaries in one JSON file, keyed by username.
// Every append rewrites the file through a temp file and a rename, so a crash
// mid-write never leaves a truncated file behind.
type Store struct {
	mu   sync.Mutex
	path string
}

func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("sessions file path empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sessions dir: %w", err)
	}
	return &Store{path: path}, nil
}

func (s *Store) Append(_ context.Context, username string, summary reps.SessionSummary) error {
	username, err := sessions.ValidateUsername(username)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return err
	}
	data[username] = append(data[username], sessions.FlatSummary(summary))

	return s.write(data)
}

func (s *Store) List(_ context.Context, username string) ([]reps.SessionSummary, error) {
	username, err := sessions.ValidateUsername(username)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return nil, err
	}

	stored := data[username]
	list := make([]reps.SessionSummary, 0, len(stored))
	for _, r := range stored {
		list = append(list, reps.SessionSummary(r))
	}
	return list, nil
}

func (s *Store) load() (map[string][]sessions.FlatSummary, error) {
	data := make(map[string][]sessions.FlatSummary)

	content, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return data, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sessions file: %w", err)
	}
	if len(content) == 0 {
		return data, nil
	}

	if err := json.Unmarshal(content, &data); err != nil {
		return nil, fmt.Errorf("decode sessions file %s: %w", s.path, err)
	}
	return data, nil
}

func (s *Store) write(data map[string][]sessions.FlatSummary) (err error) {
	content, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		return fmt.Errorf("encode sessions: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp sessions file: %w", err)
	}
	defer func() {
		if err != nil {
			if removeErr := os.Remove(tmp.Name()); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
				log.Warnf("remove temp sessions file %s: %s", tmp.Name(), removeErr)
			}
		}
	}()

	if _, err = tmp.Write(content); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp sessions file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp sessions file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp sessions file: %w", err)
	}

	if err = os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace sessions file: %w", err)
	}
	return nil
}

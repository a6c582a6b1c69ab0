package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/2beens/gymreps/internal/reps"
)

//go:generate mockgen -source=$GOFILE -destination=store_mocks_test.go -package=sessions_test

var (
	ErrEmptyUsername = errors.New("username empty")
	ErrEmptySummary  = errors.New("summary has no duration and no counts")
	ErrNegativeCount = errors.New("negative repetition count")
)

// Store keeps the finished session summaries of every user, in insertion order.
// Implementations only ever append; stored summaries are never changed or removed.
type Store interface {
	Append(ctx context.Context, username string, summary reps.SessionSummary) error
	// List returns all summaries of the user, oldest first.
	// An unknown username gives an empty list, not an error.
	List(ctx context.Context, username string) ([]reps.SessionSummary, error)
}

// ValidateUsername trims the username and rejects empty ones.
func ValidateUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", ErrEmptyUsername
	}
	return username, nil
}

type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]reps.SessionSummary
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string][]reps.SessionSummary),
	}
}

func (s *MemoryStore) Append(_ context.Context, username string, summary reps.SessionSummary) error {
	username, err := ValidateUsername(username)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[username] = append(s.sessions[username], summary)
	return nil
}

func (s *MemoryStore) List(_ context.Context, username string) ([]reps.SessionSummary, error) {
	username, err := ValidateUsername(username)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.sessions[username]
	list := make([]reps.SessionSummary, len(stored))
	copy(list, stored)
	return list, nil
}

// SaveRequest is the body of POST /start_session.
type SaveRequest struct {
	Username string              `json:"username"`
	Summary  reps.SessionSummary `json:"summary"`
}

// UnmarshalJSON accepts the summary in the structured shape as well as the flat one
// posted by older clients.
func (r *SaveRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		Username string          `json:"username"`
		Summary  json.RawMessage `json:"summary"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.Username = raw.Username
	r.Summary = reps.SessionSummary{}
	if len(raw.Summary) == 0 || string(raw.Summary) == "null" {
		return nil
	}

	summary, err := DecodeSummary(raw.Summary)
	if err != nil {
		return fmt.Errorf("decode summary: %w", err)
	}
	r.Summary = summary
	return nil
}

// ValidateSummary rejects summaries carrying nothing and negative counts.
func ValidateSummary(summary reps.SessionSummary) error {
	if summary.Duration == "" && summary.DurationSeconds == 0 && len(summary.Counts) == 0 {
		return ErrEmptySummary
	}
	for exercise, count := range summary.Counts {
		if count.Reps < 0 {
			return fmt.Errorf("%w: %s", ErrNegativeCount, exercise)
		}
		if count.Sides != nil && (count.Sides.Left < 0 || count.Sides.Right < 0) {
			return fmt.Errorf("%w: %s sides", ErrNegativeCount, exercise)
		}
	}
	return nil
}

type SaveResponse struct {
	Message string              `json:"message"`
	Summary reps.SessionSummary `json:"summary"`
}

type ListResponse struct {
	Username string                `json:"username"`
	Sessions []reps.SessionSummary `json:"sessions"`
}

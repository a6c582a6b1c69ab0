package redisstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/2beens/gymreps/internal/reps"
	"github.com/2beens/gymreps/internal/sessions"
	"github.com/2beens/gymreps/internal/telemetry/tracing"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel/attribute"
)

const keyPrefix = "reps-sessions||"

// Store keeps every user's summaries in a redis list, one JSON document per element.
// RPUSH is atomic, so concurrent appends never lose a summary.
type Store struct {
	redisClient *redis.Client
}

func NewStore(redisClient *redis.Client) *Store {
	return &Store{
		redisClient: redisClient,
	}
}

func userKey(username string) string {
	return keyPrefix + username
}

func (s *Store) Append(ctx context.Context, username string, summary reps.SessionSummary) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "redis.sessions.append")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	username, err = sessions.ValidateUsername(username)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.String("username", username))

	summaryJson, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	cmd := s.redisClient.RPush(ctx, userKey(username), string(summaryJson))
	if err := cmd.Err(); err != nil {
		return fmt.Errorf("push summary: %w", err)
	}

	return nil
}

func (s *Store) List(ctx context.Context, username string) (_ []reps.SessionSummary, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "redis.sessions.list")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	username, err = sessions.ValidateUsername(username)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("username", username))

	stored, err := s.redisClient.LRange(ctx, userKey(username), 0, -1).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("read summaries: %w", err)
	}

	list := make([]reps.SessionSummary, 0, len(stored))
	for _, summaryJson := range stored {
		var summary reps.SessionSummary
		if err := json.Unmarshal([]byte(summaryJson), &summary); err != nil {
			return nil, fmt.Errorf("unmarshal stored summary: %w", err)
		}
		list = append(list, summary)
	}

	span.SetAttributes(attribute.Int("count", len(list)))
	return list, nil
}

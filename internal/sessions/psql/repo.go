package psql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/2beens/gymreps/internal/reps"
	"github.com/2beens/gymreps/internal/sessions"
	"github.com/2beens/gymreps/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

const Schema = `
CREATE TABLE IF NOT EXISTS public.rep_session
(
    id         BIGSERIAL PRIMARY KEY,
    username   VARCHAR     NOT NULL,
    summary    JSONB       NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS ix_rep_session_username ON public.rep_session (username, id);
`

// Repo stores session summaries in postgres, one row per summary.
type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// EnsureSchema creates the rep_session table if it does not exist yet.
func (r *Repo) EnsureSchema(ctx context.Context) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sessions.ensure_schema")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	if _, err = r.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create rep_session table: %w", err)
	}
	return nil
}

func (r *Repo) Append(ctx context.Context, username string, summary reps.SessionSummary) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sessions.append")
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

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO rep_session (username, summary)
		VALUES ($1, $2)
		RETURNING id
	`,
		username,
		summaryJson,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert summary: %w", err)
	}
	span.SetAttributes(attribute.Int64("id", id))

	return nil
}

func (r *Repo) List(ctx context.Context, username string) (_ []reps.SessionSummary, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sessions.list")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	username, err = sessions.ValidateUsername(username)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("username", username))

	rows, err := r.db.Query(ctx, `
		SELECT summary
		FROM rep_session
		WHERE username = $1
		ORDER BY id
	`, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]reps.SessionSummary, 0)
	for rows.Next() {
		var summaryJson []byte
		if err := rows.Scan(&summaryJson); err != nil {
			return nil, err
		}
		var summary reps.SessionSummary
		if err := json.Unmarshal(summaryJson, &summary); err != nil {
			return nil, fmt.Errorf("unmarshal stored summary: %w", err)
		}
		list = append(list, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("count", len(list)))
	return list, nil
}

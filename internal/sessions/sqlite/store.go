package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/2beens/gymreps/internal/reps"
	"github.com/2beens/gymreps/internal/sessions"
	"github.com/2beens/gymreps/internal/telemetry/tracing"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store keeps session summaries in a local sqlite database file.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and migrates it to the latest schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// sqlite allows a single writer; one connection keeps appends from failing with SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := migrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func migrateUp(db *sql.DB) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("read embedded migrations: %w", err)
	}

	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite migrate driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	m.Log = &migrateLogger{}

	// m is not closed here, closing it would close db as well
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}

	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Append(ctx context.Context, username string, summary reps.SessionSummary) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sqlite.sessions.append")
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

	if _, err = s.db.ExecContext(ctx, `
		INSERT INTO rep_session (username, summary)
		VALUES (?, ?)
	`, username, string(summaryJson)); err != nil {
		return fmt.Errorf("insert summary: %w", err)
	}

	return nil
}

func (s *Store) List(ctx context.Context, username string) (_ []reps.SessionSummary, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sqlite.sessions.list")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	username, err = sessions.ValidateUsername(username)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("username", username))

	rows, err := s.db.QueryContext(ctx, `
		SELECT summary
		FROM rep_session
		WHERE username = ?
		ORDER BY id
	`, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]reps.SessionSummary, 0)
	for rows.Next() {
		var summaryJson string
		if err := rows.Scan(&summaryJson); err != nil {
			return nil, err
		}
		var summary reps.SessionSummary
		if err := json.Unmarshal([]byte(summaryJson), &summary); err != nil {
			return nil, fmt.Errorf("unmarshal stored summary: %w", err)
		}
		list = append(list, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

type migrateLogger struct{}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	log.Debugf("[migrate] "+format, v...)
}

func (l *migrateLogger) Verbose() bool {
	return false
}

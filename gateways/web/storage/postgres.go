package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/xilidan/lingua/pkg/gen"
	"github.com/xilidan/lingua/pkg/logger"
	"github.com/xilidan/lingua/services/transcriber/entity"
)

const schema = `
CREATE TABLE IF NOT EXISTS history (
	id          UUID PRIMARY KEY,
	session_id  TEXT NOT NULL,
	fingerprint TEXT NOT NULL,
	mode        TEXT NOT NULL,
	audio_name  TEXT NOT NULL DEFAULT '',
	language    TEXT NOT NULL,
	source      JSONB NOT NULL,
	translation JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (session_id, fingerprint, language)
);
CREATE INDEX IF NOT EXISTS history_session_updated_at_idx ON history (session_id, updated_at DESC);
`

const (
	upsertQuery = `
INSERT INTO history (id, session_id, fingerprint, mode, audio_name, language, source, translation)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (session_id, fingerprint, language) DO UPDATE SET
	audio_name  = EXCLUDED.audio_name,
	source      = EXCLUDED.source,
	translation = EXCLUDED.translation,
	updated_at  = now()
RETURNING id, created_at, updated_at`

	selectColumns = `SELECT id, session_id, fingerprint, mode, audio_name, language, source, translation, created_at, updated_at FROM history`
)

type postgres struct {
	db  *sql.DB
	ids gen.UUIDGenerator
}

// NewPostgres opens the database and creates the history table if needed.
func NewPostgres(ctx context.Context, dsn string, maxOpenConns int, ids gen.UUIDGenerator) (Storage, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}

	return &postgres{db: db, ids: ids}, nil
}

func (s *postgres) Save(ctx context.Context, rec *Record) (*Record, error) {
	log := logger.FromContext(ctx)

	source, err := json.Marshal(rec.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal source: %w", err)
	}
	translation, err := json.Marshal(rec.Translation)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal translation: %w", err)
	}

	out := *rec
	err = s.db.QueryRowContext(ctx, upsertQuery,
		s.ids.Next(),
		rec.SessionID,
		rec.Fingerprint,
		string(rec.Mode),
		rec.AudioName,
		rec.Language,
		string(source),
		string(translation),
	).Scan(&out.ID, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		log.Error("failed to save history record", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save history record: %w", err)
	}

	log.Debug("saved history record", slog.String("id", out.ID.String()))
	return &out, nil
}

func (s *postgres) Get(ctx context.Context, sessionID string, id uuid.UUID) (*Record, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx, selectColumns+` WHERE id = $1 AND session_id = $2`, id, sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get history record: %w", err)
	}
	return rec, nil
}

func (s *postgres) List(ctx context.Context, sessionID string, limit int) ([]*Record, error) {
	query := selectColumns + ` WHERE session_id = $1 ORDER BY updated_at DESC, created_at DESC`
	args := []any{sessionID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *postgres) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var (
		rec         Record
		mode        string
		source      []byte
		translation []byte
	)
	err := row.Scan(&rec.ID, &rec.SessionID, &rec.Fingerprint, &mode, &rec.AudioName,
		&rec.Language, &source, &translation, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}

	rec.Mode = entity.InputMode(mode)
	if err := json.Unmarshal(source, &rec.Source); err != nil {
		return nil, fmt.Errorf("failed to decode source: %w", err)
	}
	if err := json.Unmarshal(translation, &rec.Translation); err != nil {
		return nil, fmt.Errorf("failed to decode translation: %w", err)
	}
	return &rec, nil
}

package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/docqa/internal/db"
	"github.com/ziadkadry99/docqa/internal/qa"
)

// Store reads and writes the questions table. It satisfies qa.Recorder.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

var _ qa.Recorder = (*Store)(nil)

// Record appends an answer to the log.
func (s *Store) Record(ctx context.Context, a *qa.Answer) error {
	_, err := s.Add(ctx, Entry{
		AskedAt:       a.AskedAt,
		Question:      a.Question,
		Choice:        a.Choice,
		Model:         a.Model,
		Answer:        a.Text,
		Excerpts:      a.Excerpts,
		InputTokens:   a.InputTokens,
		OutputTokens:  a.OutputTokens,
		EstimatedCost: a.EstimatedCost,
	})
	return err
}

// Add inserts an entry and returns its ID. Empty IDs get a UUID and a
// zero AskedAt is set to now.
func (s *Store) Add(ctx context.Context, e Entry) (string, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.AskedAt.IsZero() {
		e.AskedAt = time.Now()
	}
	excerpts := e.Excerpts
	if excerpts == nil {
		excerpts = []qa.Excerpt{}
	}
	raw, err := json.Marshal(excerpts)
	if err != nil {
		return "", fmt.Errorf("marshalling excerpts: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO questions (
			id, asked_at, question, choice, model, answer,
			excerpts, input_tokens, output_tokens, estimated_cost
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.AskedAt.UTC().Format(time.DateTime),
		e.Question,
		e.Choice,
		e.Model,
		e.Answer,
		string(raw),
		e.InputTokens,
		e.OutputTokens,
		e.EstimatedCost,
	)
	if err != nil {
		return "", fmt.Errorf("inserting question: %w", err)
	}
	return e.ID, nil
}

const selectColumns = `SELECT id, asked_at, question, choice, model, answer,
	excerpts, input_tokens, output_tokens, estimated_cost FROM questions`

// Get returns a single entry.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	e, err := scanInto(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, err
}

// List returns entries matching filter, newest first.
func (s *Store) List(ctx context.Context, filter Filter) ([]Entry, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.Model != "" {
		clauses = append(clauses, "(model = ? OR choice = ?)")
		args = append(args, filter.Model, filter.Model)
	}
	if filter.Since != nil {
		clauses = append(clauses, "asked_at >= ?")
		args = append(args, filter.Since.UTC().Format(time.DateTime))
	}

	query := selectColumns
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY asked_at DESC, rowid DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	} else if filter.Offset > 0 {
		query += " LIMIT -1"
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying questions: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanInto(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// Prune removes entries asked before the given time and returns how many
// were deleted.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM questions WHERE asked_at < ?",
		before.UTC().Format(time.DateTime),
	)
	if err != nil {
		return 0, fmt.Errorf("pruning questions: %w", err)
	}
	return res.RowsAffected()
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanInto(sc scanner) (*Entry, error) {
	var (
		e            Entry
		ts           string
		excerptsJSON string
	)
	err := sc.Scan(
		&e.ID, &ts, &e.Question, &e.Choice, &e.Model, &e.Answer,
		&excerptsJSON, &e.InputTokens, &e.OutputTokens, &e.EstimatedCost,
	)
	if err != nil {
		return nil, err
	}

	if t, parseErr := time.Parse(time.DateTime, ts); parseErr == nil {
		e.AskedAt = t
	} else if t, parseErr := time.Parse(time.RFC3339, ts); parseErr == nil {
		e.AskedAt = t
	}

	if err := json.Unmarshal([]byte(excerptsJSON), &e.Excerpts); err != nil {
		e.Excerpts = nil
	}
	return &e, nil
}

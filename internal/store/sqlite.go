package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteDB implements DB on SQLite
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB opens the database at path. Use ":memory:" for a throwaway one.
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite serialises writers; an in-memory database also lives on one connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// Migrate creates tables and indexes
func (s *SQLiteDB) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			seeded INTEGER NOT NULL DEFAULT 0,
			phase TEXT NOT NULL,
			ante INTEGER NOT NULL,
			round INTEGER NOT NULL,
			money INTEGER NOT NULL,
			best_score INTEGER NOT NULL DEFAULT 0,
			state TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS plays (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			kind TEXT NOT NULL,
			cards TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			score INTEGER NOT NULL DEFAULT 0,
			money INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			UNIQUE(run_id, seq),
			FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_updated_at ON runs(updated_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_phase ON runs(phase, updated_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_plays_run_seq ON plays(run_id, seq)`,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return tx.Commit()
}

// SaveRun inserts a run, assigning an id and timestamps when missing.
func (s *SQLiteDB) SaveRun(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = now
	}
	run.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `INSERT INTO runs (
		id, seed, seeded, phase, ante, round, money, best_score, state, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, int64(run.Seed), boolInt(run.Seeded), run.Phase, run.Ante, run.Round,
		run.Money, run.BestScore, string(run.State), run.CreatedAt, run.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// UpdateRun overwrites the mutable columns of an existing run.
func (s *SQLiteDB) UpdateRun(ctx context.Context, run *Run) error {
	run.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `UPDATE runs SET
		phase = ?, ante = ?, round = ?, money = ?, best_score = ?, state = ?, updated_at = ?
		WHERE id = ?`,
		run.Phase, run.Ante, run.Round, run.Money, run.BestScore, string(run.State),
		run.UpdatedAt, run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %s: %w", run.ID, ErrNotFound)
	}
	return nil
}

// SavePlay appends an action to a run's history.
func (s *SQLiteDB) SavePlay(ctx context.Context, play *Play) error {
	if play.CreatedAt.IsZero() {
		play.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO plays (
		run_id, seq, kind, cards, category, score, money, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		play.RunID, play.Seq, string(play.Kind), play.Cards, play.Category,
		play.Score, play.Money, play.CreatedAt,
	)
	if err != nil {
		if isConstraintErr(err) {
			return fmt.Errorf("play %s#%d already recorded: %w", play.RunID, play.Seq, err)
		}
		return fmt.Errorf("failed to save play: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		play.ID = id
	}
	return nil
}

const runColumns = `id, seed, seeded, phase, ante, round, money, best_score, state, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner, withState bool) (Run, error) {
	var (
		run    Run
		seed   int64
		seeded int
		state  sql.NullString
	)
	err := row.Scan(&run.ID, &seed, &seeded, &run.Phase, &run.Ante, &run.Round,
		&run.Money, &run.BestScore, &state, &run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		return Run{}, err
	}
	run.Seed = uint32(seed)
	run.Seeded = seeded == 1
	if withState && state.Valid && state.String != "" {
		run.State = []byte(state.String)
	}
	return run, nil
}

// GetRun retrieves a run by id, including its state.
func (s *SQLiteDB) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// ListRuns returns run summaries, most recently updated first. States are omitted.
func (s *SQLiteDB) ListRuns(ctx context.Context, query RunsQuery) (*RunsList, error) {
	where := ""
	args := []any{}
	if query.Phase != "" {
		where = "WHERE phase = ?"
		args = append(args, query.Phase)
	}

	var totalCount int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs "+where, args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to get total count: %w", err)
	}

	if query.PerPage <= 0 || query.PerPage > 500 {
		query.PerPage = 50
	}
	if query.Page <= 0 {
		query.Page = 1
	}
	totalPages := (totalCount + query.PerPage - 1) / query.PerPage
	offset := (query.Page - 1) * query.PerPage

	args = append(args, query.PerPage, offset)
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs `+where+`
		ORDER BY updated_at DESC, id
		LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows, false)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return &RunsList{
		Runs:       runs,
		TotalCount: totalCount,
		Page:       query.Page,
		PerPage:    query.PerPage,
		TotalPages: totalPages,
	}, nil
}

// ListPlays returns a run's history in action order.
func (s *SQLiteDB) ListPlays(ctx context.Context, runID string) ([]Play, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, run_id, seq, kind, cards, category, score, money, created_at
		FROM plays WHERE run_id = ?
		ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query plays: %w", err)
	}
	defer rows.Close()

	plays := []Play{}
	for rows.Next() {
		var (
			p    Play
			kind string
		)
		if err := rows.Scan(&p.ID, &p.RunID, &p.Seq, &kind, &p.Cards, &p.Category, &p.Score, &p.Money, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan play: %w", err)
		}
		p.Kind = PlayKind(kind)
		plays = append(plays, p)
	}
	return plays, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isConstraintErr matches modernc sqlite's "constraint failed" messages.
func isConstraintErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "constraint failed") || strings.Contains(msg, "unique constraint")
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when a run id has no row.
var ErrNotFound = errors.New("not found")

// DB is the persistence interface used by the API and CLI.
type DB interface {
	Close() error
	Migrate(ctx context.Context) error
	SaveRun(ctx context.Context, run *Run) error
	UpdateRun(ctx context.Context, run *Run) error
	SavePlay(ctx context.Context, play *Play) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, query RunsQuery) (*RunsList, error)
	ListPlays(ctx context.Context, runID string) ([]Play, error)
}

// RunsQuery represents query parameters for listing runs
type RunsQuery struct {
	Phase   string `json:"phase,omitempty"`
	Page    int    `json:"page"`
	PerPage int    `json:"perPage"`
}

// RunsList represents a paginated runs response
type RunsList struct {
	Runs       []Run `json:"runs"`
	TotalCount int   `json:"totalCount"`
	Page       int   `json:"page"`
	PerPage    int   `json:"perPage"`
	TotalPages int   `json:"totalPages"`
}

// Run is the stored summary of a run plus its full serialised state.
type Run struct {
	ID        string          `json:"id"`
	Seed      uint32          `json:"seed"`
	Seeded    bool            `json:"seeded"`
	Phase     string          `json:"phase"`
	Ante      int             `json:"ante"`
	Round     int             `json:"round"`
	Money     int             `json:"money"`
	BestScore int             `json:"best_score"`
	State     json.RawMessage `json:"state,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// PlayKind distinguishes played hands from discards.
type PlayKind string

const (
	KindPlay    PlayKind = "play"
	KindDiscard PlayKind = "discard"
)

// Play is one action taken in a run.
type Play struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"run_id"`
	Seq       int       `json:"seq"`
	Kind      PlayKind  `json:"kind"`
	Cards     string    `json:"cards"`
	Category  string    `json:"category,omitempty"`
	Score     int       `json:"score"`
	Money     int       `json:"money"`
	CreatedAt time.Time `json:"created_at"`
}

// Package history keeps a log of answered questions in SQLite.
package history

import (
	"errors"
	"time"

	"github.com/ziadkadry99/docqa/internal/qa"
)

// ErrNotFound is returned when a history entry does not exist.
var ErrNotFound = errors.New("history entry not found")

// Entry is one answered question.
type Entry struct {
	ID            string       `json:"id"`
	AskedAt       time.Time    `json:"asked_at"`
	Question      string       `json:"question"`
	Choice        string       `json:"choice"`
	Model         string       `json:"model"`
	Answer        string       `json:"answer"`
	Excerpts      []qa.Excerpt `json:"excerpts"`
	InputTokens   int          `json:"input_tokens"`
	OutputTokens  int          `json:"output_tokens"`
	EstimatedCost float64      `json:"estimated_cost_usd"`
}

// Filter controls which entries List returns.
type Filter struct {
	Model  string
	Since  *time.Time
	Limit  int
	Offset int
}

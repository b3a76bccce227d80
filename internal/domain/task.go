// Package domain contains pure business types with ZERO infrastructure imports.
// This is the innermost ring of clean architecture — it depends on nothing.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ─── Task Types ─────────────────────────────────────────────────────────────

// TaskStatus is the lifecycle state of a staked task.
type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusCompleted TaskStatus = "completed"
	StatusForfeited TaskStatus = "forfeited"
)

// Task is a stake placed on a to-do item. A pending task created through the
// normal path always carries a due date (the end of the next day's creation
// window); it leaves the active set by exactly one of completion, forfeiture
// or deletion.
type Task struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	BuyIn       float64    `json:"buy_in"`
	Payout      float64    `json:"payout"`
	Status      TaskStatus `json:"status"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

// NewTask mints a pending task with a fresh UUID and a trimmed description.
func NewTask(description string, buyIn, payout float64, dueAt, createdAt time.Time) Task {
	due := dueAt
	created := createdAt
	return Task{
		ID:          uuid.NewString(),
		Description: strings.TrimSpace(description),
		BuyIn:       buyIn,
		Payout:      payout,
		Status:      StatusPending,
		DueAt:       &due,
		CreatedAt:   &created,
	}
}

// TaskSnapshot captures the fields of a completed/forfeited task needed to
// reverse its ledger effect and optionally restore it. The original history
// record is never rewritten — reversal is always a compensating append.
type TaskSnapshot struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	BuyIn       float64 `json:"buy_in"`
	Payout      float64 `json:"payout"`
}

package domain

import (
	"math"
	"time"
)

// ─── Ledger Types ───────────────────────────────────────────────────────────
// The ledger is an append-only sequence of signed monetary entries. Entries
// are never mutated or deleted individually; the balance after entry n equals
// the balance after entry n-1 plus entry n's amount. Snapshot entries are the
// one exception: they set the balance directly (amount 0) and exist only to
// checkpoint history during compaction and purge.

// EntryType classifies a ledger entry.
type EntryType string

const (
	EntryPayout        EntryType = "payout"
	EntryForfeit       EntryType = "forfeit"
	EntryPurchase      EntryType = "purchase"
	EntryRefund        EntryType = "refund"
	EntryRevertPayout  EntryType = "revert_payout"
	EntryRevertForfeit EntryType = "revert_forfeit"
	EntryDeletePenalty EntryType = "delete_penalty"
	EntrySnapshot      EntryType = "snapshot"
)

// LedgerEntry is a single immutable row in the balance ledger. Balance is the
// running total cached at append time, which gives O(1) balance reads; a full
// replay of amounts remains the authoritative slow path.
type LedgerEntry struct {
	Type        EntryType `json:"type"`
	TaskID      string    `json:"task_id,omitempty"`
	Description string    `json:"description,omitempty"`
	Amount      float64   `json:"amount"`
	Timestamp   time.Time `json:"ts"`
	Balance     float64   `json:"balance"`
}

// ─── History Types ──────────────────────────────────────────────────────────
// History mirrors every balance-affecting operation in an audit log that is
// independent of the ledger's numeric rollup. It may be purged wholesale
// (manually or on the weekly rotation) without touching the ledger.

// EventKind classifies a history entry.
type EventKind string

const (
	EventCompleted         EventKind = "completed"
	EventForfeited         EventKind = "forfeited"
	EventPurchase          EventKind = "purchase"
	EventRefund            EventKind = "refund"
	EventDeletedFree       EventKind = "deleted_free"
	EventDeletedPenalty    EventKind = "deleted_penalty"
	EventRevertedCompletion EventKind = "reverted_completion"
	EventRevertedForfeit   EventKind = "reverted_forfeit"
)

// HistoryEntry is a single immutable audit record. Amount is the signed
// monetary effect of the event (zero for free deletions). Payout carries the
// legacy dual-purpose value older readers expect: the task payout for task
// events, and the signed magnitude for purchases, refunds and penalties.
type HistoryEntry struct {
	Event       EventKind `json:"event"`
	TaskID      string    `json:"task_id,omitempty"`
	Description string    `json:"description"`
	BuyIn       float64   `json:"buy_in"`
	Payout      float64   `json:"payout"`
	Amount      float64   `json:"amount"`
	Timestamp   time.Time `json:"ts"`
}

// ─── Money ──────────────────────────────────────────────────────────────────

// Round2 rounds a monetary amount to two decimal places. All balances and
// penalties are carried at this precision.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

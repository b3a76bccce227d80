package domain

import "time"

// ─── Store Interfaces ───────────────────────────────────────────────────────
// These interfaces define the boundary between the lifecycle engine and its
// environment. Infrastructure implements them; the application layer depends
// on them. Loads tolerate corruption by degrading to defaults/empty; a failed
// write means the operation did not happen.

// SettingsStore persists the user settings record.
type SettingsStore interface {
	Load() (Settings, error)
	Save(Settings) error
}

// TaskStore persists the active task set. Save atomically replaces the whole
// set — no partial multi-task mutation ever spans more than one Save.
type TaskStore interface {
	Load() ([]Task, error)
	Save([]Task) error
}

// LedgerStore is the append-only monetary log. Append stamps the entry with
// the new running balance and returns it. Balance reads the cached balance on
// the last entry when present, falling back to a full replay.
type LedgerStore interface {
	Append(LedgerEntry) (float64, error)
	Balance() (float64, error)
	Entries() ([]LedgerEntry, error)

	// Compact collapses entries older than cutoff into one snapshot entry
	// carrying their net sum, preserving the recomputed balance exactly.
	Compact(cutoff, now time.Time) error

	// Purge discards the ledger. With saveBalance the current balance is
	// preserved as a single snapshot entry; otherwise it resets to zero.
	Purge(saveBalance bool, now time.Time) error
}

// HistoryStore is the append-only audit log, purged wholesale on rotation.
type HistoryStore interface {
	Append(HistoryEntry) error
	Read(limit int) ([]HistoryEntry, error)
	Purge() error
}

// Clock abstracts "now" so tests can pin the creation window.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a func to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

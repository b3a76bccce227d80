package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/stakedo/stakedo/internal/domain"
)

// ─── Settings Store ─────────────────────────────────────────────────────────

// SettingsStore persists the settings row.
type SettingsStore struct {
	db *DB
}

// NewSettingsStore returns a settings store over db.
func NewSettingsStore(db *DB) *SettingsStore { return &SettingsStore{db: db} }

// Load reads the settings row, seeding the defaults when absent.
func (s *SettingsStore) Load() (domain.Settings, error) {
	var start, end string
	err := s.db.db.QueryRow(`SELECT window_start, window_end FROM settings WHERE id = 1`).Scan(&start, &end)
	if err == sql.ErrNoRows {
		def := domain.DefaultSettings()
		if err := s.Save(def); err != nil {
			return def, err
		}
		return def, nil
	}
	if err != nil {
		return domain.DefaultSettings(), nil
	}
	loaded := domain.Settings{CreationWindow: domain.CreationWindow{Start: start, End: end}}
	return loaded.Merged(), nil
}

// Save upserts the settings row.
func (s *SettingsStore) Save(settings domain.Settings) error {
	_, err := s.db.db.Exec(`
		INSERT INTO settings (id, window_start, window_end) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			window_start = excluded.window_start,
			window_end   = excluded.window_end
	`, settings.CreationWindow.Start, settings.CreationWindow.End)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// ─── Task Store ─────────────────────────────────────────────────────────────

// TaskStore persists the active task set.
type TaskStore struct {
	db *DB
}

// NewTaskStore returns a task store over db.
func NewTaskStore(db *DB) *TaskStore { return &TaskStore{db: db} }

// Load reads the active task set in insertion order.
func (s *TaskStore) Load() ([]domain.Task, error) {
	rows, err := s.db.db.Query(`
		SELECT id, description, buy_in, payout, status, due_at, created_at
		FROM tasks ORDER BY position
	`)
	if err != nil {
		return nil, nil
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		var t domain.Task
		var status string
		var due, created sql.NullString
		if err := rows.Scan(&t.ID, &t.Description, &t.BuyIn, &t.Payout, &status, &due, &created); err != nil {
			continue
		}
		t.Status = domain.TaskStatus(status)
		t.DueAt = parseNullTime(due)
		t.CreatedAt = parseNullTime(created)
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// Save replaces the whole task set inside one transaction — the SQLite
// equivalent of the atomic file rewrite.
func (s *TaskStore) Save(tasks []domain.Task) error {
	tx, err := s.db.db.Begin()
	if err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM tasks`); err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	for _, t := range tasks {
		_, err := tx.Exec(`
			INSERT INTO tasks (id, description, buy_in, payout, status, due_at, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, t.ID, t.Description, t.BuyIn, t.Payout, string(t.Status), formatNullTime(t.DueAt), formatNullTime(t.CreatedAt))
		if err != nil {
			return fmt.Errorf("save tasks: %w", err)
		}
	}
	return tx.Commit()
}

// ─── Ledger Store ───────────────────────────────────────────────────────────

// LedgerStore is the append-only monetary log.
type LedgerStore struct {
	db *DB
}

// NewLedgerStore returns a ledger store over db.
func NewLedgerStore(db *DB) *LedgerStore { return &LedgerStore{db: db} }

// Append stamps the entry with the new running balance and inserts it.
func (s *LedgerStore) Append(e domain.LedgerEntry) (float64, error) {
	balance, err := s.Balance()
	if err != nil {
		return 0, err
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	e.Balance = domain.Round2(balance + e.Amount)
	_, err = s.db.db.Exec(`
		INSERT INTO ledger (type, task_id, description, amount, ts, balance)
		VALUES (?, ?, ?, ?, ?, ?)
	`, string(e.Type), e.TaskID, e.Description, e.Amount, e.Timestamp.Format(time.RFC3339Nano), e.Balance)
	if err != nil {
		return 0, fmt.Errorf("append ledger entry: %w", err)
	}
	return e.Balance, nil
}

// Balance returns the cached balance on the last row, zero when empty.
func (s *LedgerStore) Balance() (float64, error) {
	var balance float64
	err := s.db.db.QueryRow(`SELECT balance FROM ledger ORDER BY seq DESC LIMIT 1`).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return balance, nil
}

// Entries returns every ledger row, oldest first.
func (s *LedgerStore) Entries() ([]domain.LedgerEntry, error) {
	rows, err := s.db.db.Query(`
		SELECT type, task_id, description, amount, ts, balance FROM ledger ORDER BY seq
	`)
	if err != nil {
		return nil, nil
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		var typ, ts string
		var taskID, desc sql.NullString
		if err := rows.Scan(&typ, &taskID, &desc, &e.Amount, &ts, &e.Balance); err != nil {
			continue
		}
		e.Type = domain.EntryType(typ)
		e.TaskID = taskID.String
		e.Description = desc.String
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		entries = append(entries, e)
	}
	return entries, nil
}

// Compact collapses rows older than cutoff into one snapshot row and
// rewrites the table as [snapshot] + [newer] in one transaction.
func (s *LedgerStore) Compact(cutoff, now time.Time) error {
	entries, err := s.Entries()
	if err != nil {
		return err
	}
	var old, newer []domain.LedgerEntry
	for _, e := range entries {
		if e.Timestamp.Before(cutoff) {
			old = append(old, e)
		} else {
			newer = append(newer, e)
		}
	}
	if len(old) == 0 {
		return nil
	}
	var total float64
	for _, e := range old {
		if e.Type == domain.EntrySnapshot {
			total = e.Balance
			continue
		}
		total += e.Amount
	}
	snapshot := domain.LedgerEntry{
		Type:        domain.EntrySnapshot,
		Description: fmt.Sprintf("compacted %d entries", len(old)),
		Amount:      0,
		Timestamp:   now,
		Balance:     domain.Round2(total),
	}
	return s.rewrite(append([]domain.LedgerEntry{snapshot}, newer...))
}

// Purge discards the ledger, optionally carrying the balance forward as a
// single snapshot row.
func (s *LedgerStore) Purge(saveBalance bool, now time.Time) error {
	if !saveBalance {
		if _, err := s.db.db.Exec(`DELETE FROM ledger`); err != nil {
			return fmt.Errorf("purge ledger: %w", err)
		}
		return nil
	}
	balance, err := s.Balance()
	if err != nil {
		return err
	}
	snapshot := domain.LedgerEntry{
		Type:        domain.EntrySnapshot,
		Description: "balance carried forward",
		Amount:      0,
		Timestamp:   now,
		Balance:     balance,
	}
	return s.rewrite([]domain.LedgerEntry{snapshot})
}

func (s *LedgerStore) rewrite(entries []domain.LedgerEntry) error {
	tx, err := s.db.db.Begin()
	if err != nil {
		return fmt.Errorf("rewrite ledger: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM ledger`); err != nil {
		return fmt.Errorf("rewrite ledger: %w", err)
	}
	for _, e := range entries {
		_, err := tx.Exec(`
			INSERT INTO ledger (type, task_id, description, amount, ts, balance)
			VALUES (?, ?, ?, ?, ?, ?)
		`, string(e.Type), e.TaskID, e.Description, e.Amount, e.Timestamp.Format(time.RFC3339Nano), e.Balance)
		if err != nil {
			return fmt.Errorf("rewrite ledger: %w", err)
		}
	}
	return tx.Commit()
}

// ─── History Store ──────────────────────────────────────────────────────────

// HistoryStore is the append-only audit log.
type HistoryStore struct {
	db *DB
}

// NewHistoryStore returns a history store over db.
func NewHistoryStore(db *DB) *HistoryStore { return &HistoryStore{db: db} }

// Append inserts one audit record.
func (s *HistoryStore) Append(e domain.HistoryEntry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	_, err := s.db.db.Exec(`
		INSERT INTO history (event, task_id, description, buy_in, payout, amount, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, string(e.Event), e.TaskID, e.Description, e.BuyIn, e.Payout, e.Amount, e.Timestamp.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// Read returns up to limit of the most recent records, oldest first. Legacy
// rows without an amount fall back to the signed payout value.
func (s *HistoryStore) Read(limit int) ([]domain.HistoryEntry, error) {
	q := `SELECT event, task_id, description, buy_in, payout, amount, ts FROM history ORDER BY seq DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.db.Query(q, args...)
	if err != nil {
		return nil, nil
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		var e domain.HistoryEntry
		var event, ts string
		var taskID sql.NullString
		var amount sql.NullFloat64
		if err := rows.Scan(&event, &taskID, &e.Description, &e.BuyIn, &e.Payout, &amount, &ts); err != nil {
			continue
		}
		e.Event = domain.EventKind(event)
		e.TaskID = taskID.String
		if amount.Valid {
			e.Amount = amount.Float64
		} else {
			e.Amount = e.Payout
		}
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		entries = append(entries, e)
	}
	// Newest-first from the query; flip to oldest-first.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// Purge deletes all history rows.
func (s *HistoryStore) Purge() error {
	if _, err := s.db.db.Exec(`DELETE FROM history`); err != nil {
		return fmt.Errorf("purge history: %w", err)
	}
	return nil
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func parseNullTime(v sql.NullString) *time.Time {
	if !v.Valid || v.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, v.String)
	if err != nil {
		return nil
	}
	return &t
}

func formatNullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}

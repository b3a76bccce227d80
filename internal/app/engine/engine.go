// Package engine implements the task lifecycle state machine: creation inside
// the daily window, completion, forfeiture, deletion with the late penalty,
// purchases and compensating reversals.
//
// Every mutating operation follows the same protocol:
//  1. Validate preconditions — no state is touched on a validation failure.
//  2. Append exactly one ledger entry and one matching history entry
//     (operations with no monetary effect append history only).
//  3. Persist the updated active task set.
//
// All operations are serialized behind one mutex: the sweep and user-triggered
// actions funnel through this single writer, so the ledger, history and task
// set never interleave destructively.
package engine

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stakedo/stakedo/internal/domain"
	"github.com/stakedo/stakedo/internal/infra/observability"
	"github.com/stakedo/stakedo/internal/window"
)

// Stores bundles the collaborator interfaces the engine needs from its
// environment.
type Stores struct {
	Settings domain.SettingsStore
	Tasks    domain.TaskStore
	Ledger   domain.LedgerStore
	History  domain.HistoryStore
}

// Engine owns the active task set and the running balance. Construct one per
// data directory; operations are safe for concurrent use.
type Engine struct {
	mu       sync.Mutex
	clock    domain.Clock
	stores   Stores
	settings domain.Settings
	tasks    []domain.Task
	balance  float64
}

// New loads settings (merged over defaults), the active task set and the
// current balance, then forfeits any task that became overdue while the
// process was not running.
func New(stores Stores, clock domain.Clock) (*Engine, error) {
	if clock == nil {
		clock = domain.ClockFunc(time.Now)
	}
	settings, err := stores.Settings.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	tasks, err := stores.Tasks.Load()
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	balance, err := stores.Ledger.Balance()
	if err != nil {
		return nil, fmt.Errorf("compute balance: %w", err)
	}

	e := &Engine{
		clock:    clock,
		stores:   stores,
		settings: settings.Merged(),
		tasks:    tasks,
		balance:  balance,
	}
	observability.Balance.Set(balance)
	observability.ActiveTasks.Set(float64(len(tasks)))

	// Catch tasks that went overdue while the process was down.
	if n, err := e.ForfeitOverdue(clock.Now()); err != nil {
		return nil, err
	} else if n > 0 {
		log.Printf("[engine] forfeited %d overdue task(s) at startup", n)
	}
	return e, nil
}

// resolver builds a window resolver from the current settings, falling back
// to the defaults if the stored times are unparseable.
func (e *Engine) resolver() *window.Resolver {
	r, err := window.NewResolver(e.settings.CreationWindow.Start, e.settings.CreationWindow.End)
	if err != nil {
		def := domain.DefaultSettings().CreationWindow
		r, _ = window.NewResolver(def.Start, def.End)
	}
	return r
}

// ─── Read Operations ────────────────────────────────────────────────────────

// Balance returns the current ledger balance.
func (e *Engine) Balance() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.balance
}

// Tasks returns a copy of the active task set.
func (e *Engine) Tasks() []domain.Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.Task, len(e.tasks))
	copy(out, e.tasks)
	return out
}

// Settings returns the current settings.
func (e *Engine) Settings() domain.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

// WindowToday returns today's creation window.
func (e *Engine) WindowToday() window.Window {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resolver().Today(e.clock.Now())
}

// InWindow reports whether the creation window is open right now.
func (e *Engine) InWindow() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resolver().InWindow(e.clock.Now())
}

// History returns up to limit of the most recent audit records.
func (e *Engine) History(limit int) ([]domain.HistoryEntry, error) {
	return e.stores.History.Read(limit)
}

// LedgerEntries returns the full ledger, oldest first.
func (e *Engine) LedgerEntries() ([]domain.LedgerEntry, error) {
	return e.stores.Ledger.Entries()
}

// ─── Settings ───────────────────────────────────────────────────────────────

// SetWindowTimes updates the creation window and re-persists the settings
// immediately.
func (e *Engine) SetWindowTimes(start, end string) error {
	if _, err := window.ParseHHMM(start); err != nil {
		return err
	}
	if _, err := window.ParseHHMM(end); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	updated := e.settings
	updated.CreationWindow = domain.CreationWindow{Start: start, End: end}
	if err := e.stores.Settings.Save(updated); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	e.settings = updated
	return nil
}

// ─── Task Lifecycle ─────────────────────────────────────────────────────────

// Create stakes a new task. It fails outside the creation window, and the due
// date is deliberately the end of the *next* calendar day's window: a task
// created during today's window gives the user a full day to act.
func (e *Engine) Create(description string, buyIn, payout float64) (domain.Task, error) {
	if strings.TrimSpace(description) == "" {
		return domain.Task{}, domain.ErrEmptyDescription
	}
	if buyIn < 0 || payout < 0 {
		return domain.Task{}, fmt.Errorf("%w: buy-in and payout must not be negative", domain.ErrInvalidAmount)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	r := e.resolver()
	if !r.InWindow(now) {
		return domain.Task{}, domain.ErrWindowClosed
	}
	due := r.For(now.AddDate(0, 0, 1)).End
	task := domain.NewTask(description, domain.Round2(buyIn), domain.Round2(payout), due, now)

	updated := append(append([]domain.Task{}, e.tasks...), task)
	if err := e.stores.Tasks.Save(updated); err != nil {
		return domain.Task{}, fmt.Errorf("persist tasks: %w", err)
	}
	e.setTasks(updated)
	return task, nil
}

// Complete marks a pending task completed, credits its payout and removes it
// from the active set — the event log becomes its only remaining record.
func (e *Engine) Complete(taskID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.findTask(taskID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", domain.ErrTaskNotFound, taskID)
	}
	task := e.tasks[idx]
	now := e.clock.Now()

	if err := e.appendLedger(domain.LedgerEntry{
		Type:        domain.EntryPayout,
		TaskID:      task.ID,
		Description: task.Description,
		Amount:      task.Payout,
		Timestamp:   now,
	}); err != nil {
		return err
	}
	e.appendHistory(domain.HistoryEntry{
		Event:       domain.EventCompleted,
		TaskID:      task.ID,
		Description: task.Description,
		BuyIn:       task.BuyIn,
		Payout:      task.Payout,
		Amount:      task.Payout,
		Timestamp:   now,
	})
	return e.removeTask(idx)
}

// ForfeitOverdue forfeits every pending task whose due date has elapsed and
// returns the count. It is idempotent: with no newly-overdue tasks it changes
// nothing. Invoked by the periodic sweep and once at startup.
func (e *Engine) ForfeitOverdue(now time.Time) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var keep []domain.Task
	forfeited := 0
	for _, t := range e.tasks {
		if t.Status == domain.StatusPending && t.DueAt != nil && !t.DueAt.After(now) {
			if err := e.appendLedger(domain.LedgerEntry{
				Type:        domain.EntryForfeit,
				TaskID:      t.ID,
				Description: t.Description,
				Amount:      -t.BuyIn,
				Timestamp:   now,
			}); err != nil {
				return forfeited, err
			}
			e.appendHistory(domain.HistoryEntry{
				Event:       domain.EventForfeited,
				TaskID:      t.ID,
				Description: t.Description,
				BuyIn:       t.BuyIn,
				Payout:      t.Payout,
				Amount:      -t.BuyIn,
				Timestamp:   now,
			})
			observability.TasksForfeited.Inc()
			forfeited++
			continue
		}
		keep = append(keep, t)
	}
	if forfeited == 0 {
		return 0, nil
	}
	if err := e.stores.Tasks.Save(keep); err != nil {
		return forfeited, fmt.Errorf("persist tasks: %w", err)
	}
	e.setTasks(keep)
	return forfeited, nil
}

// Delete removes a pending task. Deletion on or after the close of the
// task's own due window costs half the buy-in; earlier deletion is free.
// A pending task without a due date is an invariant violation and rejected.
func (e *Engine) Delete(taskID string) (penalty float64, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.findTask(taskID)
	if idx < 0 {
		return 0, fmt.Errorf("%w: %s", domain.ErrTaskNotFound, taskID)
	}
	task := e.tasks[idx]
	if task.DueAt == nil {
		return 0, fmt.Errorf("%w: task %s", domain.ErrMissingDueDate, task.ID)
	}
	now := e.clock.Now()

	// The due date is the end of the window on the day after creation; the
	// penalty applies once that window has closed.
	creationDay := task.DueAt.AddDate(0, 0, -1)
	dueWindow := e.resolver().For(creationDay.AddDate(0, 0, 1))

	if !now.Before(dueWindow.End) {
		penalty = domain.Round2(-0.5 * task.BuyIn)
		if err := e.appendLedger(domain.LedgerEntry{
			Type:        domain.EntryDeletePenalty,
			TaskID:      task.ID,
			Description: task.Description,
			Amount:      penalty,
			Timestamp:   now,
		}); err != nil {
			return 0, err
		}
		e.appendHistory(domain.HistoryEntry{
			Event:       domain.EventDeletedPenalty,
			TaskID:      task.ID,
			Description: task.Description,
			BuyIn:       task.BuyIn,
			Payout:      penalty,
			Amount:      penalty,
			Timestamp:   now,
		})
	} else {
		e.appendHistory(domain.HistoryEntry{
			Event:       domain.EventDeletedFree,
			TaskID:      task.ID,
			Description: task.Description,
			BuyIn:       task.BuyIn,
			Payout:      0,
			Amount:      0,
			Timestamp:   now,
		})
	}
	if err := e.removeTask(idx); err != nil {
		return penalty, err
	}
	return penalty, nil
}

// ─── Purchases ──────────────────────────────────────────────────────────────

// RecordPurchase debits the balance by a positive amount.
func (e *Engine) RecordPurchase(description string, amount float64) error {
	description = strings.TrimSpace(description)
	if description == "" {
		return domain.ErrEmptyDescription
	}
	if amount <= 0 {
		return fmt.Errorf("%w: purchase amount must be positive", domain.ErrInvalidAmount)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	amount = domain.Round2(amount)
	if err := e.appendLedger(domain.LedgerEntry{
		Type:        domain.EntryPurchase,
		Description: description,
		Amount:      -amount,
		Timestamp:   now,
	}); err != nil {
		return err
	}
	e.appendHistory(domain.HistoryEntry{
		Event:       domain.EventPurchase,
		Description: description,
		BuyIn:       0,
		Payout:      -amount,
		Amount:      -amount,
		Timestamp:   now,
	})
	return nil
}

// RevertPurchase credits back a previously recorded purchase. The original
// purchase record is left in place — reversal is always a compensating
// append, never a rewrite.
func (e *Engine) RevertPurchase(description string, amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: refund amount must be positive", domain.ErrInvalidAmount)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	amount = domain.Round2(amount)
	if err := e.appendLedger(domain.LedgerEntry{
		Type:        domain.EntryRefund,
		Description: strings.TrimSpace(description),
		Amount:      amount,
		Timestamp:   now,
	}); err != nil {
		return err
	}
	e.appendHistory(domain.HistoryEntry{
		Event:       domain.EventRefund,
		Description: strings.TrimSpace(description),
		BuyIn:       0,
		Payout:      amount,
		Amount:      amount,
		Timestamp:   now,
	})
	return nil
}

// ─── Reversals ──────────────────────────────────────────────────────────────

// RevertCompletion reverses a completed task's payout. With restore the task
// reappears in the active set as pending with a fresh due date.
func (e *Engine) RevertCompletion(snap domain.TaskSnapshot, restore bool) (*domain.Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	if err := e.appendLedger(domain.LedgerEntry{
		Type:        domain.EntryRevertPayout,
		TaskID:      snap.ID,
		Description: snap.Description,
		Amount:      -snap.Payout,
		Timestamp:   now,
	}); err != nil {
		return nil, err
	}
	e.appendHistory(domain.HistoryEntry{
		Event:       domain.EventRevertedCompletion,
		TaskID:      snap.ID,
		Description: snap.Description,
		BuyIn:       snap.BuyIn,
		Payout:      snap.Payout,
		Amount:      -snap.Payout,
		Timestamp:   now,
	})
	if !restore {
		return nil, nil
	}
	return e.restoreTask(snap, now)
}

// RevertForfeit reverses a forfeited task's buy-in loss. With restore the
// task reappears in the active set as pending with a fresh due date.
func (e *Engine) RevertForfeit(snap domain.TaskSnapshot, restore bool) (*domain.Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	if err := e.appendLedger(domain.LedgerEntry{
		Type:        domain.EntryRevertForfeit,
		TaskID:      snap.ID,
		Description: snap.Description,
		Amount:      snap.BuyIn,
		Timestamp:   now,
	}); err != nil {
		return nil, err
	}
	e.appendHistory(domain.HistoryEntry{
		Event:       domain.EventRevertedForfeit,
		TaskID:      snap.ID,
		Description: snap.Description,
		BuyIn:       snap.BuyIn,
		Payout:      snap.Payout,
		Amount:      snap.BuyIn,
		Timestamp:   now,
	})
	if !restore {
		return nil, nil
	}
	return e.restoreTask(snap, now)
}

// restoreTask recreates a reversed task as pending. The original identifier
// is reused unless a currently active task holds it; the due date is the end
// of today's window, or tomorrow's once today's has already closed.
func (e *Engine) restoreTask(snap domain.TaskSnapshot, now time.Time) (*domain.Task, error) {
	id := snap.ID
	if id == "" || e.findTask(id) >= 0 {
		id = uuid.NewString()
	}
	r := e.resolver()
	due := r.Today(now).End
	if !due.After(now) {
		due = r.For(now.AddDate(0, 0, 1)).End
	}
	task := domain.Task{
		ID:          id,
		Description: snap.Description,
		BuyIn:       snap.BuyIn,
		Payout:      snap.Payout,
		Status:      domain.StatusPending,
		DueAt:       &due,
		CreatedAt:   &now,
	}
	updated := append(append([]domain.Task{}, e.tasks...), task)
	if err := e.stores.Tasks.Save(updated); err != nil {
		return nil, fmt.Errorf("persist tasks: %w", err)
	}
	e.setTasks(updated)
	return &task, nil
}

// ─── Maintenance ────────────────────────────────────────────────────────────

// CompactLedger collapses ledger entries older than retainDays into a single
// snapshot entry, preserving the recomputed balance exactly.
func (e *Engine) CompactLedger(retainDays int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	cutoff := now.AddDate(0, 0, -retainDays)
	if err := e.stores.Ledger.Compact(cutoff, now); err != nil {
		return fmt.Errorf("compact ledger: %w", err)
	}
	return nil
}

// PurgeData deletes all tasks and history. With saveBalance the ledger is
// replaced by a single snapshot carrying the current balance; otherwise the
// balance resets to zero.
func (e *Engine) PurgeData(saveBalance bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.stores.Tasks.Save(nil); err != nil {
		return fmt.Errorf("persist tasks: %w", err)
	}
	e.setTasks(nil)
	if err := e.stores.History.Purge(); err != nil {
		return fmt.Errorf("purge history: %w", err)
	}
	now := e.clock.Now()
	if err := e.stores.Ledger.Purge(saveBalance, now); err != nil {
		return fmt.Errorf("purge ledger: %w", err)
	}
	balance, err := e.stores.Ledger.Balance()
	if err != nil {
		return fmt.Errorf("compute balance: %w", err)
	}
	e.balance = balance
	observability.Balance.Set(balance)
	return nil
}

// PurgeHistory deletes the audit log, leaving ledger and tasks untouched.
func (e *Engine) PurgeHistory() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stores.History.Purge()
}

// ─── Internals ──────────────────────────────────────────────────────────────

// findTask returns the index of the pending task with the given id, or -1.
// Callers must hold e.mu.
func (e *Engine) findTask(id string) int {
	for i, t := range e.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// appendLedger writes one ledger entry and refreshes the cached balance.
// Callers must hold e.mu.
func (e *Engine) appendLedger(entry domain.LedgerEntry) error {
	entry.Amount = domain.Round2(entry.Amount)
	balance, err := e.stores.Ledger.Append(entry)
	if err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	e.balance = balance
	observability.Balance.Set(balance)
	observability.LedgerEntries.WithLabelValues(string(entry.Type)).Inc()
	return nil
}

// appendHistory writes one audit record. A history write failure is logged
// but does not fail the operation: the ledger entry is already durable and
// the balance must not silently diverge from it.
func (e *Engine) appendHistory(entry domain.HistoryEntry) {
	if err := e.stores.History.Append(entry); err != nil {
		log.Printf("[engine] history append failed: %v", err)
		return
	}
	observability.HistoryEvents.WithLabelValues(string(entry.Event)).Inc()
}

// removeTask drops the task at idx and persists the set. Callers must hold
// e.mu.
func (e *Engine) removeTask(idx int) error {
	updated := append(append([]domain.Task{}, e.tasks[:idx]...), e.tasks[idx+1:]...)
	if err := e.stores.Tasks.Save(updated); err != nil {
		return fmt.Errorf("persist tasks: %w", err)
	}
	e.setTasks(updated)
	return nil
}

// setTasks replaces the in-memory set and refreshes the gauge. Callers must
// hold e.mu.
func (e *Engine) setTasks(tasks []domain.Task) {
	e.tasks = tasks
	observability.ActiveTasks.Set(float64(len(tasks)))
}

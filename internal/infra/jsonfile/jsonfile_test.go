package jsonfile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stakedo/stakedo/internal/domain"
)

func newTestDir(t *testing.T) *Dir {
	t.Helper()
	dir, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	return dir
}

// ─── Settings Tests ─────────────────────────────────────────────────────────

func TestSettingsStore_SeedsDefaults(t *testing.T) {
	store := NewSettingsStore(newTestDir(t))

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.CreationWindow.Start != "11:00" || got.CreationWindow.End != "12:00" {
		t.Errorf("Load() = %+v, want defaults", got)
	}
}

func TestSettingsStore_RoundTrip(t *testing.T) {
	store := NewSettingsStore(newTestDir(t))
	want := domain.Settings{CreationWindow: domain.CreationWindow{Start: "23:00", End: "02:00"}}

	if err := store.Save(want); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got != want {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}

func TestSettingsStore_CorruptFileDegradesToDefaults(t *testing.T) {
	dir := newTestDir(t)
	if err := os.WriteFile(filepath.Join(dir.Path(), settingsFile), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	got, err := NewSettingsStore(dir).Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got != domain.DefaultSettings() {
		t.Errorf("Load() = %+v, want defaults", got)
	}
}

// ─── Task Tests ─────────────────────────────────────────────────────────────

func TestTaskStore_RoundTrip(t *testing.T) {
	store := NewTaskStore(newTestDir(t))
	now := time.Now()
	tasks := []domain.Task{
		domain.NewTask("alpha", 2, 4, now.Add(24*time.Hour), now),
		domain.NewTask("beta", 1, 3, now.Add(24*time.Hour), now),
	}

	if err := store.Save(tasks); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Load() returned %d tasks, want 2", len(got))
	}
	if got[0].ID != tasks[0].ID || got[1].Description != "beta" {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestTaskStore_MissingFileIsEmpty(t *testing.T) {
	got, err := NewTaskStore(newTestDir(t)).Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Load() = %d tasks, want 0", len(got))
	}
}

func TestTaskStore_CorruptFileIsEmpty(t *testing.T) {
	dir := newTestDir(t)
	os.WriteFile(filepath.Join(dir.Path(), tasksFile), []byte("???"), 0600)
	got, err := NewTaskStore(dir).Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Load() = %d tasks, want 0", len(got))
	}
}

// ─── Ledger Tests ───────────────────────────────────────────────────────────

func TestLedgerStore_AppendStampsBalance(t *testing.T) {
	store := NewLedgerStore(newTestDir(t))

	bal, err := store.Append(domain.LedgerEntry{Type: domain.EntryPayout, Amount: 10})
	if err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	if bal != 10 {
		t.Errorf("balance after first append = %v, want 10", bal)
	}
	bal, err = store.Append(domain.LedgerEntry{Type: domain.EntryForfeit, Amount: -2.5})
	if err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	if bal != 7.5 {
		t.Errorf("balance after second append = %v, want 7.5", bal)
	}

	entries, err := store.Entries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("Entries() = %d, want 2", len(entries))
	}
	if entries[1].Balance != 7.5 {
		t.Errorf("cached balance on last entry = %v, want 7.5", entries[1].Balance)
	}
	if entries[0].Timestamp.IsZero() {
		t.Error("entries should be timestamped")
	}
}

func TestLedgerStore_BalanceMatchesReplay(t *testing.T) {
	store := NewLedgerStore(newTestDir(t))
	amounts := []float64{10, -2.5, 3.33, -0.01, 7.18}
	for _, a := range amounts {
		if _, err := store.Append(domain.LedgerEntry{Type: domain.EntryPayout, Amount: a}); err != nil {
			t.Fatal(err)
		}
	}
	fast, err := store.Balance()
	if err != nil {
		t.Fatal(err)
	}
	slow, err := store.Replay()
	if err != nil {
		t.Fatal(err)
	}
	if fast != slow {
		t.Errorf("fast balance %v != replay %v", fast, slow)
	}
	if want := domain.Round2(10 - 2.5 + 3.33 - 0.01 + 7.18); fast != want {
		t.Errorf("balance = %v, want %v", fast, want)
	}
}

func TestLedgerStore_EmptyBalanceIsZero(t *testing.T) {
	store := NewLedgerStore(newTestDir(t))
	bal, err := store.Balance()
	if err != nil {
		t.Fatalf("Balance() error: %v", err)
	}
	if bal != 0 {
		t.Errorf("Balance() = %v, want 0", bal)
	}
}

func TestLedgerStore_Compact(t *testing.T) {
	store := NewLedgerStore(newTestDir(t))
	now := time.Now()

	// Two old entries (45 and 40 days ago) and two recent ones.
	old := []domain.LedgerEntry{
		{Type: domain.EntryPayout, Amount: 10, Timestamp: now.AddDate(0, 0, -45)},
		{Type: domain.EntryForfeit, Amount: -4, Timestamp: now.AddDate(0, 0, -40)},
	}
	recent := []domain.LedgerEntry{
		{Type: domain.EntryPayout, Amount: 5, Timestamp: now.AddDate(0, 0, -5)},
		{Type: domain.EntryPurchase, Amount: -1, Timestamp: now.AddDate(0, 0, -1)},
	}
	for _, e := range append(append([]domain.LedgerEntry{}, old...), recent...) {
		if _, err := store.Append(e); err != nil {
			t.Fatal(err)
		}
	}
	before, _ := store.Balance()

	cutoff := now.AddDate(0, 0, -30)
	if err := store.Compact(cutoff, now); err != nil {
		t.Fatalf("Compact() error: %v", err)
	}

	entries, _ := store.Entries()
	if len(entries) != 3 {
		t.Fatalf("after compaction: %d entries, want snapshot + 2", len(entries))
	}
	if entries[0].Type != domain.EntrySnapshot {
		t.Errorf("first entry type = %q, want snapshot", entries[0].Type)
	}
	if entries[0].Amount != 0 {
		t.Errorf("snapshot amount = %v, want 0", entries[0].Amount)
	}
	if entries[0].Balance != 6 {
		t.Errorf("snapshot balance = %v, want 6", entries[0].Balance)
	}
	for _, e := range entries[1:] {
		if e.Timestamp.Before(cutoff) {
			t.Errorf("retained entry older than cutoff: %v", e.Timestamp)
		}
	}
	after, err := store.Replay()
	if err != nil {
		t.Fatal(err)
	}
	if after != before {
		t.Errorf("replayed balance after compaction = %v, want %v", after, before)
	}
}

func TestLedgerStore_CompactNothingOld(t *testing.T) {
	store := NewLedgerStore(newTestDir(t))
	now := time.Now()
	store.Append(domain.LedgerEntry{Type: domain.EntryPayout, Amount: 3, Timestamp: now})

	if err := store.Compact(now.AddDate(0, 0, -30), now); err != nil {
		t.Fatalf("Compact() error: %v", err)
	}
	entries, _ := store.Entries()
	if len(entries) != 1 || entries[0].Type != domain.EntryPayout {
		t.Errorf("compaction with nothing old should be a no-op, got %+v", entries)
	}
}

func TestLedgerStore_PurgeSaveBalance(t *testing.T) {
	store := NewLedgerStore(newTestDir(t))
	store.Append(domain.LedgerEntry{Type: domain.EntryPayout, Amount: 12.34})
	store.Append(domain.LedgerEntry{Type: domain.EntryPurchase, Amount: -2.34})

	if err := store.Purge(true, time.Now()); err != nil {
		t.Fatalf("Purge() error: %v", err)
	}
	entries, _ := store.Entries()
	if len(entries) != 1 || entries[0].Type != domain.EntrySnapshot {
		t.Fatalf("after purge: %+v, want single snapshot", entries)
	}
	bal, _ := store.Balance()
	if bal != 10 {
		t.Errorf("balance after purge = %v, want 10", bal)
	}
}

func TestLedgerStore_PurgeDiscardBalance(t *testing.T) {
	store := NewLedgerStore(newTestDir(t))
	store.Append(domain.LedgerEntry{Type: domain.EntryPayout, Amount: 12.34})

	if err := store.Purge(false, time.Now()); err != nil {
		t.Fatalf("Purge() error: %v", err)
	}
	bal, _ := store.Balance()
	if bal != 0 {
		t.Errorf("balance after purge = %v, want 0", bal)
	}
}

// ─── History Tests ──────────────────────────────────────────────────────────

func TestHistoryStore_AppendAndRead(t *testing.T) {
	store := NewHistoryStore(newTestDir(t))
	for i := 0; i < 5; i++ {
		err := store.Append(domain.HistoryEntry{
			Event:       domain.EventCompleted,
			Description: "task",
			BuyIn:       1,
			Payout:      2,
			Amount:      2,
		})
		if err != nil {
			t.Fatalf("Append() error: %v", err)
		}
	}
	got, err := store.Read(3)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("Read(3) = %d entries, want 3", len(got))
	}
	if got[0].Timestamp.IsZero() {
		t.Error("history entries should be timestamped")
	}
}

func TestHistoryStore_LegacyAmountFallback(t *testing.T) {
	dir := newTestDir(t)
	// A legacy record carries the signed magnitude in payout and no amount.
	legacy := `{"event":"purchase","description":"coffee","buy_in":0,"payout":-3.5,"ts":"2026-01-05T10:00:00Z"}` + "\n"
	if err := os.WriteFile(filepath.Join(dir.Path(), historyFile), []byte(legacy), 0600); err != nil {
		t.Fatal(err)
	}
	got, err := NewHistoryStore(dir).Read(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("Read() = %d entries, want 1", len(got))
	}
	if got[0].Amount != -3.5 {
		t.Errorf("legacy Amount = %v, want -3.5 (payout fallback)", got[0].Amount)
	}
}

func TestHistoryStore_SkipsCorruptLines(t *testing.T) {
	dir := newTestDir(t)
	store := NewHistoryStore(dir)
	store.Append(domain.HistoryEntry{Event: domain.EventPurchase, Description: "ok"})
	f, _ := os.OpenFile(filepath.Join(dir.Path(), historyFile), os.O_APPEND|os.O_WRONLY, 0600)
	f.WriteString("garbage line\n")
	f.Close()
	store.Append(domain.HistoryEntry{Event: domain.EventRefund, Description: "also ok"})

	got, err := store.Read(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("Read() = %d entries, want 2 (corrupt line skipped)", len(got))
	}
}

func TestHistoryStore_Purge(t *testing.T) {
	store := NewHistoryStore(newTestDir(t))
	store.Append(domain.HistoryEntry{Event: domain.EventPurchase, Description: "x"})
	if err := store.Purge(); err != nil {
		t.Fatalf("Purge() error: %v", err)
	}
	got, _ := store.Read(0)
	if len(got) != 0 {
		t.Errorf("Read() after purge = %d entries, want 0", len(got))
	}
	// Purging again with no file must not error.
	if err := store.Purge(); err != nil {
		t.Errorf("second Purge() error: %v", err)
	}
}

package sweep

import (
	"testing"
	"time"

	"github.com/stakedo/stakedo/internal/app/engine"
	"github.com/stakedo/stakedo/internal/domain"
	"github.com/stakedo/stakedo/internal/infra/jsonfile"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

var monday1130 = time.Date(2026, 3, 2, 11, 30, 0, 0, time.Local)

func newTestSweeper(t *testing.T, clock *fakeClock) (*Sweeper, *engine.Engine) {
	t.Helper()
	dir, err := jsonfile.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	stores := engine.Stores{
		Settings: jsonfile.NewSettingsStore(dir),
		Tasks:    jsonfile.NewTaskStore(dir),
		Ledger:   jsonfile.NewLedgerStore(dir),
		History:  jsonfile.NewHistoryStore(dir),
	}
	e, err := engine.New(stores, clock)
	if err != nil {
		t.Fatal(err)
	}
	return New(e, clock, DefaultConfig()), e
}

func TestSweep_ForfeitsOverdue(t *testing.T) {
	clock := &fakeClock{now: monday1130}
	s, e := newTestSweeper(t, clock)
	task, err := e.Create("due soon", 2, 4)
	if err != nil {
		t.Fatal(err)
	}

	// Tuesday 13:00, past the Tue 12:00 due date; not a rotation day.
	clock.now = task.DueAt.Add(time.Hour)
	s.Sweep()

	if len(e.Tasks()) != 0 {
		t.Error("sweep should forfeit the overdue task")
	}
	if got := e.Balance(); got != -2 {
		t.Errorf("Balance() = %v, want -2", got)
	}
	hist, _ := e.History(0)
	if len(hist) != 1 || hist[0].Event != domain.EventForfeited {
		t.Errorf("history = %+v, want one forfeited event", hist)
	}
}

func TestSweep_RotatesHistoryOnMonday(t *testing.T) {
	clock := &fakeClock{now: monday1130}
	s, e := newTestSweeper(t, clock)
	if err := e.RecordPurchase("coffee", 2); err != nil {
		t.Fatal(err)
	}

	s.Sweep()

	hist, _ := e.History(0)
	if len(hist) != 0 {
		t.Errorf("history has %d entries after Monday sweep, want 0", len(hist))
	}
	// Balance untouched by rotation.
	if got := e.Balance(); got != -2 {
		t.Errorf("Balance() = %v, want -2", got)
	}
}

func TestSweep_RotatesAtMostOncePerDay(t *testing.T) {
	clock := &fakeClock{now: monday1130}
	s, e := newTestSweeper(t, clock)

	s.Sweep()

	// A record appended later the same Monday survives subsequent sweeps.
	if err := e.RecordPurchase("lunch", 5); err != nil {
		t.Fatal(err)
	}
	clock.now = monday1130.Add(10 * time.Minute)
	s.Sweep()

	hist, _ := e.History(0)
	if len(hist) != 1 {
		t.Errorf("history has %d entries, want 1 (single rotation per day)", len(hist))
	}
}

func TestSweep_NoRotationMidweek(t *testing.T) {
	wednesday := time.Date(2026, 3, 4, 11, 30, 0, 0, time.Local)
	clock := &fakeClock{now: wednesday}
	s, e := newTestSweeper(t, clock)
	if err := e.RecordPurchase("coffee", 2); err != nil {
		t.Fatal(err)
	}

	s.Sweep()

	hist, _ := e.History(0)
	if len(hist) != 1 {
		t.Errorf("history has %d entries after midweek sweep, want 1", len(hist))
	}
}

func TestSweep_SkipWhileRunning(t *testing.T) {
	clock := &fakeClock{now: monday1130}
	s, _ := newTestSweeper(t, clock)

	// Simulate an in-flight pass; the tick must be skipped, not queued.
	s.running.Store(true)
	s.Sweep()
	s.running.Store(false)

	s.Sweep() // runs normally afterwards
}

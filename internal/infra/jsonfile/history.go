package jsonfile

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/stakedo/stakedo/internal/domain"
)

// HistoryStore is the append-only audit log, history.jsonl.
type HistoryStore struct {
	dir *Dir
}

// NewHistoryStore returns a history store rooted at dir.
func NewHistoryStore(dir *Dir) *HistoryStore {
	return &HistoryStore{dir: dir}
}

// Append writes one audit record, stamping a timestamp if the caller left it
// zero.
func (s *HistoryStore) Append(e domain.HistoryEntry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	return s.dir.appendLine(historyFile, e)
}

// histLine is the on-disk shape. Amount is a pointer so records written by
// the legacy schema (no amount field, signed magnitude carried in payout) can
// be told apart from records with an explicit zero amount.
type histLine struct {
	Event       domain.EventKind `json:"event"`
	TaskID      string           `json:"task_id,omitempty"`
	Description string           `json:"description"`
	BuyIn       float64          `json:"buy_in"`
	Payout      float64          `json:"payout"`
	Amount      *float64         `json:"amount,omitempty"`
	Timestamp   time.Time        `json:"ts"`
}

// Read returns up to limit of the most recent records, oldest first.
// Corrupt lines are skipped.
func (s *HistoryStore) Read(limit int) ([]domain.HistoryEntry, error) {
	f, err := os.Open(s.dir.file(historyFile))
	if err != nil {
		return nil, nil
	}
	defer f.Close()

	var entries []domain.HistoryEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var h histLine
		if err := json.Unmarshal(line, &h); err != nil {
			continue
		}
		e := domain.HistoryEntry{
			Event:       h.Event,
			TaskID:      h.TaskID,
			Description: h.Description,
			BuyIn:       h.BuyIn,
			Payout:      h.Payout,
			Timestamp:   h.Timestamp,
		}
		if h.Amount != nil {
			e.Amount = *h.Amount
		} else {
			e.Amount = h.Payout
		}
		entries = append(entries, e)
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

// Purge removes the history file.
func (s *HistoryStore) Purge() error {
	if err := os.Remove(s.dir.file(historyFile)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove history: %w", err)
	}
	return nil
}

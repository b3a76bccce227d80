package jsonfile

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/stakedo/stakedo/internal/domain"
)

// LedgerStore is the append-only monetary log, ledger.jsonl. Each line is a
// self-contained record carrying the running balance at append time.
type LedgerStore struct {
	dir *Dir
}

// NewLedgerStore returns a ledger store rooted at dir.
func NewLedgerStore(dir *Dir) *LedgerStore {
	return &LedgerStore{dir: dir}
}

// Append stamps the entry with the new running balance (and a timestamp if
// the caller left it zero), writes it as one line and returns the balance.
func (s *LedgerStore) Append(e domain.LedgerEntry) (float64, error) {
	balance, err := s.Balance()
	if err != nil {
		return 0, err
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	e.Balance = domain.Round2(balance + e.Amount)
	if err := s.dir.appendLine(ledgerFile, e); err != nil {
		return 0, err
	}
	return e.Balance, nil
}

// Balance returns the current balance: the cached balance on the last entry
// when one exists (fast path), otherwise a full replay of the amounts.
func (s *LedgerStore) Balance() (float64, error) {
	entries, err := s.Entries()
	if err != nil || len(entries) == 0 {
		return 0, err
	}
	return entries[len(entries)-1].Balance, nil
}

// Entries reads every ledger line in order, skipping corrupt lines.
func (s *LedgerStore) Entries() ([]domain.LedgerEntry, error) {
	f, err := os.Open(s.dir.file(ledgerFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, nil
	}
	defer f.Close()

	var entries []domain.LedgerEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var e domain.LedgerEntry
		if err := json.Unmarshal(line, &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Replay recomputes the balance from the beginning — the authoritative slow
// path. Snapshot entries set the running total directly; every other entry
// adds its amount.
func (s *LedgerStore) Replay() (float64, error) {
	entries, err := s.Entries()
	if err != nil {
		return 0, err
	}
	return replay(entries), nil
}

func replay(entries []domain.LedgerEntry) float64 {
	var total float64
	for _, e := range entries {
		if e.Type == domain.EntrySnapshot {
			total = e.Balance
			continue
		}
		total += e.Amount
	}
	return domain.Round2(total)
}

// Compact collapses every entry older than cutoff into one snapshot entry
// carrying their net balance, keeps newer entries verbatim, and rewrites the
// file as [snapshot] + [newer]. The recomputed balance is unchanged.
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
	snapshot := domain.LedgerEntry{
		Type:        domain.EntrySnapshot,
		Description: fmt.Sprintf("compacted %d entries", len(old)),
		Amount:      0,
		Timestamp:   now,
		Balance:     replay(old),
	}
	return s.rewrite(append([]domain.LedgerEntry{snapshot}, newer...))
}

// Purge discards the ledger. With saveBalance the current balance survives
// as a single snapshot entry; otherwise the file is removed and the balance
// resets to zero.
func (s *LedgerStore) Purge(saveBalance bool, now time.Time) error {
	if !saveBalance {
		if err := os.Remove(s.dir.file(ledgerFile)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove ledger: %w", err)
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
	var buf []byte
	for _, e := range entries {
		line, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode ledger entry: %w", err)
		}
		buf = append(buf, line...)
		buf = append(buf, '\n')
	}
	return s.dir.writeAtomic(ledgerFile, buf)
}

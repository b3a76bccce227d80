package window

import (
	"errors"
	"testing"
	"time"

	"github.com/stakedo/stakedo/internal/domain"
)

func at(day time.Time, hh, mm int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hh, mm, 0, 0, day.Location())
}

var monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.Local) // a Monday

// ─── ParseHHMM Tests ────────────────────────────────────────────────────────

func TestParseHHMM(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{"11:00", TimeOfDay{11, 0}, false},
		{"23:59", TimeOfDay{23, 59}, false},
		{"0:05", TimeOfDay{0, 5}, false},
		{"24:00", TimeOfDay{}, true},
		{"11:60", TimeOfDay{}, true},
		{"noon", TimeOfDay{}, true},
		{"", TimeOfDay{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHHMM(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseHHMM(%q) expected error", tt.in)
				}
				if !errors.Is(err, domain.ErrInvalidWindow) {
					t.Errorf("error %v should wrap ErrInvalidWindow", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseHHMM(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseHHMM(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

// ─── Window Resolution Tests ────────────────────────────────────────────────

func TestFor_SameDay(t *testing.T) {
	r, err := NewResolver("11:00", "12:00")
	if err != nil {
		t.Fatal(err)
	}
	w := r.For(monday)
	if !w.Start.Equal(at(monday, 11, 0)) {
		t.Errorf("Start = %v, want 11:00", w.Start)
	}
	if !w.End.Equal(at(monday, 12, 0)) {
		t.Errorf("End = %v, want 12:00", w.End)
	}
	if w.CrossesMidnight() {
		t.Error("11:00–12:00 should not cross midnight")
	}
}

func TestFor_CrossesMidnight(t *testing.T) {
	r, _ := NewResolver("23:00", "02:00")
	w := r.For(monday)
	if !w.Start.Equal(at(monday, 23, 0)) {
		t.Errorf("Start = %v, want Mon 23:00", w.Start)
	}
	wantEnd := at(monday.AddDate(0, 0, 1), 2, 0)
	if !w.End.Equal(wantEnd) {
		t.Errorf("End = %v, want Tue 02:00", w.End)
	}
	if !w.CrossesMidnight() {
		t.Error("23:00–02:00 should cross midnight")
	}
}

func TestContains_InclusiveBounds(t *testing.T) {
	r, _ := NewResolver("11:00", "12:00")
	w := r.For(monday)
	if !w.Contains(w.Start) {
		t.Error("start boundary should count as inside")
	}
	if !w.Contains(w.End) {
		t.Error("end boundary should count as inside")
	}
	if w.Contains(w.End.Add(time.Second)) {
		t.Error("one second past end should be outside")
	}
}

// ─── InWindow Tests ─────────────────────────────────────────────────────────

func TestInWindow_Overnight(t *testing.T) {
	r, _ := NewResolver("23:00", "02:00")
	tuesday := monday.AddDate(0, 0, 1)

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"01:30 next day is still open", at(tuesday, 1, 30), true},
		{"22:59 before window opens", at(monday, 22, 59), false},
		{"03:00 after window closed", at(tuesday, 3, 0), false},
		{"23:00 opening boundary", at(monday, 23, 0), true},
		{"02:00 closing boundary next day", at(tuesday, 2, 0), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.InWindow(tt.at); got != tt.want {
				t.Errorf("InWindow(%v) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestInWindow_Daytime(t *testing.T) {
	r, _ := NewResolver("11:00", "12:00")

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"inside", at(monday, 11, 30), true},
		{"before", at(monday, 10, 59), false},
		{"after", at(monday, 12, 1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.InWindow(tt.at); got != tt.want {
				t.Errorf("InWindow(%v) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestNewResolver_BadInput(t *testing.T) {
	if _, err := NewResolver("11:00", "late"); err == nil {
		t.Error("expected error for bad end time")
	}
	if _, err := NewResolver("soon", "12:00"); err == nil {
		t.Error("expected error for bad start time")
	}
}

package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/yourusername/tick-replay/internal/models"
)

type fakeRows struct {
	rows [][]any
	pos  int
	err  error
}

func (f *fakeRows) Next() bool {
	if f.pos >= len(f.rows) {
		return false
	}
	f.pos++
	return true
}

func (f *fakeRows) Scan(dest ...any) error {
	row := f.rows[f.pos-1]
	for i, d := range dest {
		switch v := d.(type) {
		case *time.Time:
			*v = row[i].(time.Time)
		case *string:
			*v = row[i].(string)
		case *bool:
			*v = row[i].(bool)
		default:
			return errors.New("unsupported scan destination")
		}
	}
	return nil
}

func (f *fakeRows) Err() error { return f.err }

func TestScanTicks(t *testing.T) {
	ts := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	rows := &fakeRows{rows: [][]any{
		{ts, "BTCUSDT", "65000.12345678", "0.5", "Buy", "t-1", false},
		{ts.Add(time.Second), "BTCUSDT", "65001", "1.25", "Sell", "t-2", true},
	}}

	ticks, err := scanTicks(rows)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(ticks) != 2 {
		t.Fatalf("expected 2 ticks, got %d", len(ticks))
	}
	if ticks[0].Price.String() != "65000.12345678" {
		t.Fatalf("price precision lost: %s", ticks[0].Price)
	}
	if ticks[1].Side != models.TradeSideSell {
		t.Fatalf("unexpected side: %s", ticks[1].Side)
	}
	if !ticks[1].IsBuyerMaker {
		t.Fatal("expected buyer maker flag")
	}
}

func TestScanTicksRejectsBadSide(t *testing.T) {
	rows := &fakeRows{rows: [][]any{
		{time.Now().UTC(), "BTCUSDT", "100", "1", "Short", "t-1", false},
	}}
	if _, err := scanTicks(rows); err == nil {
		t.Fatal("expected error for unknown side")
	}
}

func TestScanTicksPropagatesRowError(t *testing.T) {
	rows := &fakeRows{err: errors.New("broken pipe")}
	if _, err := scanTicks(rows); !errors.Is(err, models.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

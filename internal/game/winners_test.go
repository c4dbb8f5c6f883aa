package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWinnerLedger_Submit(t *testing.T) {
	cfg := testConfig(time.Unix(1_700_000_000, 0))
	now := time.Unix(1_700_001_000, 0)

	l := NewWinnerLedger()
	rec, added, err := l.Submit("h1", "Sacha", "4271", cfg, now)

	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, "h1", rec.HunterID)
	assert.Equal(t, "Sacha", rec.HunterName)
	assert.Equal(t, now, rec.CaughtAt)
	assert.Equal(t, 1, l.Count())
}

func TestWinnerLedger_WrongCodeMutatesNothing(t *testing.T) {
	cfg := testConfig(time.Unix(1_700_000_000, 0))
	l := NewWinnerLedger()

	_, added, err := l.Submit("h1", "Sacha", "0000", cfg, time.Now())

	assert.ErrorIs(t, err, ErrWrongCode)
	assert.False(t, added)
	assert.Equal(t, 0, l.Count())

	// Retry with the right code succeeds.
	_, added, err = l.Submit("h1", "Sacha", "4271", cfg, time.Now())
	require.NoError(t, err)
	assert.True(t, added)
}

func TestWinnerLedger_ResubmissionIsIdempotent(t *testing.T) {
	cfg := testConfig(time.Unix(1_700_000_000, 0))
	first := time.Unix(1_700_001_000, 0)

	l := NewWinnerLedger()
	rec1, _, err := l.Submit("h1", "Sacha", "4271", cfg, first)
	require.NoError(t, err)

	rec2, added, err := l.Submit("h1", "Sacha", "4271", cfg, first.Add(time.Minute))

	require.NoError(t, err, "resubmission is a no-op, not an error")
	assert.False(t, added)
	assert.Equal(t, rec1, rec2, "original record is preserved")
	assert.Equal(t, 1, l.Count())
}

func TestWinnerLedger_OrderedByCaughtAt(t *testing.T) {
	cfg := testConfig(time.Unix(1_700_000_000, 0))
	t1 := time.Unix(1_700_001_000, 0)
	t2 := t1.Add(2 * time.Minute)

	l := NewWinnerLedger()
	// Arrival order reversed relative to catch times.
	_, _, err := l.Submit("late", "Late", "4271", cfg, t2)
	require.NoError(t, err)
	_, _, err = l.Submit("early", "Early", "4271", cfg, t1)
	require.NoError(t, err)

	records := l.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "early", records[0].HunterID)
	assert.Equal(t, "late", records[1].HunterID)
}

func TestWinnerLedger_ReplaceSortsAndDeduplicates(t *testing.T) {
	t1 := time.Unix(1_700_001_000, 0)
	t2 := t1.Add(time.Minute)

	l := NewWinnerLedger()
	// Out-of-order stream with a duplicate hunter.
	l.Replace([]WinnerRecord{
		{HunterID: "b", HunterName: "B", CaughtAt: t2},
		{HunterID: "a", HunterName: "A", CaughtAt: t1},
		{HunterID: "a", HunterName: "A", CaughtAt: t2},
	})

	records := l.Records()
	require.Len(t, records, 2)
	assert.Equal(t, t1, records[0].CaughtAt)
	assert.Equal(t, t2, records[1].CaughtAt)
}

func TestLatestWinner(t *testing.T) {
	t1 := time.Unix(1_700_001_000, 0)
	records := []WinnerRecord{
		{HunterID: "a", CaughtAt: t1},
		{HunterID: "b", CaughtAt: t1.Add(time.Minute)},
	}

	tests := []struct {
		name          string
		records       []WinnerRecord
		previousCount int
		wantID        string
		wantOK        bool
	}{
		{"new winner arrived", records, 1, "b", true},
		{"two new winners pick ledger-latest", records, 0, "b", true},
		{"no change", records, 2, "", false},
		{"stale count larger than ledger", records[:1], 2, "", false},
		{"empty ledger", nil, 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, ok := LatestWinner(tt.records, tt.previousCount)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantID, rec.HunterID)
			}
		})
	}
}

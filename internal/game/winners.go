package game

import (
	"errors"
	"sort"
	"time"
)

// ErrWrongCode is returned when a submitted found code does not match. The
// caller surfaces it as a retryable alert; no state changes.
var ErrWrongCode = errors.New("wrong found code")

// WinnerRecord is one hunter's proven catch. The leaderboard is the set of
// records sorted by CaughtAt ascending.
type WinnerRecord struct {
	HunterID   string    `json:"hunter_id"`
	HunterName string    `json:"hunter_name"`
	CaughtAt   time.Time `json:"caught_at"`
}

// WinnerLedger is the append-only, order-preserving record of hunters who
// found the chicken. A hunter appears at most once. Not safe for concurrent
// use; the owning session serializes access.
type WinnerLedger struct {
	records  []WinnerRecord
	byHunter map[string]WinnerRecord
}

// NewWinnerLedger creates an empty ledger.
func NewWinnerLedger() *WinnerLedger {
	return &WinnerLedger{byHunter: make(map[string]WinnerRecord)}
}

// Submit checks enteredCode against the game's found code and, on the first
// match for this hunter, appends a record stamped at now. Resubmission by a
// hunter already on the ledger returns the existing record with added=false;
// it is a no-op, not an error. A wrong code returns ErrWrongCode and mutates
// nothing.
func (l *WinnerLedger) Submit(hunterID, hunterName, enteredCode string, cfg *GameConfig, now time.Time) (rec WinnerRecord, added bool, err error) {
	if enteredCode != cfg.FoundCode {
		return WinnerRecord{}, false, ErrWrongCode
	}
	if existing, ok := l.byHunter[hunterID]; ok {
		return existing, false, nil
	}

	rec = WinnerRecord{HunterID: hunterID, HunterName: hunterName, CaughtAt: now}
	l.byHunter[hunterID] = rec
	l.records = append(l.records, rec)
	sortByCaughtAt(l.records)
	return rec, true, nil
}

// Replace resets the ledger from a streamed snapshot, keeping CaughtAt
// ordering regardless of arrival order and dropping duplicate hunters.
func (l *WinnerLedger) Replace(records []WinnerRecord) {
	l.records = l.records[:0]
	l.byHunter = make(map[string]WinnerRecord, len(records))
	for _, r := range records {
		if _, ok := l.byHunter[r.HunterID]; ok {
			continue
		}
		l.byHunter[r.HunterID] = r
		l.records = append(l.records, r)
	}
	sortByCaughtAt(l.records)
}

// Records returns the leaderboard in CaughtAt-ascending order.
func (l *WinnerLedger) Records() []WinnerRecord {
	out := make([]WinnerRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Count returns the number of winners.
func (l *WinnerLedger) Count() int {
	return len(l.records)
}

// LatestWinner compares a previously observed winner count against the
// current leaderboard and returns the newest entry when one or more winners
// arrived. "Newest" is position newCount-1 in ledger order, not whichever
// record this viewer happened to receive last.
func LatestWinner(records []WinnerRecord, previousCount int) (WinnerRecord, bool) {
	if len(records) <= previousCount || len(records) == 0 {
		return WinnerRecord{}, false
	}
	return records[len(records)-1], true
}

func sortByCaughtAt(records []WinnerRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CaughtAt.Before(records[j].CaughtAt)
	})
}

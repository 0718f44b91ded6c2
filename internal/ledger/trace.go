package ledger

import (
	"strconv"
	"sync"

	"cabwatch/pkg/models"
)

// TraceLedger maintains one append-only hash chain of zone transitions per
// cab. The coordinator appends exactly when a cab's owning zone changes,
// or on first observation inside a zone's radius.
type TraceLedger struct {
	mu    sync.RWMutex
	byCab map[string][]models.TraceEntry
}

// NewTraceLedger creates an empty trace ledger.
func NewTraceLedger() *TraceLedger {
	return &TraceLedger{byCab: make(map[string][]models.TraceEntry)}
}

// Append links a new transition entry onto the cab's chain and returns the
// full updated chain.
func (l *TraceLedger) Append(cabID string, zone models.Zone, tsMs int64) []models.TraceEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	chain := l.byCab[cabID]
	prev := models.GenesisHash
	if len(chain) > 0 {
		prev = chain[len(chain)-1].Hash
	}
	entry := models.TraceEntry{
		ZoneID:      zone.ID,
		ZoneName:    zone.Name,
		TimestampMs: tsMs,
		PrevHash:    prev,
		Hash:        traceHash(zone.ID, zone.Name, tsMs, prev),
	}
	chain = append(chain, entry)
	l.byCab[cabID] = chain

	out := make([]models.TraceEntry, len(chain))
	copy(out, chain)
	return out
}

// Chain returns a copy of the cab's chain, empty for unknown cabs.
func (l *TraceLedger) Chain(cabID string) []models.TraceEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	chain := l.byCab[cabID]
	out := make([]models.TraceEntry, len(chain))
	copy(out, chain)
	return out
}

// EntriesSince counts chain entries at or after sinceMs. The distress
// detector uses it to spot abnormal zone churn.
func (l *TraceLedger) EntriesSince(cabID string, sinceMs int64) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := 0
	for _, e := range l.byCab[cabID] {
		if e.TimestampMs >= sinceMs {
			n++
		}
	}
	return n
}

// VerifyTrace re-hashes every entry and checks linkage. A nil return means
// the chain is intact.
func VerifyTrace(chain []models.TraceEntry) error {
	for i, e := range chain {
		want := models.GenesisHash
		if i > 0 {
			want = chain[i-1].Hash
		}
		if e.PrevHash != want {
			return &TamperError{Index: i, Reason: "previous hash mismatch"}
		}
		if traceHash(e.ZoneID, e.ZoneName, e.TimestampMs, e.PrevHash) != e.Hash {
			return &TamperError{Index: i, Reason: "recorded hash does not match fields"}
		}
	}
	return nil
}

func traceHash(zoneID, zoneName string, tsMs int64, prevHash string) string {
	return LinkHash(prevHash, zoneID, zoneName, strconv.FormatInt(tsMs, 10))
}

package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// LinkHash is the single append-with-link primitive shared by the trace
// and alert ledgers. It digests the entry fields in order, then the
// previous hash, so chain linkage is enforced in exactly one place.
func LinkHash(prevHash string, fields ...string) string {
	h := sha256.New()
	for _, f := range fields {
		h.Write([]byte(f))
		h.Write([]byte{'|'})
	}
	h.Write([]byte(prevHash))
	return hex.EncodeToString(h.Sum(nil))
}

// TamperError reports the first broken link found while verifying a chain.
type TamperError struct {
	Index  int
	Reason string
}

func (e *TamperError) Error() string {
	return fmt.Sprintf("ledger: chain tampered at entry %d: %s", e.Index, e.Reason)
}

package ledger

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"cabwatch/internal/geo"
	"cabwatch/pkg/models"
)

// ErrInvalidSignature rejects a signed submission whose signature does not
// verify against the declared public key and payload bytes. Nothing is
// stored or broadcast for a rejected submission.
var ErrInvalidSignature = errors.New("ledger: invalid alert signature")

// AlertLedger holds the single global hash chain of emergency records.
// Every append, from the signed-submission path or the internal detector
// path, serializes under one exclusive lock so the previous-hash linkage
// is never computed from a stale tail.
type AlertLedger struct {
	mu    sync.Mutex
	chain []models.AlertRecord

	pub  ed25519.PublicKey
	priv ed25519.PrivateKey

	now func() time.Time
}

// NewAlertLedger creates an empty ledger with a freshly generated signing
// keypair for system-attested records.
func NewAlertLedger() (*AlertLedger, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, fmt.Errorf("generate ledger keypair: %w", err)
	}
	return &AlertLedger{pub: pub, priv: priv, now: time.Now}, nil
}

// PublicKeyHex exposes the ledger's own verification key.
func (l *AlertLedger) PublicKeyHex() string {
	return hex.EncodeToString(l.pub)
}

// SubmitSigned verifies signatureHex (over the exact payload bytes, using
// publicKeyHex) and, on success, links a MANUAL record into the chain. Per
// the demo trust boundary, an empty signature is accepted and countersigned
// by the ledger itself; real deployments must reject it upstream.
func (l *AlertLedger) SubmitSigned(payloadBytes []byte, signatureHex, publicKeyHex string) (models.AlertRecord, error) {
	var payload models.AlertPayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		return models.AlertRecord{}, fmt.Errorf("decode alert payload: %w", err)
	}

	signatureHex = strings.TrimSpace(signatureHex)
	if signatureHex == "" {
		return l.append(payload, nil, models.SourceManual, l.pub, nil), nil
	}

	sig, err := hex.DecodeString(signatureHex)
	if err != nil {
		return models.AlertRecord{}, ErrInvalidSignature
	}
	pubRaw, err := hex.DecodeString(strings.TrimSpace(publicKeyHex))
	if err != nil || len(pubRaw) != ed25519.PublicKeySize {
		return models.AlertRecord{}, ErrInvalidSignature
	}
	pub := ed25519.PublicKey(pubRaw)
	if !ed25519.Verify(pub, payloadBytes, sig) {
		return models.AlertRecord{}, ErrInvalidSignature
	}

	return l.append(payload, nil, models.SourceManual, pub, sig), nil
}

// SubmitInternal links a detector-originated record into the chain. The
// ledger signs it with its own key so consumers can tell system-attested
// AUTO records from externally signed MANUAL ones.
func (l *AlertLedger) SubmitInternal(payload models.AlertPayload, triggers []models.TriggerKind) models.AlertRecord {
	return l.append(payload, triggers, models.SourceAuto, l.pub, nil)
}

func (l *AlertLedger) append(payload models.AlertPayload, triggers []models.TriggerKind, source string, pub ed25519.PublicKey, sig []byte) models.AlertRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	tsMs := payload.TimestampMs
	if tsMs == 0 {
		tsMs = l.now().UnixMilli()
	}
	severity := payload.Severity
	if severity == "" {
		severity = models.SeverityMedium
	}

	prev := models.GenesisHash
	if len(l.chain) > 0 {
		prev = l.chain[len(l.chain)-1].Hash
	}

	rec := models.AlertRecord{
		ID:          uuid.NewString(),
		CabID:       payload.CabID,
		TripID:      payload.TripID,
		Location:    payload.Location,
		Severity:    severity,
		Triggers:    triggers,
		Note:        payload.Note,
		TimestampMs: tsMs,
		PrevHash:    prev,
		PublicKey:   hex.EncodeToString(pub),
		Source:      source,
	}
	rec.Hash = alertHash(rec)

	if sig == nil {
		// System-attested path: the ledger signs the record hash itself.
		sig = ed25519.Sign(l.priv, []byte(rec.Hash))
	}
	rec.Signature = hex.EncodeToString(sig)

	l.chain = append(l.chain, rec)
	return rec
}

// Chain returns a copy of the full global chain in append order.
func (l *AlertLedger) Chain() []models.AlertRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]models.AlertRecord, len(l.chain))
	copy(out, l.chain)
	return out
}

// Pending returns every record not yet delivered to any zone subscriber.
func (l *AlertLedger) Pending() []models.AlertRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []models.AlertRecord
	for _, rec := range l.chain {
		if !rec.Delivered {
			out = append(out, rec)
		}
	}
	return out
}

// PendingForZone returns the undelivered records whose location falls
// inside the zone's containment radius, marking them delivered. This is
// the store-and-forward path for subscribers that join late.
func (l *AlertLedger) PendingForZone(zone models.Zone) []models.AlertRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []models.AlertRecord
	for i := range l.chain {
		rec := &l.chain[i]
		if rec.Delivered {
			continue
		}
		d := geo.DistanceKm(rec.Location.Lat, rec.Location.Lon, zone.Lat, zone.Lon)
		if d <= zone.RadiusKm {
			rec.Delivered = true
			out = append(out, *rec)
		}
	}
	return out
}

// VerifyAlerts re-hashes every record and checks global linkage.
func VerifyAlerts(chain []models.AlertRecord) error {
	for i, rec := range chain {
		want := models.GenesisHash
		if i > 0 {
			want = chain[i-1].Hash
		}
		if rec.PrevHash != want {
			return &TamperError{Index: i, Reason: "previous hash mismatch"}
		}
		if alertHash(rec) != rec.Hash {
			return &TamperError{Index: i, Reason: "recorded hash does not match fields"}
		}
	}
	return nil
}

// alertHash covers every attestation-relevant field. Delivered stays out
// because store-and-forward flips it after the fact; Signature stays out
// because it is computed over the hash.
func alertHash(rec models.AlertRecord) string {
	fields := []string{
		rec.ID,
		rec.CabID,
		rec.TripID,
		strconv.FormatFloat(rec.Location.Lat, 'f', -1, 64),
		strconv.FormatFloat(rec.Location.Lon, 'f', -1, 64),
		rec.Severity,
		rec.Note,
		strconv.FormatInt(rec.TimestampMs, 10),
		rec.Source,
		rec.PublicKey,
	}
	for _, tr := range rec.Triggers {
		fields = append(fields, string(tr))
	}
	return LinkHash(rec.PrevHash, fields...)
}

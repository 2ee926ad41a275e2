package domain

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"whereis/internal/core/canonjson"
)

// FingerprintPrefix tags every event fingerprint.
const FingerprintPrefix = "ev_"

// Fingerprint derives the identity of a raw carrier record:
// "ev_" + hex(MD5(carrier + 0x00 + canonical JSON of raw)).
//
// Only the raw record is hashed, so changes to normalization never invalidate
// stored fingerprints. The carrier tag keeps structurally identical records
// from different carriers apart.
func Fingerprint(carrier Carrier, raw json.RawMessage) (string, error) {
	canonical, err := canonjson.Marshal(raw)
	if err != nil {
		return "", fmt.Errorf("fingerprint %s record: %w", carrier, err)
	}

	h := md5.New()
	h.Write([]byte(carrier))
	h.Write([]byte{0x00})
	h.Write(canonical)

	return FingerprintPrefix + hex.EncodeToString(h.Sum(nil)), nil
}

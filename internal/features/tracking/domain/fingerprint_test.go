package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFingerprint_Deterministic verifies that equal records hash equally regardless of key order and whitespace.
func TestFingerprint_Deterministic(t *testing.T) {
	a := json.RawMessage(`{"opCode":"30","acceptTime":"2024-03-01 09:00:00","remark":"Shipment collected"}`)
	b := json.RawMessage(`{
		"remark": "Shipment collected",
		"acceptTime": "2024-03-01 09:00:00",
		"opCode": "30"
	}`)

	fa, err := Fingerprint(CarrierSFExpress, a)
	require.NoError(t, err)
	fb, err := Fingerprint(CarrierSFExpress, b)
	require.NoError(t, err)

	assert.Equal(t, fa, fb)
	assert.True(t, strings.HasPrefix(fa, FingerprintPrefix))
	assert.Len(t, fa, len(FingerprintPrefix)+32)
}

// TestFingerprint_Distinct verifies that content and carrier both affect the fingerprint.
func TestFingerprint_Distinct(t *testing.T) {
	raw := json.RawMessage(`{"eventType":"PU","date":"2024-03-01T09:00:00+08:00"}`)
	other := json.RawMessage(`{"eventType":"DL","date":"2024-03-01T09:00:00+08:00"}`)

	f1, err := Fingerprint(CarrierFedEx, raw)
	require.NoError(t, err)
	f2, err := Fingerprint(CarrierFedEx, other)
	require.NoError(t, err)
	f3, err := Fingerprint(CarrierSFExpress, raw)
	require.NoError(t, err)

	assert.NotEqual(t, f1, f2)
	assert.NotEqual(t, f1, f3)
}

// TestFingerprint_InvalidJSON verifies that undecodable records are rejected.
func TestFingerprint_InvalidJSON(t *testing.T) {
	_, err := Fingerprint(CarrierFedEx, json.RawMessage(`{"broken"`))
	require.Error(t, err)
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseTrackingID verifies parsing of valid and invalid identifiers.
func TestParseTrackingID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantCode ErrorCode
		want     TrackingID
	}{
		{name: "sf express", input: "sfex-SF1234567890123", want: TrackingID{Carrier: CarrierSFExpress, Number: "SF1234567890123"}},
		{name: "fedex", input: "fdx-123456789012", want: TrackingID{Carrier: CarrierFedEx, Number: "123456789012"}},
		{name: "empty", input: "", wantCode: CodeEmptyTrackingID},
		{name: "blank", input: "   ", wantCode: CodeEmptyTrackingID},
		{name: "short sf number", input: "sfex-SF123", wantCode: CodeInvalidTrackingNumber},
		{name: "sf number without prefix", input: "sfex-XX1234567890123", wantCode: CodeInvalidTrackingNumber},
		{name: "fedex wrong length", input: "fdx-1234", wantCode: CodeInvalidTrackingNumber},
		{name: "unsupported carrier", input: "ups-12345", wantCode: CodeUnsupportedCarrier},
		{name: "no separator", input: "fdx123456789012", wantCode: CodeMalformedTrackingID},
		{name: "two separators", input: "fdx-1234-5678", wantCode: CodeMalformedTrackingID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ParseTrackingID(tt.input)
			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.want, id)
				assert.Equal(t, tt.input, id.String())
				return
			}

			require.Error(t, err)
			assert.True(t, id.IsZero(), "no partial value on error")

			ve, ok := AsValidationError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, ve.Code)
		})
	}
}

// TestCarrier_IsRegistered verifies the registered carrier set.
func TestCarrier_IsRegistered(t *testing.T) {
	for _, c := range Carriers() {
		assert.True(t, c.IsRegistered(), c)
	}
	assert.False(t, Carrier("ups").IsRegistered())
}

// TestErrorRegistry verifies default messages and file overrides.
func TestErrorRegistry(t *testing.T) {
	reg := DefaultErrorRegistry()
	assert.Equal(t, "carrier is not supported", reg.Message(CodeUnsupportedCarrier))
	assert.Empty(t, reg.Message("999-99"))

	path := writeTempFile(t, `{"400-04": "carrier not handled here"}`)
	reg, err := LoadErrorRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, "carrier not handled here", reg.Message(CodeUnsupportedCarrier))
	assert.Equal(t, "tracking identifier is empty", reg.Message(CodeEmptyTrackingID))

	// Overrides never leak into the defaults.
	assert.Equal(t, "carrier is not supported", DefaultErrorRegistry().Message(CodeUnsupportedCarrier))
}

package domain

import (
	"strings"
)

// Carrier identifies a registered carrier.
type Carrier string

const (
	// CarrierFedEx is FedEx.
	CarrierFedEx Carrier = "fdx"
	// CarrierSFExpress is SF Express.
	CarrierSFExpress Carrier = "sfex"
)

// numberRule validates the carrier-specific part of a tracking identifier.
type numberRule struct {
	length int
	prefix string
}

var carrierRules = map[Carrier]numberRule{
	CarrierFedEx:     {length: 12},
	CarrierSFExpress: {length: 15, prefix: "SF"},
}

// Carriers returns the registered carriers.
func Carriers() []Carrier {
	return []Carrier{CarrierFedEx, CarrierSFExpress}
}

// IsRegistered reports whether c is a known carrier.
func (c Carrier) IsRegistered() bool {
	_, ok := carrierRules[c]
	return ok
}

// TrackingID identifies one shipment at one carrier. The zero value is invalid;
// use ParseTrackingID or NewTrackingID.
type TrackingID struct {
	Carrier Carrier
	Number  string
}

// ParseTrackingID parses a "carrier-number" string.
// It returns a *ValidationError on failure, never a partial TrackingID.
func ParseTrackingID(s string) (TrackingID, error) {
	if strings.TrimSpace(s) == "" {
		return TrackingID{}, NewValidationError(CodeEmptyTrackingID, s)
	}

	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return TrackingID{}, NewValidationError(CodeMalformedTrackingID, s)
	}

	return NewTrackingID(Carrier(parts[0]), parts[1])
}

// NewTrackingID validates the number against the carrier rules.
func NewTrackingID(carrier Carrier, number string) (TrackingID, error) {
	rule, ok := carrierRules[carrier]
	if !ok {
		return TrackingID{}, NewValidationError(CodeUnsupportedCarrier, string(carrier))
	}

	if len(number) != rule.length || !strings.HasPrefix(number, rule.prefix) {
		return TrackingID{}, NewValidationError(CodeInvalidTrackingNumber, string(carrier)+"-"+number)
	}

	return TrackingID{Carrier: carrier, Number: number}, nil
}

// String returns the "carrier-number" form.
func (id TrackingID) String() string {
	return string(id.Carrier) + "-" + id.Number
}

// IsZero reports whether id was never parsed.
func (id TrackingID) IsZero() bool {
	return id.Carrier == "" && id.Number == ""
}

package domain

import (
	"encoding/json"
	"time"
)

// UpdateMethod records how an event was pulled from the carrier.
type UpdateMethod string

const (
	// UpdateMethodAutoPull is used by the periodic sync cycle.
	UpdateMethodAutoPull UpdateMethod = "auto-pull"
	// UpdateMethodManualPull is used by on-demand lookups.
	UpdateMethodManualPull UpdateMethod = "manual-pull"
)

// Provenance describes which carrier and which pull produced an event.
type Provenance struct {
	DataProvider string       `json:"dataProvider"`
	UpdateMethod UpdateMethod `json:"lastUpdateMethod"`
	UpdateTime   time.Time    `json:"lastUpdateTime"`
}

// Event is one observed tracking scan. Events are never modified after creation.
type Event struct {
	// Fingerprint is the content hash of Source; it is the event identity.
	Fingerprint    string
	Carrier        Carrier
	TrackingNumber string
	Status         StatusCode
	What           string
	// When carries the carrier's offset (never a floating local time).
	When       time.Time
	Where      string
	Whom       string
	Notes      string
	Provenance Provenance
	// Source is the untouched carrier record.
	Source json.RawMessage
}

// RawPayload is a decoded carrier response, tagged with the carrier that produced it.
type RawPayload interface {
	Carrier() Carrier
	// Raw returns the response body as received.
	Raw() json.RawMessage
}

// Timeline is the normalized output of a carrier pull.
type Timeline struct {
	// Events are in ascending chronological order.
	Events      []Event
	Origin      string
	Destination string
	// Source is the full carrier response kept for audit.
	Source json.RawMessage
}

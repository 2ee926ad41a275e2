package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EntityTypeWaybill is the only entity type produced by carrier pulls.
const EntityTypeWaybill = "waybill"

// Extra keys understood by the entity view.
const (
	ExtraOrigin      = "origin"
	ExtraDestination = "destination"
)

// Entity is the canonical aggregate of one shipment.
type Entity struct {
	// UUID is the generated aggregate identifier ("eg1_" + uuid).
	UUID   string
	ID     TrackingID
	Type   string
	Params map[string]string
	Extra  map[string]string
	// Events are ordered by insertion, which is chronological ascending.
	Events []Event
}

// NewEntity creates an empty waybill entity for id.
func NewEntity(id TrackingID, params map[string]string) *Entity {
	if params == nil {
		params = map[string]string{}
	}
	return &Entity{
		UUID:   "eg1_" + uuid.NewString(),
		ID:     id,
		Type:   EntityTypeWaybill,
		Params: params,
		Extra:  map[string]string{},
	}
}

// AddEvent appends an event. Events are never removed or reordered.
func (e *Entity) AddEvent(event Event) {
	e.Events = append(e.Events, event)
}

// EventNum returns the number of events.
func (e *Entity) EventNum() int {
	return len(e.Events)
}

// IsCompleted reports whether any event carries the delivered status.
func (e *Entity) IsCompleted() bool {
	for i := len(e.Events) - 1; i >= 0; i-- {
		if e.Events[i].Status == StatusDelivered {
			return true
		}
	}
	return false
}

// LastEvent returns the most recent event, or nil.
func (e *Entity) LastEvent() *Event {
	if len(e.Events) == 0 {
		return nil
	}
	return &e.Events[len(e.Events)-1]
}

// LastMajorEvent returns the most recent major-milestone event, or nil.
func (e *Entity) LastMajorEvent() *Event {
	return e.lastMatching(StatusCode.IsMajor)
}

// LastMinorEvent returns the most recent minor-milestone event, or nil.
func (e *Entity) LastMinorEvent() *Event {
	return e.lastMatching(StatusCode.IsMinor)
}

func (e *Entity) lastMatching(match func(StatusCode) bool) *Event {
	for i := len(e.Events) - 1; i >= 0; i-- {
		if match(e.Events[i].Status) {
			return &e.Events[i]
		}
	}
	return nil
}

// CreationTime is when tracking data first became available: the time of the
// first event. The second return value is false when there are no events.
func (e *Entity) CreationTime() (time.Time, bool) {
	if len(e.Events) == 0 {
		return time.Time{}, false
	}
	return e.Events[0].When, true
}

// Fingerprints returns the set of event fingerprints in the timeline.
func (e *Entity) Fingerprints() map[string]struct{} {
	set := make(map[string]struct{}, len(e.Events))
	for _, ev := range e.Events {
		set[ev.Fingerprint] = struct{}{}
	}
	return set
}

// StatusSummary is the latest status of a shipment.
type StatusSummary struct {
	ID     string     `json:"id"`
	Status StatusCode `json:"status"`
	What   string     `json:"what"`
}

// LastStatus summarizes the latest event, or returns nil when there is none.
func (e *Entity) LastStatus() *StatusSummary {
	last := e.LastEvent()
	if last == nil {
		return nil
	}
	return &StatusSummary{ID: e.ID.String(), Status: last.Status, What: last.What}
}

// EntityView is the JSON representation served to clients.
type EntityView struct {
	Object ObjectView  `json:"object"`
	Events []EventView `json:"events"`
}

// ObjectView describes the shipment itself.
type ObjectView struct {
	UUID         string            `json:"uuid"`
	ID           string            `json:"id"`
	Type         string            `json:"type"`
	CreationTime string            `json:"creationTime"`
	Completed    bool              `json:"completed"`
	Additional   map[string]string `json:"additional,omitempty"`
}

// EventView describes one event.
type EventView struct {
	Status     StatusCode          `json:"status"`
	What       string              `json:"what"`
	When       string              `json:"when"`
	Where      string              `json:"where,omitempty"`
	Whom       string              `json:"whom,omitempty"`
	Additional EventAdditionalView `json:"additional"`
}

// EventAdditionalView holds event metadata.
type EventAdditionalView struct {
	OperatorCode     Carrier      `json:"operatorCode"`
	TrackingNum      string       `json:"trackingNum"`
	Notes            string       `json:"notes,omitempty"`
	DataProvider     string       `json:"dataProvider,omitempty"`
	LastUpdateMethod UpdateMethod `json:"lastUpdateMethod,omitempty"`
	LastUpdateTime   string       `json:"lastUpdateTime,omitempty"`
	// SourceData is the raw carrier record, only present in full views.
	SourceData json.RawMessage `json:"sourceData,omitempty"`
}

// View renders the entity. With fullData, every event includes its raw carrier record.
func (e *Entity) View(fullData bool) EntityView {
	view := EntityView{
		Object: ObjectView{
			UUID:      e.UUID,
			ID:        e.ID.String(),
			Type:      e.Type,
			Completed: e.IsCompleted(),
		},
		Events: make([]EventView, 0, len(e.Events)),
	}

	if created, ok := e.CreationTime(); ok {
		view.Object.CreationTime = created.Format(time.RFC3339)
	}

	additional := map[string]string{}
	for _, key := range []string{ExtraOrigin, ExtraDestination} {
		if v, ok := e.Extra[key]; ok {
			additional[key] = v
		}
	}
	if len(additional) > 0 {
		view.Object.Additional = additional
	}

	for _, ev := range e.Events {
		item := EventView{
			Status: ev.Status,
			What:   ev.What,
			When:   ev.When.Format(time.RFC3339),
			Where:  ev.Where,
			Whom:   ev.Whom,
			Additional: EventAdditionalView{
				OperatorCode:     ev.Carrier,
				TrackingNum:      ev.TrackingNumber,
				Notes:            ev.Notes,
				DataProvider:     ev.Provenance.DataProvider,
				LastUpdateMethod: ev.Provenance.UpdateMethod,
				LastUpdateTime:   formatOptionalTime(ev.Provenance.UpdateTime),
				SourceData:       sourceIf(fullData, ev.Source),
			},
		}
		view.Events = append(view.Events, item)
	}

	return view
}

func formatOptionalTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func sourceIf(include bool, raw json.RawMessage) json.RawMessage {
	if !include {
		return nil
	}
	return raw
}

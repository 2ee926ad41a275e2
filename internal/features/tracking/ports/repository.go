package ports

import (
	"context"
	"encoding/json"
	"errors"

	"whereis/internal/features/tracking/domain"
)

var (
	// ErrEntityNotFound is returned when no entity is stored for an identifier.
	ErrEntityNotFound = errors.New("entity not found")
	// ErrEntityExists is returned when inserting an entity that is already stored.
	ErrEntityExists = errors.New("entity already exists")
)

// PendingShipment is a stored shipment that has not been delivered yet.
type PendingShipment struct {
	ID     domain.TrackingID
	Params map[string]string
}

// Store is the set of storage operations available inside and outside a transaction.
type Store interface {
	// GetEntity loads an entity and its events in insertion order.
	GetEntity(ctx context.Context, id domain.TrackingID) (*domain.Entity, error)
	// Fingerprints returns the event fingerprints stored for id. Inside a
	// transaction it locks the entity row until commit where the engine supports it.
	Fingerprints(ctx context.Context, id domain.TrackingID) (map[string]struct{}, error)
	// InsertEntity stores a new entity with its events. It returns ErrEntityExists
	// when the identifier is already stored.
	InsertEntity(ctx context.Context, e *domain.Entity, source json.RawMessage) error
	// AppendEvents stores events after the existing ones. Already stored fingerprints are ignored.
	AppendEvents(ctx context.Context, id domain.TrackingID, events []domain.Event) error
	// UpdateEntity writes the entity attributes (extra, completed, source).
	UpdateEntity(ctx context.Context, e *domain.Entity, source json.RawMessage) error
	// Pending lists shipments that are not completed.
	Pending(ctx context.Context) ([]PendingShipment, error)
}

// Repository is a Store that can run a function in a transaction.
type Repository interface {
	Store
	// RunInTx runs fn in a transaction. It commits when fn returns nil and rolls back otherwise.
	RunInTx(ctx context.Context, fn func(Store) error) error
}

// EntityCache caches looked-up entities.
type EntityCache interface {
	// Get returns the cached entity or an error wrapping cache.ErrNotFound.
	Get(ctx context.Context, id domain.TrackingID) (*domain.Entity, error)
	Set(ctx context.Context, e *domain.Entity) error
	Delete(ctx context.Context, id domain.TrackingID) error
}

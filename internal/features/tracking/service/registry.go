package service

import (
	"whereis/internal/features/tracking/domain"
	"whereis/internal/features/tracking/ports"
)

// AdapterRegistry resolves the adapter of a carrier. It is read-only after construction.
type AdapterRegistry struct {
	adapters map[domain.Carrier]ports.CarrierAdapter
}

// NewAdapterRegistry indexes adapters by carrier. A later adapter for the same carrier wins.
func NewAdapterRegistry(adapters ...ports.CarrierAdapter) *AdapterRegistry {
	r := &AdapterRegistry{adapters: make(map[domain.Carrier]ports.CarrierAdapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Carrier()] = a
	}
	return r
}

// Get returns the adapter for carrier or a 400-04 validation error.
func (r *AdapterRegistry) Get(carrier domain.Carrier) (ports.CarrierAdapter, error) {
	a, ok := r.adapters[carrier]
	if !ok {
		return nil, domain.NewValidationError(domain.CodeUnsupportedCarrier, string(carrier))
	}
	return a, nil
}

// ValidateParams checks that params holds every parameter the adapter requires.
// A missing or empty parameter yields a 400-03 validation error naming it.
func ValidateParams(adapter ports.CarrierAdapter, params map[string]string) error {
	for _, name := range adapter.RequiredParams() {
		if params[name] == "" {
			return domain.NewValidationError(domain.CodeMissingParam, name)
		}
	}
	return nil
}

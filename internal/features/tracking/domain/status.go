package domain

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"maps"
	"os"
)

// StatusCode is a canonical, carrier-independent shipment status.
// Codes divisible by 100 are major milestones, codes ending in 50 are minor ones.
type StatusCode int

const (
	// StatusUnmapped marks a carrier status with no canonical mapping.
	StatusUnmapped StatusCode = 0
	// StatusDelivered is the terminal status.
	StatusDelivered StatusCode = 3500
)

// IsMajor reports whether s is a major milestone.
func (s StatusCode) IsMajor() bool {
	return s > 0 && s%100 == 0
}

// IsMinor reports whether s is a minor milestone.
func (s StatusCode) IsMinor() bool {
	return s%100 == 50
}

//go:embed status_codes.json
var defaultStatusCodesJSON []byte

// StatusRegistry maps canonical status codes to descriptions. It is built once
// at startup and never mutated afterwards.
type StatusRegistry struct {
	descriptions map[StatusCode]string
}

// NewStatusRegistry builds a registry from a copy of descriptions.
func NewStatusRegistry(descriptions map[StatusCode]string) *StatusRegistry {
	return &StatusRegistry{descriptions: maps.Clone(descriptions)}
}

// DefaultStatusRegistry returns the embedded registry.
func DefaultStatusRegistry() *StatusRegistry {
	reg, err := decodeStatusRegistry(defaultStatusCodesJSON)
	if err != nil {
		panic(fmt.Sprintf("embedded status codes: %v", err))
	}
	return reg
}

// LoadStatusRegistry reads the registry from a JSON file of code → description.
// An empty path returns the embedded registry.
func LoadStatusRegistry(path string) (*StatusRegistry, error) {
	if path == "" {
		return DefaultStatusRegistry(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read status codes: %w", err)
	}

	return decodeStatusRegistry(data)
}

func decodeStatusRegistry(data []byte) (*StatusRegistry, error) {
	var descriptions map[StatusCode]string
	if err := json.Unmarshal(data, &descriptions); err != nil {
		return nil, fmt.Errorf("decode status codes: %w", err)
	}
	if _, ok := descriptions[StatusDelivered]; !ok {
		return nil, fmt.Errorf("status registry has no entry for delivered code %d", StatusDelivered)
	}
	return &StatusRegistry{descriptions: descriptions}, nil
}

// Describe returns the description of code, or "" when it is not registered.
func (r *StatusRegistry) Describe(code StatusCode) string {
	return r.descriptions[code]
}

// Known reports whether code is registered.
func (r *StatusRegistry) Known(code StatusCode) bool {
	_, ok := r.descriptions[code]
	return ok
}

// Package statusmap translates carrier status codes into canonical status codes.
package statusmap

import (
	"whereis/internal/core/metrics"
	"whereis/internal/features/tracking/domain"

	"go.uber.org/zap"
)

// Wildcard matches any secondary code.
const Wildcard = "*"

// Rule maps one (primary, secondary) pair. A Secondary of Wildcard matches any
// secondary code for that primary.
type Rule struct {
	Primary   string
	Secondary string
	Status    domain.StatusCode
}

// Table is the static mapping of one carrier.
type Table struct {
	Carrier domain.Carrier
	Rules   []Rule
}

type key struct {
	primary   string
	secondary string
}

// Mapper resolves carrier status codes. It is immutable after New and safe for
// concurrent use.
type Mapper struct {
	exact    map[domain.Carrier]map[key]domain.StatusCode
	wildcard map[domain.Carrier]map[string]domain.StatusCode
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// Option configures a Mapper.
type Option func(*Mapper)

// WithLogger sets the logger used to report unmapped codes.
func WithLogger(l *zap.Logger) Option {
	return func(m *Mapper) { m.logger = l }
}

// WithMetrics sets the metrics used to count unmapped codes.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Mapper) { m.metrics = mt }
}

// New builds a Mapper from tables. Exact rules take precedence over wildcards.
func New(tables []Table, opts ...Option) *Mapper {
	m := &Mapper{
		exact:    make(map[domain.Carrier]map[key]domain.StatusCode),
		wildcard: make(map[domain.Carrier]map[string]domain.StatusCode),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	for _, table := range tables {
		exact := make(map[key]domain.StatusCode)
		wildcard := make(map[string]domain.StatusCode)
		for _, r := range table.Rules {
			if r.Secondary == Wildcard {
				wildcard[r.Primary] = r.Status
				continue
			}
			exact[key{r.Primary, r.Secondary}] = r.Status
		}
		m.exact[table.Carrier] = exact
		m.wildcard[table.Carrier] = wildcard
	}

	return m
}

// Default returns a Mapper over the FedEx and SF Express tables.
func Default(opts ...Option) *Mapper {
	return New([]Table{FedExTable, SFExpressTable}, opts...)
}

// Map returns the canonical status for a carrier code pair, or
// domain.StatusUnmapped when no rule matches. It never fails.
func (m *Mapper) Map(carrier domain.Carrier, primary, secondary string) domain.StatusCode {
	if status, ok := m.exact[carrier][key{primary, secondary}]; ok {
		return status
	}
	if status, ok := m.wildcard[carrier][primary]; ok {
		return status
	}

	m.logger.Warn("Unmapped carrier status",
		zap.String("carrier", string(carrier)),
		zap.String("primary", primary),
		zap.String("secondary", secondary),
	)
	m.metrics.IncrementUnmapped(string(carrier))

	return domain.StatusUnmapped
}

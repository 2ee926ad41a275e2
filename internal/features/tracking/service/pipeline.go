package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"whereis/internal/core/metrics"
	"whereis/internal/features/tracking/domain"
	"whereis/internal/features/tracking/ports"
)

// pipeline pulls a carrier timeline and applies it to storage. It is shared by
// on-demand lookups and the sync cycle.
type pipeline struct {
	adapters       *AdapterRegistry
	repo           ports.Repository
	metrics        *metrics.Metrics
	carrierTimeout time.Duration
}

// pull fetches and normalizes the timeline of id within the carrier timeout.
func (p *pipeline) pull(ctx context.Context, id domain.TrackingID, params map[string]string, method domain.UpdateMethod) (*domain.Timeline, error) {
	adapter, err := p.adapters.Get(id.Carrier)
	if err != nil {
		return nil, err
	}

	if p.carrierTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.carrierTimeout)
		defer cancel()
	}

	start := time.Now()
	timeline, err := func() (*domain.Timeline, error) {
		payload, err := adapter.Fetch(ctx, id.Number, params)
		if err != nil {
			return nil, err
		}
		return adapter.Normalize(payload, method)
	}()

	outcome := "ok"
	if err != nil {
		outcome = "error"
		if category := ports.CategoryOf(err); category != "" {
			outcome = string(category)
		}
	}
	p.metrics.ObserveCarrierLatency(string(id.Carrier), outcome, time.Since(start))

	return timeline, err
}

// apply reconciles timeline against the stored entity in one transaction,
// inserting the entity when it is not stored yet. It returns the resulting
// entity and the number of appended events.
func (p *pipeline) apply(ctx context.Context, id domain.TrackingID, params map[string]string, timeline *domain.Timeline, method domain.UpdateMethod) (*domain.Entity, int, error) {
	var (
		entity   *domain.Entity
		appended int
	)

	run := func() error {
		return p.repo.RunInTx(ctx, func(store ports.Store) error {
			persisted, err := store.Fingerprints(ctx, id)
			if errors.Is(err, ports.ErrEntityNotFound) {
				if len(timeline.Events) == 0 {
					return ports.ErrEntityNotFound
				}

				e := domain.NewEntity(id, params)
				for _, ev := range Reconcile(nil, timeline.Events) {
					e.AddEvent(ev)
				}
				applyExtra(e, timeline)

				if err := store.InsertEntity(ctx, e, timeline.Source); err != nil {
					return err
				}
				entity, appended = e, e.EventNum()
				return nil
			}
			if err != nil {
				return err
			}

			fresh := Reconcile(persisted, timeline.Events)
			if err := store.AppendEvents(ctx, id, fresh); err != nil {
				return err
			}

			e, err := store.GetEntity(ctx, id)
			if err != nil {
				return err
			}
			applyExtra(e, timeline)

			if err := store.UpdateEntity(ctx, e, timeline.Source); err != nil {
				return err
			}
			entity, appended = e, len(fresh)
			return nil
		})
	}

	err := run()
	if errors.Is(err, ports.ErrEntityExists) {
		// Another request inserted the entity first; reconcile against it.
		err = run()
	}
	if err != nil {
		if errors.Is(err, ports.ErrEntityNotFound) {
			return nil, 0, err
		}
		return nil, 0, fmt.Errorf("apply timeline of %s: %w", id, err)
	}

	p.metrics.AddEventsAppended(string(id.Carrier), string(method), appended)
	return entity, appended, nil
}

func applyExtra(e *domain.Entity, timeline *domain.Timeline) {
	if e.Extra == nil {
		e.Extra = map[string]string{}
	}
	if strings.TrimSpace(timeline.Origin) != "" {
		e.Extra[domain.ExtraOrigin] = timeline.Origin
	}
	if strings.TrimSpace(timeline.Destination) != "" {
		e.Extra[domain.ExtraDestination] = timeline.Destination
	}
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"whereis/internal/core/config"
	"whereis/internal/core/database"
	"whereis/internal/features/tracking/adapters"
	"whereis/internal/features/tracking/domain"
	"whereis/internal/features/tracking/ports"

	"github.com/stretchr/testify/require"
)

// fakeAdapter serves scripted timelines per tracking number.
type fakeAdapter struct {
	carrier  domain.Carrier
	required []string

	mu        sync.Mutex
	timelines map[string]*domain.Timeline
	errs      map[string]error
	blocking  map[string]bool
	calls     atomic.Int32
}

func newFakeAdapter(carrier domain.Carrier, required ...string) *fakeAdapter {
	return &fakeAdapter{
		carrier:   carrier,
		required:  required,
		timelines: map[string]*domain.Timeline{},
		errs:      map[string]error{},
		blocking:  map[string]bool{},
	}
}

type fakePayload struct {
	carrier domain.Carrier
	number  string
}

func (p *fakePayload) Carrier() domain.Carrier { return p.carrier }
func (p *fakePayload) Raw() json.RawMessage    { return json.RawMessage(`{}`) }

func (f *fakeAdapter) Carrier() domain.Carrier  { return f.carrier }
func (f *fakeAdapter) RequiredParams() []string { return f.required }

func (f *fakeAdapter) set(number string, events ...domain.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timelines[number] = &domain.Timeline{Events: events, Source: json.RawMessage(`{"pull":true}`)}
}

func (f *fakeAdapter) fail(number string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[number] = err
}

func (f *fakeAdapter) block(number string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blocking[number] = true
}

func (f *fakeAdapter) Fetch(ctx context.Context, number string, _ map[string]string) (domain.RawPayload, error) {
	f.calls.Add(1)

	f.mu.Lock()
	blocking, err := f.blocking[number], f.errs[number]
	f.mu.Unlock()

	if blocking {
		<-ctx.Done()
		return nil, ports.NewCarrierError(f.carrier, ports.CategoryTimeout, "request did not complete in time", ctx.Err())
	}
	if err != nil {
		return nil, err
	}
	return &fakePayload{carrier: f.carrier, number: number}, nil
}

func (f *fakeAdapter) Normalize(payload domain.RawPayload, method domain.UpdateMethod) (*domain.Timeline, error) {
	p := payload.(*fakePayload)

	f.mu.Lock()
	defer f.mu.Unlock()

	src, ok := f.timelines[p.number]
	if !ok {
		return nil, ports.NewCarrierError(f.carrier, ports.CategoryNotFound, "no data", nil)
	}

	out := *src
	out.Events = make([]domain.Event, len(src.Events))
	for i, ev := range src.Events {
		ev.Provenance.UpdateMethod = method
		out.Events[i] = ev
	}
	return &out, nil
}

var baseTime = time.Date(2024, 10, 26, 6, 0, 0, 0, time.FixedZone("CST", 8*3600))

// makeEvent builds an event whose fingerprint is derived from a raw record.
func makeEvent(t *testing.T, carrier domain.Carrier, number string, status domain.StatusCode, hour int) domain.Event {
	t.Helper()
	raw := json.RawMessage(fmt.Sprintf(`{"number":%q,"status":%d,"hour":%d}`, number, status, hour))
	fp, err := domain.Fingerprint(carrier, raw)
	require.NoError(t, err)

	return domain.Event{
		Fingerprint:    fp,
		Carrier:        carrier,
		TrackingNumber: number,
		Status:         status,
		What:           domain.DefaultStatusRegistry().Describe(status),
		When:           baseTime.Add(time.Duration(hour) * time.Hour),
		Provenance:     domain.Provenance{DataProvider: string(carrier), UpdateTime: baseTime},
		Source:         raw,
	}
}

func createTestRepository(t *testing.T) *adapters.SQLRepository {
	t.Helper()

	db, err := database.Open(context.Background(), config.DatabaseConfig{
		Driver: database.DriverSQLite,
		URL:    filepath.Join(t.TempDir(), "whereis.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return adapters.NewSQLRepository(db)
}

func fingerprintsOf(events []domain.Event) []string {
	fps := make([]string, 0, len(events))
	for _, ev := range events {
		fps = append(fps, ev.Fingerprint)
	}
	return fps
}

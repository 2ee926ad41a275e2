package service

import (
	"context"
	"testing"
	"time"

	"whereis/internal/core/metrics"
	"whereis/internal/features/tracking/adapters"
	"whereis/internal/features/tracking/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncFixture struct {
	sync    *SyncService
	repo    *adapters.SQLRepository
	sfex    *fakeAdapter
	fdx     *fakeAdapter
	metrics *metrics.Metrics
}

func newSyncFixture(t *testing.T, concurrency int) *syncFixture {
	t.Helper()

	f := &syncFixture{
		repo:    createTestRepository(t),
		sfex:    newFakeAdapter(domain.CarrierSFExpress, "phone"),
		fdx:     newFakeAdapter(domain.CarrierFedEx),
		metrics: metrics.New(prometheus.NewRegistry()),
	}
	f.sync = NewSyncService(NewAdapterRegistry(f.sfex, f.fdx), f.repo, nil, f.metrics, time.Second, concurrency)
	return f
}

// seed stores an entity holding events, as a first lookup would.
func (f *syncFixture) seed(t *testing.T, rawID string, params map[string]string, events ...domain.Event) *domain.Entity {
	t.Helper()
	id, err := domain.ParseTrackingID(rawID)
	require.NoError(t, err)

	e := domain.NewEntity(id, params)
	for _, ev := range events {
		e.AddEvent(ev)
	}
	require.NoError(t, f.repo.InsertEntity(context.Background(), e, nil))
	return e
}

// TestSyncService_PullTwice verifies that a second pull appends only the new event.
func TestSyncService_PullTwice(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t, 1)

	e1 := makeEvent(t, domain.CarrierSFExpress, sfexNumber, 3100, 0)
	e2 := makeEvent(t, domain.CarrierSFExpress, sfexNumber, 3001, 1)
	e3 := makeEvent(t, domain.CarrierSFExpress, sfexNumber, 3250, 2)

	e := f.seed(t, sfexID, map[string]string{"phone": "1234"}, e1, e2)

	f.sfex.set(sfexNumber, e1, e2, e3)
	report, err := f.sync.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, CycleReport{Pending: 1, Updated: 1, Appended: 1, Duration: report.Duration}, report)

	stored, err := f.repo.GetEntity(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{e1.Fingerprint, e2.Fingerprint, e3.Fingerprint}, fingerprintsOf(stored.Events))
	assert.Equal(t, domain.UpdateMethodAutoPull, stored.Events[2].Provenance.UpdateMethod)

	// Same data again: nothing to append.
	report, err = f.sync.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Unchanged)
	assert.Zero(t, report.Appended)

	stored, err = f.repo.GetEntity(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.EventNum())
}

// TestSyncService_CarrierTimeout verifies that a hanging carrier leaves its shipment untouched
// while the rest of the cycle proceeds.
func TestSyncService_CarrierTimeout(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t, 1)
	f.sync.carrierTimeout = 50 * time.Millisecond

	s1 := makeEvent(t, domain.CarrierSFExpress, sfexNumber, 3100, 0)
	d1 := makeEvent(t, domain.CarrierFedEx, fdxNumber, 3050, 0)
	d2 := makeEvent(t, domain.CarrierFedEx, fdxNumber, 3250, 1)

	sfexEntity := f.seed(t, sfexID, map[string]string{"phone": "1234"}, s1)
	fdxEntity := f.seed(t, fdxID, nil, d1)

	f.sfex.block(sfexNumber)
	f.fdx.set(fdxNumber, d1, d2)

	report, err := f.sync.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Pending)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Updated)

	fps, err := f.repo.Fingerprints(ctx, sfexEntity.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{s1.Fingerprint: {}}, fps)

	fps, err = f.repo.Fingerprints(ctx, fdxEntity.ID)
	require.NoError(t, err)
	assert.Len(t, fps, 2)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SyncShipments.WithLabelValues("failed")))
	// One latency series per carrier and outcome: sfex/timeout and fdx/ok.
	assert.Equal(t, 2, testutil.CollectAndCount(f.metrics.CarrierLatency))
}

// TestSyncService_UnmappedAppended verifies that events without a canonical status are still stored.
func TestSyncService_UnmappedAppended(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t, 1)

	d1 := makeEvent(t, domain.CarrierFedEx, fdxNumber, 3050, 0)
	unmapped := makeEvent(t, domain.CarrierFedEx, fdxNumber, domain.StatusUnmapped, 1)
	e := f.seed(t, fdxID, nil, d1)

	f.fdx.set(fdxNumber, d1, unmapped)
	_, err := f.sync.RunCycle(ctx)
	require.NoError(t, err)

	stored, err := f.repo.GetEntity(ctx, e.ID)
	require.NoError(t, err)
	require.Equal(t, 2, stored.EventNum())
	assert.Equal(t, domain.StatusUnmapped, stored.LastEvent().Status)
	assert.Equal(t, "Picked Up", stored.LastMinorEvent().What)
}

// TestSyncService_CompletionLeavesBacklog verifies that a delivered shipment is no longer pending.
func TestSyncService_CompletionLeavesBacklog(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t, 2)

	d1 := makeEvent(t, domain.CarrierFedEx, fdxNumber, 3050, 0)
	delivered := makeEvent(t, domain.CarrierFedEx, fdxNumber, domain.StatusDelivered, 3)
	f.seed(t, fdxID, nil, d1)

	f.fdx.set(fdxNumber, d1, delivered)
	_, err := f.sync.RunCycle(ctx)
	require.NoError(t, err)

	pending, err := f.repo.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	report, err := f.sync.RunCycle(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Pending)
	assert.Equal(t, int32(1), f.fdx.calls.Load())
}

// TestSyncService_Concurrent verifies that a parallel cycle processes every shipment.
func TestSyncService_Concurrent(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t, 4)

	numbers := []string{"100000000001", "100000000002", "100000000003", "100000000004", "100000000005"}
	for _, n := range numbers {
		first := makeEvent(t, domain.CarrierFedEx, n, 3050, 0)
		f.seed(t, "fdx-"+n, nil, first)
		f.fdx.set(n, first, makeEvent(t, domain.CarrierFedEx, n, 3250, 1))
	}

	report, err := f.sync.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(numbers), report.Updated)
	assert.Equal(t, len(numbers), report.Appended)
}

// TestSyncService_Start verifies that the scheduler runs cycles until cancelled.
func TestSyncService_Start(t *testing.T) {
	f := newSyncFixture(t, 1)
	d1 := makeEvent(t, domain.CarrierFedEx, fdxNumber, 3050, 0)
	f.seed(t, fdxID, nil, d1)
	f.fdx.set(fdxNumber, d1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.sync.Start(ctx, 10*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return f.fdx.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

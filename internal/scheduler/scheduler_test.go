package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"transport-booking/internal/dto/response"
	"transport-booking/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeGenerator struct {
	mu          sync.Mutex
	calls       []int
	inFlight    int
	maxInFlight int
	release     chan struct{}
	err         error
}

func (g *fakeGenerator) Generate(ctx context.Context, daysAhead int) (*response.InventoryResult, error) {
	g.mu.Lock()
	g.calls = append(g.calls, daysAhead)
	g.inFlight++
	g.maxInFlight = max(g.maxInFlight, g.inFlight)
	release := g.release
	g.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
		}
	}

	g.mu.Lock()
	g.inFlight--
	g.mu.Unlock()

	if g.err != nil {
		return nil, g.err
	}
	return &response.InventoryResult{TripsCreated: daysAhead}, nil
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

type fakeExpirer struct {
	mu    sync.Mutex
	calls int
}

func (e *fakeExpirer) ExpireStale(context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	return 0, nil
}

func newTestScheduler(t *testing.T, gen *fakeGenerator) *Scheduler {
	t.Helper()
	s := New(gen, &fakeExpirer{}, utils.SchedulerConfig{Timezone: "UTC", DaysAhead: 30}, zap.NewNop())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s
}

func statusOf(s *Scheduler, name string) JobStatus {
	for _, st := range s.Status() {
		if st.Name == name {
			return st
		}
	}
	return JobStatus{}
}

func TestScheduler_Start(t *testing.T) {
	s := newTestScheduler(t, &fakeGenerator{})

	require.NoError(t, s.Start(JobInventory, "30 0 * * *"))

	st := statusOf(s, JobInventory)
	assert.True(t, st.Active)
	assert.Equal(t, "30 0 * * *", st.Schedule)
	require.NotNil(t, st.NextRun)
	assert.Equal(t, 0, st.NextRun.UTC().Hour())
	assert.Equal(t, 30, st.NextRun.UTC().Minute())

	assert.False(t, statusOf(s, JobExpirePending).Active)

	// restarting replaces the trigger
	require.NoError(t, s.Start(JobInventory, "@every 5m"))
	assert.Equal(t, "@every 5m", statusOf(s, JobInventory).Schedule)
}

func TestScheduler_Start_Rejected(t *testing.T) {
	s := newTestScheduler(t, &fakeGenerator{})

	assert.ErrorIs(t, s.Start(JobInventory, "every day at noon"), ErrInvalidSchedule)
	assert.ErrorIs(t, s.Start("reports", "@daily"), ErrUnknownJob)
	assert.ErrorIs(t, s.Stop("reports"), ErrUnknownJob)
	assert.False(t, statusOf(s, JobInventory).Active)
}

func TestScheduler_StopAll(t *testing.T) {
	s := newTestScheduler(t, &fakeGenerator{})
	require.NoError(t, s.Start(JobInventory, "@daily"))
	require.NoError(t, s.Start(JobExpirePending, "@every 5m"))

	s.StopAll()

	for _, st := range s.Status() {
		assert.False(t, st.Active, st.Name)
		assert.Nil(t, st.NextRun, st.Name)
	}
}

func TestScheduler_FiresGenerator(t *testing.T) {
	gen := &fakeGenerator{}
	s := newTestScheduler(t, gen)

	require.NoError(t, s.Start(JobInventory, "@every 1s"))

	require.Eventually(t, func() bool { return gen.callCount() > 0 }, 3*time.Second, 50*time.Millisecond)

	gen.mu.Lock()
	assert.Equal(t, 30, gen.calls[0])
	gen.mu.Unlock()

	require.Eventually(t, func() bool { return statusOf(s, JobInventory).LastRun != nil }, time.Second, 20*time.Millisecond)
}

func TestScheduler_GenerateNow(t *testing.T) {
	gen := &fakeGenerator{}
	s := newTestScheduler(t, gen)

	result, err := s.GenerateNow(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 7, result.TripsCreated)

	st := statusOf(s, JobInventory)
	assert.NotNil(t, st.LastRun)
	assert.Empty(t, st.LastError)
	assert.False(t, st.Running)
}

func TestScheduler_GenerateNow_RecordsError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("database unavailable")}
	s := newTestScheduler(t, gen)

	_, err := s.GenerateNow(context.Background(), 3)
	require.Error(t, err)
	assert.Equal(t, "database unavailable", statusOf(s, JobInventory).LastError)
}

func TestScheduler_SerializesRuns(t *testing.T) {
	gen := &fakeGenerator{release: make(chan struct{})}
	s := newTestScheduler(t, gen)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.GenerateNow(context.Background(), 1)
		}()
	}

	require.Eventually(t, func() bool { return gen.callCount() == 1 }, time.Second, 10*time.Millisecond)
	assert.True(t, statusOf(s, JobInventory).Running)

	// a cron tick during a manual run is dropped
	s.runScheduled(s.jobs[JobInventory])
	assert.Equal(t, 1, gen.callCount())

	close(gen.release)
	wg.Wait()

	assert.Equal(t, 3, gen.callCount())
	assert.Equal(t, 1, gen.maxInFlight)
}

// A manual run queued behind a long run gives up when its caller does.
func TestScheduler_ManualRunHonoursContext(t *testing.T) {
	gen := &fakeGenerator{release: make(chan struct{})}
	s := newTestScheduler(t, gen)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.GenerateNow(context.Background(), 1)
	}()
	require.Eventually(t, func() bool { return gen.callCount() == 1 }, time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	started := time.Now()
	_, err := s.GenerateNow(ctx, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(started), time.Second)
	assert.Equal(t, 1, gen.callCount())

	cancelled, cancelNow := context.WithCancel(context.Background())
	cancelNow()
	assert.ErrorIs(t, s.RunNow(cancelled, JobInventory), context.Canceled)

	close(gen.release)
	<-done
	assert.False(t, statusOf(s, JobInventory).Running)
}

func TestScheduler_RunNow(t *testing.T) {
	exp := &fakeExpirer{}
	s := New(&fakeGenerator{}, exp, utils.SchedulerConfig{Timezone: "UTC"}, zap.NewNop())

	require.NoError(t, s.RunNow(context.Background(), JobExpirePending))
	assert.Equal(t, 1, exp.calls)

	assert.ErrorIs(t, s.RunNow(context.Background(), "reports"), ErrUnknownJob)
}

func TestScheduler_StartDefaults(t *testing.T) {
	s := New(&fakeGenerator{}, &fakeExpirer{}, utils.SchedulerConfig{
		Timezone:      "UTC",
		InventoryCron: "30 0 * * *",
		ExpiryCron:    "@every 5m",
	}, zap.NewNop())
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })

	require.NoError(t, s.StartDefaults())
	assert.True(t, statusOf(s, JobInventory).Active)
	assert.True(t, statusOf(s, JobExpirePending).Active)
}

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"transport-booking/internal/dto/response"
	"transport-booking/pkg/metrics"
	"transport-booking/pkg/utils"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	JobInventory     = "inventory"
	JobExpirePending = "expire-pending"

	defaultRunTimeout = 30 * time.Minute
)

var (
	ErrUnknownJob      = errors.New("unknown scheduler job")
	ErrInvalidSchedule = errors.New("invalid cron expression")
)

type InventoryGenerator interface {
	Generate(ctx context.Context, daysAhead int) (*response.InventoryResult, error)
}

type BookingExpirer interface {
	ExpireStale(ctx context.Context) (int, error)
}

type JobStatus struct {
	Name      string     `json:"name"`
	Schedule  string     `json:"schedule,omitempty"`
	Active    bool       `json:"active"`
	Running   bool       `json:"running"`
	NextRun   *time.Time `json:"next_run,omitempty"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	LastError string     `json:"last_error,omitempty"`
}

type job struct {
	name string
	run  func(ctx context.Context) error

	// exec holds a token while the job runs, scheduled or manual.
	exec chan struct{}

	spec    string
	entryID cron.EntryID
	active  bool
	running bool
	lastRun time.Time
	lastErr string
}

// Scheduler owns the cron triggers of the inventory generator and the pending booking sweep.
type Scheduler struct {
	cron       *cron.Cron
	parser     cron.Parser
	generator  InventoryGenerator
	daysAhead  int
	defaults   map[string]string
	runTimeout time.Duration

	mu   sync.Mutex
	jobs map[string]*job

	log *zap.Logger
}

func New(generator InventoryGenerator, expirer BookingExpirer, cfg utils.SchedulerConfig, log *zap.Logger) *Scheduler {
	log = log.With(zap.String("component", "scheduler"))
	logger := cronLogger{log: log.Sugar()}

	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(cfg.Location()),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger)),
		),
		parser:    cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		generator: generator,
		daysAhead: cfg.DaysAhead,
		defaults: map[string]string{
			JobInventory:     cfg.InventoryCron,
			JobExpirePending: cfg.ExpiryCron,
		},
		runTimeout: defaultRunTimeout,
		jobs:       make(map[string]*job),
		log:        log,
	}
	if s.daysAhead <= 0 {
		s.daysAhead = 30
	}

	s.jobs[JobInventory] = &job{
		name: JobInventory,
		exec: make(chan struct{}, 1),
		run: func(ctx context.Context) error {
			_, err := s.generator.Generate(ctx, s.daysAhead)
			return err
		},
	}
	s.jobs[JobExpirePending] = &job{
		name: JobExpirePending,
		exec: make(chan struct{}, 1),
		run: func(ctx context.Context) error {
			_, err := expirer.ExpireStale(ctx)
			return err
		},
	}

	return s
}

// StartDefaults starts every job that has a configured cron expression.
func (s *Scheduler) StartDefaults() error {
	for _, name := range []string{JobInventory, JobExpirePending} {
		spec := s.defaults[name]
		if spec == "" {
			continue
		}
		if err := s.Start(name, spec); err != nil {
			return err
		}
	}
	return nil
}

// Start (re)schedules a job with the given cron expression.
func (s *Scheduler) Start(name, spec string) error {
	schedule, err := s.parser.Parse(spec)
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidSchedule, spec, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}

	if j.active {
		s.cron.Remove(j.entryID)
	}
	j.entryID = s.cron.Schedule(schedule, cron.FuncJob(func() { s.runScheduled(j) }))
	j.spec = spec
	j.active = true

	s.cron.Start()

	s.log.Info("Scheduler job started", zap.String("job", name), zap.String("cron", spec))
	return nil
}

func (s *Scheduler) Stop(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	s.stopLocked(j)
	return nil
}

func (s *Scheduler) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, j := range s.jobs {
		s.stopLocked(j)
	}
}

func (s *Scheduler) stopLocked(j *job) {
	if !j.active {
		return
	}
	s.cron.Remove(j.entryID)
	j.active = false
	j.entryID = 0
	s.log.Info("Scheduler job stopped", zap.String("job", j.name))
}

// Shutdown stops the triggers and waits for running jobs until ctx is done.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.StopAll()
	done := s.cron.Stop()

	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for scheduler jobs: %w", ctx.Err())
	}
}

// GenerateNow runs the inventory generator immediately, after any run already in flight.
func (s *Scheduler) GenerateNow(ctx context.Context, daysAhead int) (*response.InventoryResult, error) {
	var result *response.InventoryResult
	err := s.runManual(ctx, JobInventory, func(ctx context.Context) error {
		var err error
		result, err = s.generator.Generate(ctx, daysAhead)
		return err
	})
	return result, err
}

// RunNow runs a job immediately with its scheduled behaviour.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return s.runManual(ctx, name, j.run)
}

func (s *Scheduler) Status() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobStatus, 0, len(s.jobs))
	for _, j := range s.jobs {
		st := JobStatus{
			Name:      j.name,
			Schedule:  j.spec,
			Active:    j.active,
			Running:   j.running,
			LastError: j.lastErr,
		}
		if j.active {
			if next := s.cron.Entry(j.entryID).Next; !next.IsZero() {
				st.NextRun = &next
			}
		}
		if !j.lastRun.IsZero() {
			last := j.lastRun
			st.LastRun = &last
		}
		out = append(out, st)
	}

	sort.Slice(out, func(i, k int) bool { return out[i].Name < out[k].Name })
	return out
}

// runScheduled is the cron entry point. A tick that finds the job still running is skipped.
func (s *Scheduler) runScheduled(j *job) {
	select {
	case j.exec <- struct{}{}:
	default:
		metrics.SchedulerRunsTotal.WithLabelValues(j.name, "skipped").Inc()
		s.log.Warn("Scheduler job still running, tick skipped", zap.String("job", j.name))
		return
	}
	defer func() { <-j.exec }()

	ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
	defer cancel()

	_ = s.execute(ctx, j, j.run)
}

func (s *Scheduler) runManual(ctx context.Context, name string, run func(ctx context.Context) error) error {
	s.mu.Lock()
	j := s.jobs[name]
	s.mu.Unlock()

	// wait for a run in flight unless the caller gives up first
	select {
	case j.exec <- struct{}{}:
	case <-ctx.Done():
		metrics.SchedulerRunsTotal.WithLabelValues(j.name, "skipped").Inc()
		return fmt.Errorf("waiting for %s job in flight: %w", j.name, ctx.Err())
	}
	defer func() { <-j.exec }()

	return s.execute(ctx, j, run)
}

func (s *Scheduler) execute(ctx context.Context, j *job, run func(ctx context.Context) error) error {
	s.mu.Lock()
	j.running = true
	s.mu.Unlock()

	started := time.Now()
	err := run(ctx)

	s.mu.Lock()
	j.running = false
	j.lastRun = started
	j.lastErr = ""
	if err != nil {
		j.lastErr = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		metrics.SchedulerRunsTotal.WithLabelValues(j.name, "error").Inc()
		s.log.Error("Scheduler job failed",
			zap.Error(err),
			zap.String("job", j.name),
			zap.Duration("duration", time.Since(started)),
		)
		return err
	}

	metrics.SchedulerRunsTotal.WithLabelValues(j.name, "success").Inc()
	s.log.Info("Scheduler job finished",
		zap.String("job", j.name),
		zap.Duration("duration", time.Since(started)),
	)
	return nil
}

// cronLogger routes robfig/cron logs to zap.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}

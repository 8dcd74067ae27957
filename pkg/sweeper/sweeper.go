package sweeper

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/adhocore/gronx"

	"fosscord/pkg/logger"
	"fosscord/pkg/metrics"
)

// SweepFunc removes stale records as of now and returns how many it removed.
type SweepFunc func(now time.Time) int

type job struct {
	name    string
	cron    string
	sweep   SweepFunc
	mu      sync.Mutex
	running bool
}

// Sweeper runs registered cache sweeps on cron schedules.
type Sweeper struct {
	metrics *metrics.Metrics
	now     func() time.Time

	mu     sync.Mutex
	jobs   map[string]*job
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(m *metrics.Metrics) *Sweeper {
	return &Sweeper{metrics: m, now: time.Now, jobs: make(map[string]*job)}
}

// Register adds a target. The cron expression is validated with gronx.
func (s *Sweeper) Register(name, cron string, fn SweepFunc) error {
	if !gronx.IsValid(cron) {
		return fmt.Errorf("sweeper %s: invalid cron expression %q", name, cron)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[name]; ok {
		return fmt.Errorf("sweeper %s: already registered", name)
	}
	s.jobs[name] = &job{name: name, cron: cron, sweep: fn}
	return nil
}

// Targets lists registered target names.
func (s *Sweeper) Targets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Start launches one schedule loop per target.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	for _, j := range s.jobs {
		s.wg.Add(1)
		go func(j *job) {
			defer s.wg.Done()
			s.scheduleLoop(ctx, j)
		}(j)
		logger.Info("sweeper_enabled", "target", j.name, "cron", j.cron)
	}
}

// Stop cancels every loop and waits for running sweeps to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
}

// RunImmediate sweeps target now. An overlapping run is skipped and reports 0.
func (s *Sweeper) RunImmediate(target string) (int, error) {
	s.mu.Lock()
	j := s.jobs[target]
	s.mu.Unlock()
	if j == nil {
		return 0, fmt.Errorf("sweeper target %q not registered", target)
	}
	n, _ := s.runJob(j)
	return n, nil
}

func (s *Sweeper) scheduleLoop(ctx context.Context, j *job) {
	for {
		now := s.now()
		next, err := gronx.NextTickAfter(j.cron, now, false)
		if err != nil {
			logger.Error("sweeper_nexttick_failed", "target", j.name, "cron", j.cron, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		wait := next.Sub(now)
		if wait <= 0 {
			s.runJob(j)
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case <-time.After(wait):
			s.runJob(j)
		case <-ctx.Done():
			return
		}
	}
}

// runJob reports false when a run of the same target is already in progress.
func (s *Sweeper) runJob(j *job) (int, bool) {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		logger.Debug("sweeper_run_skipped", "target", j.name)
		return 0, false
	}
	j.running = true
	j.mu.Unlock()

	defer func() {
		j.mu.Lock()
		j.running = false
		j.mu.Unlock()
	}()

	start := s.now()
	removed := j.sweep(start)
	s.metrics.Sweep(j.name, removed)
	logger.Info("sweeper_run_done", "target", j.name, "removed", removed, "took", time.Since(start))
	return removed, true
}

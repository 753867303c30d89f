package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"optionstracker/internal/config"
	"optionstracker/internal/models"
	"optionstracker/internal/service"
)

// Job names double as run-lock keys: a trigger that finds its own name
// locked is skipped, never queued.
const (
	JobQuickUpdate       = "quick_update"
	JobEndOfDayUpdate    = "end_of_day_update"
	JobWeekendAnalysis   = "weekend_analysis"
	JobContinuousRefresh = "continuous_refresh"

	// Shared locks serializing scheduled and manual triggers of the same
	// pipeline.
	lockRefresh = "refresh_all"
	lockScan    = "scan"
)

// Refresher is the slice of RefreshService the scheduler drives.
type Refresher interface {
	RefreshSymbol(ctx context.Context, ticker string) (service.RefreshResult, error)
	RefreshAll(ctx context.Context, job string) ([]service.RefreshResult, error)
}

// Rescanner re-runs the opportunity rules against stored data.
type Rescanner interface {
	ScanAll(ctx context.Context) ([]models.Opportunity, error)
}

// JobStatus is one job's view in the status report.
type JobStatus struct {
	Running bool       `json:"running"`
	LastRun *time.Time `json:"last_run,omitempty"`
}

// Scheduler owns the periodic jobs and the run-locks that keep each job
// type, scheduled or manually triggered, from overlapping itself.
type Scheduler struct {
	cron    *cron.Cron
	loc     *time.Location
	cfg     config.SchedulerConfig
	refresh Refresher
	scan    Rescanner
	logger  *zap.Logger

	baseCtx context.Context
	cancel  context.CancelFunc

	locks map[string]*sync.Mutex
	wg    sync.WaitGroup

	tickerStop chan struct{}

	mu      sync.Mutex
	running map[string]bool
	lastRun map[string]time.Time
}

func New(cfg config.Config, refresh Refresher, scan Rescanner, logger *zap.Logger) (*Scheduler, error) {
	tz := cfg.Scheduler.Timezone
	if tz == "" {
		tz = "America/New_York"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load scheduler timezone %q: %w", tz, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:       cron.New(cron.WithLocation(loc)),
		loc:        loc,
		cfg:        cfg.Scheduler,
		refresh:    refresh,
		scan:       scan,
		logger:     logger.Named("scheduler"),
		baseCtx:    ctx,
		cancel:     cancel,
		tickerStop: make(chan struct{}),
		locks:      map[string]*sync.Mutex{},
		running:    map[string]bool{},
		lastRun:    map[string]time.Time{},
	}
	for _, name := range []string{
		JobQuickUpdate, JobEndOfDayUpdate, JobWeekendAnalysis, JobContinuousRefresh,
		lockRefresh, lockScan,
	} {
		s.locks[name] = &sync.Mutex{}
	}
	return s, nil
}

// Start registers the cron entries and the continuous ticker. No-op when
// the scheduler is disabled; manual triggers still work in that case.
func (s *Scheduler) Start() error {
	if !s.cfg.Enabled {
		s.logger.Info("scheduler disabled, manual triggers only")
		return nil
	}

	entries := []struct {
		spec string
		name string
		run  func()
	}{
		{s.cfg.QuickUpdate, JobQuickUpdate, s.quickUpdate},
		{s.cfg.EndOfDayUpdate, JobEndOfDayUpdate, s.endOfDayUpdate},
		{s.cfg.WeekendAnalysis, JobWeekendAnalysis, s.weekendAnalysis},
	}
	for _, e := range entries {
		if e.spec == "" {
			continue
		}
		if _, err := s.cron.AddFunc(e.spec, e.run); err != nil {
			return fmt.Errorf("register %s (%q): %w", e.name, e.spec, err)
		}
	}

	if s.cfg.ContinuousInterval > 0 {
		s.wg.Add(1)
		go s.continuousLoop()
	}

	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("timezone", s.loc.String()))
	return nil
}

// Stop stops accepting new ticks, lets in-flight work finish within the
// configured grace period, then cancels what remains.
func (s *Scheduler) Stop() {
	stopped := s.cron.Stop()
	close(s.tickerStop)

	grace := s.cfg.ShutdownGrace
	if grace <= 0 {
		grace = 30 * time.Second
	}

	done := make(chan struct{})
	go func() {
		<-stopped.Done()
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.logger.Info("scheduler stopped")
	case <-time.After(grace):
		s.logger.Warn("shutdown grace elapsed, cancelling in-flight work",
			zap.Duration("grace", grace))
	}
	s.cancel()
}

// RefreshSymbol is the manual single-symbol trigger. It takes the same
// refresh lock as the scheduled jobs, so it cannot race them.
func (s *Scheduler) RefreshSymbol(ctx context.Context, ticker string) (service.RefreshResult, error) {
	release, ok := s.tryAcquire(lockRefresh)
	if !ok {
		return service.RefreshResult{}, fmt.Errorf("a refresh is already running")
	}
	defer release()
	return s.refresh.RefreshSymbol(ctx, ticker)
}

// RefreshAll is the manual full-watchlist trigger.
func (s *Scheduler) RefreshAll(ctx context.Context) ([]service.RefreshResult, error) {
	release, ok := s.tryAcquire(lockRefresh)
	if !ok {
		return nil, fmt.Errorf("a refresh is already running")
	}
	defer release()
	return s.refresh.RefreshAll(ctx, "manual_refresh")
}

// ScanOpportunities is the manual rescan trigger.
func (s *Scheduler) ScanOpportunities(ctx context.Context) ([]models.Opportunity, error) {
	release, ok := s.tryAcquire(lockScan)
	if !ok {
		return nil, fmt.Errorf("a scan is already running")
	}
	defer release()
	return s.scan.ScanAll(ctx)
}

// Status reports per-job running state and last completion time.
func (s *Scheduler) Status() map[string]JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]JobStatus, 4)
	for _, name := range []string{JobQuickUpdate, JobEndOfDayUpdate, JobWeekendAnalysis, JobContinuousRefresh} {
		st := JobStatus{Running: s.running[name]}
		if t, ok := s.lastRun[name]; ok {
			last := t
			st.LastRun = &last
		}
		out[name] = st
	}
	return out
}

func (s *Scheduler) quickUpdate() {
	now := time.Now().In(s.loc)
	if !s.inSession(now) {
		s.logger.Debug("quick update outside session window, skipped")
		return
	}
	s.runJob(JobQuickUpdate, lockRefresh, func(ctx context.Context) error {
		_, err := s.refresh.RefreshAll(ctx, JobQuickUpdate)
		return err
	})
}

func (s *Scheduler) endOfDayUpdate() {
	now := time.Now().In(s.loc)
	if !s.isTradingDay(now) {
		s.logger.Debug("end-of-day update on a non-trading day, skipped")
		return
	}
	s.runJob(JobEndOfDayUpdate, lockRefresh, func(ctx context.Context) error {
		_, err := s.refresh.RefreshAll(ctx, JobEndOfDayUpdate)
		return err
	})
}

func (s *Scheduler) weekendAnalysis() {
	s.runJob(JobWeekendAnalysis, lockScan, func(ctx context.Context) error {
		_, err := s.scan.ScanAll(ctx)
		return err
	})
}

func (s *Scheduler) continuousLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.ContinuousInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.tickerStop:
			return
		case <-s.baseCtx.Done():
			return
		case <-ticker.C:
			s.runJob(JobContinuousRefresh, lockRefresh, func(ctx context.Context) error {
				_, err := s.refresh.RefreshAll(ctx, JobContinuousRefresh)
				return err
			})
		}
	}
}

// runJob runs fn under the job's own lock plus the shared pipeline lock.
// A trigger that cannot take both immediately is skipped and logged.
func (s *Scheduler) runJob(name, shared string, fn func(context.Context) error) {
	release, ok := s.tryAcquire(name, shared)
	if !ok {
		s.logger.Warn("job trigger skipped, previous run still in flight",
			zap.String("job", name))
		return
	}
	defer release()

	s.wg.Add(1)
	defer s.wg.Done()
	s.setRunning(name, true)
	defer s.setRunning(name, false)

	start := time.Now()
	err := fn(s.baseCtx)
	s.mu.Lock()
	s.lastRun[name] = time.Now().UTC()
	s.mu.Unlock()
	if err != nil {
		s.logger.Error("job failed",
			zap.String("job", name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return
	}
	s.logger.Info("job finished",
		zap.String("job", name),
		zap.Duration("elapsed", time.Since(start)))
}

// tryAcquire takes the named locks in order without blocking. On any miss
// it releases what it already holds and reports failure.
func (s *Scheduler) tryAcquire(names ...string) (func(), bool) {
	held := make([]*sync.Mutex, 0, len(names))
	for _, name := range names {
		mu := s.locks[name]
		if mu == nil || !mu.TryLock() {
			for _, h := range held {
				h.Unlock()
			}
			return nil, false
		}
		held = append(held, mu)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}, true
}

func (s *Scheduler) setRunning(name string, v bool) {
	s.mu.Lock()
	s.running[name] = v
	s.mu.Unlock()
}

// inSession reports whether now falls on a trading day inside the
// configured session window.
func (s *Scheduler) inSession(now time.Time) bool {
	if !s.isTradingDay(now) {
		return false
	}
	open, err1 := parseClock(s.cfg.SessionOpen)
	clos, err2 := parseClock(s.cfg.SessionClose)
	if err1 != nil || err2 != nil {
		// Misconfigured window: fall back to trading-day gating only.
		return true
	}
	minute := now.Hour()*60 + now.Minute()
	return minute >= open && minute <= clos
}

// isTradingDay excludes weekends and the configured holiday dates.
func (s *Scheduler) isTradingDay(now time.Time) bool {
	switch now.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	day := now.Format("2006-01-02")
	for _, h := range s.cfg.Holidays {
		if h == day {
			return false
		}
	}
	return true
}

func parseClock(v string) (int, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

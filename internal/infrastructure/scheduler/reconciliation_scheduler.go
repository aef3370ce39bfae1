package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/domain/inventory"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/infrastructure/logger"
)

// Reconciler executes one reconciliation pass
type Reconciler interface {
	Reconcile(ctx context.Context) (*inventory.ReconciliationResult, error)
}

// RunRecorder persists finished runs
type RunRecorder interface {
	SaveRun(ctx context.Context, run *ReconciliationRun) error
}

// Triggerer requests a reconciliation run
type Triggerer interface {
	Trigger(source TriggerSource) bool
}

// ReconciliationSchedulerConfig holds configuration for the reconciliation scheduler
type ReconciliationSchedulerConfig struct {
	// Enabled indicates if the timer trigger is active
	Enabled bool
	// Interval is the timer trigger period
	Interval time.Duration
	// RunTimeout bounds a single pass
	RunTimeout time.Duration
	// RunOnStart requests a run as soon as the scheduler starts
	RunOnStart bool
	// HistorySize is the number of finished runs kept in memory
	HistorySize int
}

// DefaultReconciliationSchedulerConfig returns default configuration
func DefaultReconciliationSchedulerConfig() ReconciliationSchedulerConfig {
	return ReconciliationSchedulerConfig{
		Enabled:     true,
		Interval:    5 * time.Minute,
		RunTimeout:  2 * time.Minute,
		RunOnStart:  true,
		HistorySize: 50,
	}
}

// Validate validates the configuration
func (c *ReconciliationSchedulerConfig) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	}
	if c.RunTimeout <= 0 {
		return fmt.Errorf("%w: run timeout must be positive", ErrInvalidConfig)
	}
	if c.HistorySize <= 0 {
		return fmt.Errorf("%w: history size must be positive", ErrInvalidConfig)
	}
	return nil
}

// SchedulerState is the run state of the scheduler
type SchedulerState string

const (
	StateIdle    SchedulerState = "idle"
	StateRunning SchedulerState = "running"
)

// SchedulerStatus is a point-in-time view of the scheduler
type SchedulerStatus struct {
	Started       bool
	State         SchedulerState
	RerunPending  bool
	Interval      time.Duration
	CurrentRun    *ReconciliationRun
	LastRun       *ReconciliationRun
	LastSuccessAt *time.Time
	TotalRuns     int64
}

// ReconciliationScheduler drives reconciliation runs one at a time.
// Triggers that arrive while a run is in progress collapse into a single
// pending re-run that starts as soon as the current run completes.
type ReconciliationScheduler struct {
	config     ReconciliationSchedulerConfig
	reconciler Reconciler
	recorder   RunRecorder
	logger     *zap.Logger

	triggers  chan TriggerSource
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	stateMu       sync.RWMutex
	current       *ReconciliationRun
	lastRun       *ReconciliationRun
	lastSuccessAt *time.Time
	totalRuns     int64

	historyMu sync.RWMutex
	history   []*ReconciliationRun
}

// SchedulerOption configures a ReconciliationScheduler
type SchedulerOption func(*ReconciliationScheduler)

// WithRunRecorder persists every finished run
func WithRunRecorder(r RunRecorder) SchedulerOption {
	return func(s *ReconciliationScheduler) {
		s.recorder = r
	}
}

// NewReconciliationScheduler creates a new reconciliation scheduler
func NewReconciliationScheduler(config ReconciliationSchedulerConfig, reconciler Reconciler, logger *zap.Logger, opts ...SchedulerOption) (*ReconciliationScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := &ReconciliationScheduler{
		config:     config,
		reconciler: reconciler,
		logger:     logger,
		triggers:   make(chan TriggerSource, 1),
		history:    make([]*ReconciliationRun, 0, config.HistorySize),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start starts the scheduler loop
func (s *ReconciliationScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Reconciliation scheduler started",
		zap.Bool("timer_enabled", s.config.Enabled),
		zap.Duration("interval", s.config.Interval),
		zap.Duration("run_timeout", s.config.RunTimeout),
	)

	if s.config.RunOnStart {
		s.Trigger(TriggerStartup)
	}
	return nil
}

// Stop cancels the timer and waits for an in-flight run to finish.
// No new runs start once Stop is called.
func (s *ReconciliationScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Reconciliation scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Reconciliation scheduler stop timed out")
		return ctx.Err()
	}
}

// Trigger requests a run. It never blocks: if a run is already pending the
// request is merged into it. It returns false when the request was merged or
// the scheduler is not running.
func (s *ReconciliationScheduler) Trigger(source TriggerSource) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return false
	}

	select {
	case s.triggers <- source:
		s.logger.Debug("Reconciliation run requested", zap.String("trigger", string(source)))
		return true
	default:
		s.logger.Debug("Reconciliation run already pending", zap.String("trigger", string(source)))
		return false
	}
}

// RequestRun is Trigger for callers that need an error
func (s *ReconciliationScheduler) RequestRun(source TriggerSource) (queued bool, err error) {
	s.mu.Lock()
	running := s.isRunning
	s.mu.Unlock()
	if !running {
		return false, ErrSchedulerNotRunning
	}
	return s.Trigger(source), nil
}

func (s *ReconciliationScheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	var tick <-chan time.Time
	if s.config.Enabled {
		ticker := time.NewTicker(s.config.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			s.Trigger(TriggerTimer)
		case source := <-s.triggers:
			if ctx.Err() != nil {
				return
			}
			s.execute(ctx, source)
		}
	}
}

// execute runs one pass. The pass is detached from scheduler cancellation so
// that Stop lets it finish, and is bounded by the run timeout instead.
func (s *ReconciliationScheduler) execute(ctx context.Context, source TriggerSource) {
	run := NewReconciliationRun(source)
	s.setCurrent(run)

	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.RunTimeout)
	defer cancel()
	runCtx, runLogger := logger.WithRunID(runCtx, s.logger, run.ID.String())

	runLogger.Info("Reconciliation run started", zap.String("trigger", string(source)))

	result, err := s.reconcile(runCtx)
	if err != nil {
		run.Fail(err)
		runLogger.Error("Reconciliation run failed",
			zap.Duration("duration", run.Duration()),
			zap.Error(err),
		)
	} else {
		run.Complete(result)
		runLogger.Info("Reconciliation run completed",
			zap.String("status", string(run.Status)),
			zap.Int("orders_scanned", run.OrdersScanned),
			zap.Int("submitted", run.Submitted),
			zap.Int("succeeded", run.Succeeded),
			zap.Int("failed", run.Failed),
			zap.Int("suppressed", run.Suppressed),
			zap.Duration("duration", run.Duration()),
		)
	}

	s.finish(run)

	if s.recorder != nil {
		saveCtx, saveCancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer saveCancel()
		if err := s.recorder.SaveRun(logger.WithContext(saveCtx, runLogger), run.Clone()); err != nil {
			runLogger.Warn("Failed to persist reconciliation run", zap.Error(err))
		}
	}
}

// reconcile calls the reconciler, converting a panic into an error
func (s *ReconciliationScheduler) reconcile(ctx context.Context) (result *inventory.ReconciliationResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrRunPanicked, r)
		}
	}()
	return s.reconciler.Reconcile(ctx)
}

// setCurrent publishes a copy of the run, since the original is still being updated
func (s *ReconciliationScheduler) setCurrent(run *ReconciliationRun) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.current = run.Clone()
}

func (s *ReconciliationScheduler) finish(run *ReconciliationRun) {
	s.stateMu.Lock()
	s.current = nil
	s.lastRun = run
	s.totalRuns++
	if run.IsSuccessful() {
		t := *run.CompletedAt
		s.lastSuccessAt = &t
	}
	s.stateMu.Unlock()

	s.addToHistory(run)
}

// addToHistory adds a finished run to history
func (s *ReconciliationScheduler) addToHistory(run *ReconciliationRun) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	s.history = append([]*ReconciliationRun{run}, s.history...)
	if len(s.history) > s.config.HistorySize {
		s.history = s.history[:s.config.HistorySize]
	}
}

// GetRunHistory returns up to limit recent runs, newest first. A non-positive
// limit returns the whole history.
func (s *ReconciliationScheduler) GetRunHistory(limit int) []*ReconciliationRun {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}

	result := make([]*ReconciliationRun, limit)
	for i := 0; i < limit; i++ {
		result[i] = s.history[i].Clone()
	}
	return result
}

// Status returns a snapshot of the scheduler state
func (s *ReconciliationScheduler) Status() SchedulerStatus {
	s.mu.Lock()
	started := s.isRunning
	s.mu.Unlock()

	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	status := SchedulerStatus{
		Started:      started,
		State:        StateIdle,
		RerunPending: len(s.triggers) > 0,
		Interval:     s.config.Interval,
		CurrentRun:   s.current.Clone(),
		LastRun:      s.lastRun.Clone(),
		TotalRuns:    s.totalRuns,
	}
	if s.current != nil {
		status.State = StateRunning
	}
	if s.lastSuccessAt != nil {
		t := *s.lastSuccessAt
		status.LastSuccessAt = &t
	}
	return status
}

// Ensure ReconciliationScheduler implements Triggerer
var _ Triggerer = (*ReconciliationScheduler)(nil)

package core

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/JonMunkholm/storemigrate/internal/logging"
	"github.com/google/uuid"
)

// RunTimeout is the maximum duration of a background migration run.
var RunTimeout = 30 * time.Minute

// ImportTimeout is the maximum duration of a single file import.
var ImportTimeout = 10 * time.Minute

// Stores groups the persistence collaborators of a Service.
type Stores struct {
	Jobs    JobStore
	Catalog CatalogStore
	Content ContentStore
}

// ServiceOptions configures a Service. Zero values fall back to defaults.
type ServiceOptions struct {
	MaxFileSize          int64
	MaxConcurrentImports int
	ImportWaitTime       time.Duration

	// WaitTime is forwarded to the extractor in milliseconds.
	WaitTime int
	Stage    StageConfig
	Now      func() time.Time
}

// Service provides the migration business logic: file imports, migration
// jobs and their stage actions, and progress subscriptions.
type Service struct {
	jobs      JobStore
	catalog   CatalogStore
	extractor Extractor
	limiter   *ImportLimiter
	pipeline  *Pipeline
	opts      ServiceOptions

	mu   sync.RWMutex
	runs map[uuid.UUID]*activeRun

	listenerMu sync.Mutex
	listeners  map[uuid.UUID][]chan Job

	wg sync.WaitGroup
}

// activeRun is a job currently being driven by this process, either a
// single stage action or a background run.
type activeRun struct {
	JobID      uuid.UUID
	Background bool
	Cancel     context.CancelFunc
	Done       chan struct{}
}

// NewService creates a Service.
func NewService(stores Stores, extractor Extractor, opts ServiceOptions) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Service{
		jobs:      stores.Jobs,
		catalog:   stores.Catalog,
		extractor: extractor,
		limiter:   NewImportLimiter(opts.MaxConcurrentImports, opts.ImportWaitTime),
		opts:      opts,
		runs:      make(map[uuid.UUID]*activeRun),
		listeners: make(map[uuid.UUID][]chan Job),
	}
	s.pipeline = NewPipeline(stores.Jobs, NewStageHandlers(stores.Content, opts.Stage), extractor, PipelineOptions{
		WaitTime: opts.WaitTime,
		OnChange: s.notifyListeners,
		OnDone:   s.closeListeners,
		Now:      opts.Now,
	})
	return s
}

// Limiter exposes the import limiter for health reporting and shutdown.
func (s *Service) Limiter() *ImportLimiter {
	return s.limiter
}

// =============================================================================
// JOBS
// =============================================================================

// CreateJob extracts the source store once, detects its platform and
// persists a job with every stage pending.
func (s *Service) CreateJob(ctx context.Context, tenantID uuid.UUID, sourceURL string) (Job, error) {
	src, err := NormalizeSourceURL(sourceURL)
	if err != nil {
		return Job{}, err
	}
	if s.extractor == nil {
		return Job{}, errors.New("no extractor configured")
	}

	res, err := s.extractor.Extract(ctx, SourceRequest(src, s.opts.WaitTime))
	if err != nil {
		return Job{}, fmt.Errorf("extract source: %w", err)
	}
	detection := DetectPlatform(res.HTML)

	job := NewJob(tenantID, src, detection, s.opts.Now())
	stampClient(ctx, &job)
	if err := s.jobs.CreateJob(ctx, job); err != nil {
		return Job{}, fmt.Errorf("create job: %w", err)
	}

	logging.ForJob(ctx, job.ID.String(), tenantID.String()).Info("migration job created",
		"source_url", src,
		"platform", detection.Platform,
		"confidence", detection.Confidence,
	)
	return job, nil
}

// DetectSource extracts a store's home page and detects its platform
// without creating a job.
func (s *Service) DetectSource(ctx context.Context, sourceURL string) (Detection, error) {
	src, err := NormalizeSourceURL(sourceURL)
	if err != nil {
		return Detection{}, err
	}
	if s.extractor == nil {
		return Detection{}, errors.New("no extractor configured")
	}
	res, err := s.extractor.Extract(ctx, SourceRequest(src, s.opts.WaitTime))
	if err != nil {
		return Detection{}, fmt.Errorf("extract source: %w", err)
	}
	return DetectPlatform(res.HTML), nil
}

// NormalizeSourceURL validates a store URL. A missing scheme defaults to
// https.
func NormalizeSourceURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidSourceURL)
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSourceURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: scheme %q", ErrInvalidSourceURL, u.Scheme)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidSourceURL)
	}
	return u.String(), nil
}

// GetJob returns a job with its stage records.
func (s *Service) GetJob(ctx context.Context, jobID uuid.UUID) (Job, error) {
	return s.jobs.GetJob(ctx, jobID)
}

// ListJobs returns a tenant's jobs, newest first.
func (s *Service) ListJobs(ctx context.Context, tenantID uuid.UUID) ([]Job, error) {
	return s.jobs.ListJobs(ctx, tenantID)
}

// =============================================================================
// STAGE ACTIONS
// =============================================================================

// StartStage runs one stage synchronously. A handler failure is returned as
// a *StageError alongside the updated job.
func (s *Service) StartStage(ctx context.Context, jobID uuid.UUID, name StageName) (Job, error) {
	return s.withJob(ctx, jobID, func(ctx context.Context, job *Job) error {
		return s.pipeline.RunStage(ctx, job, name)
	})
}

// SkipStage marks a pending or errored stage as skipped.
func (s *Service) SkipStage(ctx context.Context, jobID uuid.UUID, name StageName) (Job, error) {
	return s.withJob(ctx, jobID, func(ctx context.Context, job *Job) error {
		return s.pipeline.SkipStage(ctx, job, name)
	})
}

// RetryStage moves an errored stage back to pending.
func (s *Service) RetryStage(ctx context.Context, jobID uuid.UUID, name StageName) (Job, error) {
	return s.withJob(ctx, jobID, func(ctx context.Context, job *Job) error {
		return s.pipeline.RetryStage(ctx, job, name)
	})
}

// withJob claims the job for the duration of fn so no other action or run
// can touch it concurrently.
func (s *Service) withJob(ctx context.Context, jobID uuid.UUID, fn func(context.Context, *Job) error) (Job, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	run, err := s.claim(jobID, false, cancel)
	if err != nil {
		return Job{}, err
	}
	defer s.release(run)

	job, err := s.jobs.GetJob(runCtx, jobID)
	if err != nil {
		return Job{}, err
	}
	if job.CompletedAt != nil {
		return job, ErrJobAlreadyComplete
	}

	err = fn(runCtx, &job)
	return job.Clone(), err
}

// =============================================================================
// BACKGROUND RUNS
// =============================================================================

// RunJob executes every remaining stage in the background and returns the
// job as it was when the run began. Use SubscribeJob to follow it.
func (s *Service) RunJob(ctx context.Context, jobID uuid.UUID) (Job, error) {
	// The run outlives the request but keeps its values for logging.
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), RunTimeout)

	run, err := s.claim(jobID, true, cancel)
	if err != nil {
		cancel()
		return Job{}, err
	}

	job, err := s.jobs.GetJob(ctx, jobID)
	if err == nil && job.CompletedAt != nil {
		err = ErrJobAlreadyComplete
	}
	if err != nil {
		cancel()
		s.release(run)
		return job, err
	}

	s.wg.Add(1)
	go s.runJob(runCtx, run, job)
	return job.Clone(), nil
}

func (s *Service) runJob(ctx context.Context, run *activeRun, job Job) {
	logger := logging.ForJob(ctx, job.ID.String(), job.TenantID.String())
	defer s.wg.Done()
	defer s.release(run)
	defer run.Cancel()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic in migration run",
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
	}()

	logger.Info("migration run started")
	start := time.Now()

	err := s.pipeline.Run(ctx, &job)

	var stageErr *StageError
	switch {
	case err == nil:
		logger.Info("migration run finished", "duration_ms", time.Since(start).Milliseconds())
	case errors.Is(err, ErrJobCancelled):
		logger.Info("migration run cancelled", "error", err)
	case errors.As(err, &stageErr), errors.Is(err, ErrStageGated):
		logger.Warn("migration run stopped", "error", err)
	default:
		logger.Error("migration run failed", "error", err)
	}
}

// CancelJob cancels whatever this process is currently doing with the job.
func (s *Service) CancelJob(jobID uuid.UUID) error {
	s.mu.RLock()
	run, ok := s.runs[jobID]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotRunning, jobID)
	}
	run.Cancel()
	return nil
}

// ActiveJobs lists the jobs this process is currently driving.
func (s *Service) ActiveJobs() []uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(s.runs))
	for id := range s.runs {
		ids = append(ids, id)
	}
	return ids
}

// IsRunning reports whether the job is claimed by this process.
func (s *Service) IsRunning(jobID uuid.UUID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.runs[jobID]
	return ok
}

func (s *Service) claim(jobID uuid.UUID, background bool, cancel context.CancelFunc) (*activeRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.runs[jobID]; busy {
		return nil, fmt.Errorf("%w: %s", ErrJobBusy, jobID)
	}
	run := &activeRun{
		JobID:      jobID,
		Background: background,
		Cancel:     cancel,
		Done:       make(chan struct{}),
	}
	s.runs[jobID] = run
	return run, nil
}

func (s *Service) release(run *activeRun) {
	s.mu.Lock()
	if s.runs[run.JobID] == run {
		delete(s.runs, run.JobID)
	}
	s.mu.Unlock()
	close(run.Done)
}

// WaitForRuns blocks until every background run has returned.
func (s *Service) WaitForRuns(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown waits for in-flight imports and runs. When ctx expires first the
// remaining runs are cancelled; their stages are recorded as errored and can
// be retried later.
func (s *Service) Shutdown(ctx context.Context) error {
	if err := s.limiter.WaitForDrain(ctx); err != nil {
		logging.FromContext(ctx).Warn("imports still in flight at shutdown", "active", s.limiter.ActiveCount())
	}
	if err := s.WaitForRuns(ctx); err == nil {
		return nil
	}

	s.mu.RLock()
	for _, run := range s.runs {
		run.Cancel()
	}
	s.mu.RUnlock()

	grace, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.WaitForRuns(grace); err != nil {
		return fmt.Errorf("migration runs did not stop: %w", err)
	}
	return ctx.Err()
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

// SubscribeJob returns a channel of job snapshots. The current state is sent
// first. The channel is closed when the job completes or ctx ends. Slow
// readers miss intermediate snapshots, never the final close.
func (s *Service) SubscribeJob(ctx context.Context, jobID uuid.UUID) (<-chan Job, error) {
	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	ch := make(chan Job, 16)
	ch <- job
	if job.CompletedAt != nil {
		close(ch)
		return ch, nil
	}

	s.listenerMu.Lock()
	s.listeners[jobID] = append(s.listeners[jobID], ch)
	s.listenerMu.Unlock()

	// The job may have completed between the read and the registration.
	if latest, err := s.jobs.GetJob(ctx, jobID); err == nil && latest.CompletedAt != nil {
		s.removeListener(jobID, ch, &latest)
		return ch, nil
	}

	go func() {
		<-ctx.Done()
		s.removeListener(jobID, ch, nil)
	}()
	return ch, nil
}

// notifyListeners sends a snapshot to every subscriber without blocking.
func (s *Service) notifyListeners(job Job) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()

	for _, ch := range s.listeners[job.ID] {
		select {
		case ch <- job:
		default:
		}
	}
}

// closeListeners delivers the final snapshot and closes every subscriber.
func (s *Service) closeListeners(job Job) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()

	for _, ch := range s.listeners[job.ID] {
		deliverFinal(ch, job)
		close(ch)
	}
	delete(s.listeners, job.ID)
}

// removeListener closes ch if it is still registered. final, when set, is
// delivered first.
func (s *Service) removeListener(jobID uuid.UUID, ch chan Job, final *Job) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()

	list := s.listeners[jobID]
	for i, c := range list {
		if c != ch {
			continue
		}
		if final != nil {
			deliverFinal(ch, *final)
		}
		close(ch)
		list = append(list[:i], list[i+1:]...)
		if len(list) == 0 {
			delete(s.listeners, jobID)
		} else {
			s.listeners[jobID] = list
		}
		return
	}
}

// deliverFinal makes room for the final snapshot by dropping the oldest
// buffered one if needed.
func deliverFinal(ch chan Job, job Job) {
	select {
	case ch <- job:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- job:
	default:
	}
}

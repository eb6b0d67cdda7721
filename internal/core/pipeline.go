package core

// pipeline.go drives the structure-import stages.
//
// Stages run strictly one at a time in StageOrder. Every transition is
// persisted through the JobStore before and after the stage handler runs, so
// a job can be reloaded and resumed from its stage records alone. Handler
// errors and panics are recorded on the stage and never escape as a crash.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/JonMunkholm/storemigrate/internal/logging"
)

// StageFunc executes one stage. It receives a copy of the stage record and
// returns the updated copy; setting Status to StatusSkipped reports that
// there was nothing to import.
type StageFunc func(ctx context.Context, rc *RunContext, state StageState) (StageState, error)

// RunContext carries what a stage handler may read about its run.
type RunContext struct {
	Job    Job
	Logger *slog.Logger

	extractor Extractor
	waitTime  int
	source    *ExtractionResult
}

// Source returns the extraction of the job's source URL, fetching it once
// per run.
func (rc *RunContext) Source(ctx context.Context) (*ExtractionResult, error) {
	if rc.source != nil {
		return rc.source, nil
	}
	if rc.extractor == nil {
		return nil, errors.New("no extractor configured")
	}
	res, err := rc.extractor.Extract(ctx, SourceRequest(rc.Job.SourceURL, rc.waitTime))
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", rc.Job.SourceURL, err)
	}
	rc.source = res
	return res, nil
}

// SourceRequest is the extraction request for a store's home page. Job
// creation and the stages share it so a caching extractor fetches once.
func SourceRequest(url string, waitTime int) ExtractionRequest {
	return ExtractionRequest{
		URL: url,
		Options: ExtractionOptions{
			Formats:  []string{FormatHTML, FormatBranding, FormatLinks},
			WaitTime: waitTime,
		},
	}
}

// Fetch extracts an arbitrary page, e.g. an institutional page's content.
func (rc *RunContext) Fetch(ctx context.Context, url string) (*ExtractionResult, error) {
	if rc.extractor == nil {
		return nil, errors.New("no extractor configured")
	}
	return rc.extractor.Extract(ctx, ExtractionRequest{
		URL:     url,
		Options: ExtractionOptions{Formats: []string{FormatHTML}, WaitTime: rc.waitTime},
	})
}

// PipelineOptions configures a Pipeline.
type PipelineOptions struct {
	// WaitTime is forwarded to the extractor in milliseconds.
	WaitTime int
	// OnChange receives a snapshot after every persisted transition.
	OnChange func(Job)
	// OnDone fires once per job, when its terminal stage settles.
	OnDone func(Job)
	Now    func() time.Time
}

// Pipeline executes stage handlers against persisted jobs.
type Pipeline struct {
	jobs      JobStore
	handlers  map[StageName]StageFunc
	extractor Extractor
	opts      PipelineOptions
}

// NewPipeline creates a pipeline. handlers must cover every stage that will
// be started.
func NewPipeline(jobs JobStore, handlers map[StageName]StageFunc, extractor Extractor, opts PipelineOptions) *Pipeline {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{jobs: jobs, handlers: handlers, extractor: extractor, opts: opts}
}

func (p *Pipeline) newRunContext(ctx context.Context, job *Job) *RunContext {
	return &RunContext{
		Job:       job.Clone(),
		Logger:    logging.ForJob(ctx, job.ID.String(), job.TenantID.String()),
		extractor: p.extractor,
		waitTime:  p.opts.WaitTime,
	}
}

// RunStage starts one stage and runs its handler to completion.
func (p *Pipeline) RunStage(ctx context.Context, job *Job, name StageName) error {
	return p.runStage(ctx, job, name, p.newRunContext(ctx, job))
}

// Run executes every remaining stage in order. It stops at the first stage
// that errors and refuses to pass a stage left in error or processing.
func (p *Pipeline) Run(ctx context.Context, job *Job) error {
	rc := p.newRunContext(ctx, job)

	for _, name := range StageOrder {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %v", ErrJobCancelled, ctx.Err())
		}
		st, err := job.Stage(name)
		if err != nil {
			return err
		}
		switch st.Status {
		case StatusCompleted, StatusSkipped:
			continue
		case StatusError, StatusProcessing:
			return fmt.Errorf("%w: %s is %s", ErrStageGated, name, st.Status)
		}
		if err := p.runStage(ctx, job, name, rc); err != nil {
			return err
		}
	}

	if job.Finished() && job.CompletedAt == nil {
		p.finish(ctx, job)
	}
	return nil
}

func (p *Pipeline) runStage(ctx context.Context, job *Job, name StageName, rc *RunContext) error {
	handler, ok := p.handlers[name]
	if !ok {
		return fmt.Errorf("%w: no handler for %s", ErrUnknownStage, name)
	}

	st, err := job.Apply(name, ActionStart, p.opts.Now())
	if err != nil {
		return err
	}
	if err := p.save(ctx, job, *st); err != nil {
		return err
	}

	rc.Job = job.Clone()
	logger := rc.Logger.With("stage", name)
	logger.Info("stage started")
	start := time.Now()

	stageRC := *rc
	stageRC.Logger = logger
	out, herr := p.invoke(ctx, handler, &stageRC, *st)
	rc.source = stageRC.source

	st.Stats = out.Stats
	st.Errors = append([]string{}, out.Errors...)

	action := ActionComplete
	switch {
	case herr != nil:
		action = ActionFail
		if ctx.Err() != nil {
			herr = fmt.Errorf("%w: %v", ErrJobCancelled, herr)
		}
		st.Errors = append(st.Errors, herr.Error())
	case out.Status == StatusSkipped:
		action = ActionSkip
	}

	if _, err := job.Apply(name, action, p.opts.Now()); err != nil {
		return err
	}

	// Final status must be recorded even when the run was cancelled.
	if err := p.save(context.WithoutCancel(ctx), job, *st); err != nil {
		return err
	}

	attrs := []any{
		"status", st.Status,
		"processed", st.Stats.Processed,
		"created", st.Stats.Created,
		"updated", st.Stats.Updated,
		"failed", st.Stats.Failed,
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if herr != nil {
		logger.Error("stage failed", append(attrs, "error", herr)...)
		return &StageError{Stage: name, Err: herr}
	}
	logger.Info("stage finished", attrs...)

	if job.Finished() {
		p.finish(ctx, job)
	}
	return nil
}

// invoke calls the handler, converting a panic into an error.
func (p *Pipeline) invoke(ctx context.Context, fn StageFunc, rc *RunContext, state StageState) (out StageState, err error) {
	defer func() {
		if r := recover(); r != nil {
			rc.Logger.Error("panic in stage handler",
				"panic", r,
				"stack", string(debug.Stack()),
			)
			out = state
			err = fmt.Errorf("internal error: %v", r)
		}
	}()
	return fn(ctx, rc, state)
}

// SkipStage marks a pending or errored stage as skipped.
func (p *Pipeline) SkipStage(ctx context.Context, job *Job, name StageName) error {
	st, err := job.Apply(name, ActionSkip, p.opts.Now())
	if err != nil {
		return err
	}
	if err := p.save(ctx, job, *st); err != nil {
		return err
	}
	logging.ForJob(ctx, job.ID.String(), job.TenantID.String()).Info("stage skipped", "stage", name)

	if job.Finished() {
		p.finish(ctx, job)
	}
	return nil
}

// RetryStage moves an errored stage back to pending.
func (p *Pipeline) RetryStage(ctx context.Context, job *Job, name StageName) error {
	st, err := job.Apply(name, ActionRetry, p.opts.Now())
	if err != nil {
		return err
	}
	if err := p.save(ctx, job, *st); err != nil {
		return err
	}
	logging.ForJob(ctx, job.ID.String(), job.TenantID.String()).Info("stage reset for retry", "stage", name)
	return nil
}

func (p *Pipeline) save(ctx context.Context, job *Job, st StageState) error {
	if err := p.jobs.SaveStage(ctx, job.ID, st); err != nil {
		return fmt.Errorf("save stage %s: %w", st.Name, err)
	}
	p.changed(job)
	return nil
}

func (p *Pipeline) changed(job *Job) {
	if p.opts.OnChange != nil {
		p.opts.OnChange(job.Clone())
	}
}

// finish records completion and fires OnDone. Both the completing and the
// skipping path land here; the conditional store update lets only the first
// caller through.
func (p *Pipeline) finish(ctx context.Context, job *Job) {
	logger := logging.ForJob(ctx, job.ID.String(), job.TenantID.String())
	now := p.opts.Now()

	marked, err := p.jobs.MarkJobCompleted(context.WithoutCancel(ctx), job.ID, now)
	if err != nil {
		logger.Error("failed to mark job completed", "error", err)
		return
	}
	if !marked {
		logger.Debug("job already completed")
		return
	}

	job.CompletedAt = &now
	logger.Info("migration job completed")
	p.changed(job)
	if p.opts.OnDone != nil {
		p.opts.OnDone(job.Clone())
	}
}

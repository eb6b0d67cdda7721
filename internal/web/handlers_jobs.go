package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/JonMunkholm/storemigrate/internal/core"
	"github.com/JonMunkholm/storemigrate/internal/logging"
	"github.com/go-chi/chi/v5"
)

// sseKeepAlive is how often an idle event stream sends a comment line so
// proxies keep the connection open.
const sseKeepAlive = 15 * time.Second

// CreateJobRequest is the body of POST /api/tenants/{tenantID}/migrations.
type CreateJobRequest struct {
	SourceURL string `json:"source_url"`
}

// StageFailure is returned with 422 when a stage handler fails. The job
// carries the stage's recorded error.
type StageFailure struct {
	Job   core.Job      `json:"job"`
	Error ErrorResponse `json:"error"`
}

// handleCreateJob extracts the source store and creates a migration job
// with every stage pending.
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuidParam(r, "tenantID")
	if err != nil {
		s.badRequest(w, r, err)
		return
	}

	var req CreateJobRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.badRequest(w, r, err)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	job, err := s.service.CreateJob(ctx, tenantID, req.SourceURL)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/migrations/"+job.ID.String())
	writeJSONStatus(w, http.StatusCreated, job)
}

// handleListJobs lists a tenant's jobs, newest first.
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuidParam(r, "tenantID")
	if err != nil {
		s.badRequest(w, r, err)
		return
	}

	jobs, err := s.service.ListJobs(r.Context(), tenantID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if jobs == nil {
		jobs = []core.Job{}
	}
	writeJSON(w, jobs)
}

// handleGetJob returns a job with the status of every stage.
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuidParam(r, "jobID")
	if err != nil {
		s.badRequest(w, r, err)
		return
	}

	job, err := s.service.GetJob(r.Context(), jobID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, job)
}

// handleStageAction applies start, skip or retry to one stage. Start runs
// the stage synchronously.
func (s *Server) handleStageAction(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuidParam(r, "jobID")
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	stage, err := core.ParseStage(chi.URLParam(r, "stage"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	var job core.Job
	switch action := core.StageAction(chi.URLParam(r, "action")); action {
	case core.ActionStart:
		job, err = s.service.StartStage(ctx, jobID, stage)
	case core.ActionSkip:
		job, err = s.service.SkipStage(ctx, jobID, stage)
	case core.ActionRetry:
		job, err = s.service.RetryStage(ctx, jobID, stage)
	default:
		s.respondErrorStatus(w, r, fmt.Errorf("unknown stage action %q", action), http.StatusNotFound)
		return
	}

	var stageErr *core.StageError
	switch {
	case errors.As(err, &stageErr):
		s.respondStageFailure(w, r, job, stageErr)
	case err != nil:
		s.respondError(w, r, err)
	default:
		writeJSON(w, job)
	}
}

// respondStageFailure reports a failed stage together with the job so the
// caller sees the recorded error without a second request.
func (s *Server) respondStageFailure(w http.ResponseWriter, r *http.Request, job core.Job, err *core.StageError) {
	msg := core.MapError(err)
	logging.FromContext(r.Context()).Warn("stage failed",
		"job_id", job.ID,
		"stage", err.Stage,
		"error", err.Err,
		"code", msg.Code,
	)
	writeJSONStatus(w, http.StatusUnprocessableEntity, StageFailure{
		Job: job,
		Error: ErrorResponse{
			Error:   err.Error(),
			Message: msg.Message,
			Action:  msg.Action,
			Code:    msg.Code,
		},
	})
}

// handleRunJob starts a background run of every remaining stage. Progress
// is followed through the events stream.
func (s *Server) handleRunJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuidParam(r, "jobID")
	if err != nil {
		s.badRequest(w, r, err)
		return
	}

	job, err := s.service.RunJob(WithRequestMetadata(r.Context(), r), jobID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/migrations/"+jobID.String()+"/events")
	writeJSONStatus(w, http.StatusAccepted, job)
}

// handleCancelJob cancels the action or run this process is driving for
// the job. The interrupted stage is recorded as errored.
func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuidParam(r, "jobID")
	if err != nil {
		s.badRequest(w, r, err)
		return
	}

	if err := s.service.CancelJob(jobID); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusAccepted, map[string]string{"status": "cancelling"})
}

// handleJobEvents streams job snapshots via Server-Sent Events. Every event
// carries the whole job, so a reconnecting client only needs the latest
// one. The stream ends with a complete event once the job completes.
func (s *Server) handleJobEvents(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuidParam(r, "jobID")
	if err != nil {
		s.badRequest(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondErrorStatus(w, r, errors.New("streaming not supported"), http.StatusInternalServerError)
		return
	}

	updates, err := s.service.SubscribeJob(r.Context(), jobID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepAlive := time.NewTicker(sseKeepAlive)
	defer keepAlive.Stop()

	eventID := 0
	for {
		select {
		case job, ok := <-updates:
			if !ok {
				if r.Context().Err() != nil {
					return
				}
				fmt.Fprintf(w, "event: complete\ndata: {}\n\n")
				flusher.Flush()
				return
			}

			data, err := json.Marshal(job)
			if err != nil {
				logging.FromContext(r.Context()).Error("encode job snapshot", "error", err)
				continue
			}
			eventID++
			fmt.Fprintf(w, "id: %d\nevent: job\ndata: %s\n\n", eventID, data)
			flusher.Flush()

		case <-keepAlive.C:
			fmt.Fprintf(w, ": keep-alive\n\n")
			flusher.Flush()

		case <-r.Context().Done():
			return

		case <-s.closing:
			return
		}
	}
}

package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StageName identifies one phase of the structure import.
type StageName string

const (
	StageBranding      StageName = "branding"
	StageCategories    StageName = "categories"
	StagePages         StageName = "pages"
	StageMenus         StageName = "menus"
	StageContentBlocks StageName = "content-blocks"
)

// StageOrder is the fixed execution order. The last entry is the terminal
// stage.
var StageOrder = []StageName{
	StageBranding,
	StageCategories,
	StagePages,
	StageMenus,
	StageContentBlocks,
}

// ParseStage validates a user-supplied stage name.
func ParseStage(s string) (StageName, error) {
	name := StageName(strings.ToLower(strings.TrimSpace(s)))
	if name.Order() < 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownStage, s)
	}
	return name, nil
}

// Order returns the stage's position in StageOrder, or -1.
func (n StageName) Order() int {
	for i, s := range StageOrder {
		if s == n {
			return i
		}
	}
	return -1
}

// StageStatus is the lifecycle state of a stage.
type StageStatus string

const (
	StatusPending    StageStatus = "pending"
	StatusProcessing StageStatus = "processing"
	StatusCompleted  StageStatus = "completed"
	StatusSkipped    StageStatus = "skipped"
	StatusError      StageStatus = "error"
)

// Settled reports whether the stage unblocks later stages.
func (s StageStatus) Settled() bool {
	return s == StatusCompleted || s == StatusSkipped
}

// StageAction is an event applied to a stage.
type StageAction string

const (
	ActionStart    StageAction = "start"
	ActionComplete StageAction = "complete"
	ActionFail     StageAction = "fail"
	ActionSkip     StageAction = "skip"
	ActionRetry    StageAction = "retry"
)

// transitions lists every allowed (status, action) pair.
var transitions = map[StageStatus]map[StageAction]StageStatus{
	StatusPending: {
		ActionStart: StatusProcessing,
		ActionSkip:  StatusSkipped,
	},
	StatusProcessing: {
		ActionComplete: StatusCompleted,
		ActionSkip:     StatusSkipped,
		ActionFail:     StatusError,
	},
	StatusError: {
		ActionRetry: StatusPending,
		ActionSkip:  StatusSkipped,
	},
}

// gatedActions must see every earlier stage settled.
var gatedActions = map[StageAction]bool{
	ActionStart: true,
	ActionSkip:  true,
}

// StageStats summarizes what a stage did.
type StageStats struct {
	Processed int            `json:"processed"`
	Created   int            `json:"created"`
	Updated   int            `json:"updated"`
	Failed    int            `json:"failed"`
	Extra     map[string]int `json:"extra,omitempty"`
}

// Add folds other into s.
func (s *StageStats) Add(other StageStats) {
	s.Processed += other.Processed
	s.Created += other.Created
	s.Updated += other.Updated
	s.Failed += other.Failed
	for k, v := range other.Extra {
		s.Count(k, v)
	}
}

// Count increments a named counter.
func (s *StageStats) Count(key string, n int) {
	if s.Extra == nil {
		s.Extra = make(map[string]int)
	}
	s.Extra[key] += n
}

// StageState is the serializable record of one stage. Handlers receive a
// copy and return the updated copy.
type StageState struct {
	Name       StageName   `json:"name"`
	Order      int         `json:"order"`
	Status     StageStatus `json:"status"`
	Stats      StageStats  `json:"stats"`
	Errors     []string    `json:"errors"`
	StartedAt  *time.Time  `json:"started_at,omitempty"`
	FinishedAt *time.Time  `json:"finished_at,omitempty"`
}

// AddError appends a readable error message.
func (s *StageState) AddError(format string, args ...any) {
	s.Errors = append(s.Errors, fmt.Sprintf(format, args...))
}

// Job is one migration session for a tenant. It owns its stage records.
type Job struct {
	ID          uuid.UUID    `json:"id"`
	TenantID    uuid.UUID    `json:"tenant_id"`
	SourceURL   string       `json:"source_url"`
	Platform    Platform     `json:"platform"`
	Confidence  Confidence   `json:"confidence"`
	Stages      []StageState `json:"stages"`
	CreatedAt   time.Time    `json:"created_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	CreatedByIP string       `json:"created_by_ip,omitempty"`
	CreatedByUA string       `json:"created_by_ua,omitempty"`
}

// NewJob returns a job with every stage pending.
func NewJob(tenantID uuid.UUID, sourceURL string, detection Detection, now time.Time) Job {
	stages := make([]StageState, len(StageOrder))
	for i, name := range StageOrder {
		stages[i] = StageState{Name: name, Order: i, Status: StatusPending, Errors: []string{}}
	}
	return Job{
		ID:         uuid.New(),
		TenantID:   tenantID,
		SourceURL:  sourceURL,
		Platform:   detection.Platform,
		Confidence: detection.Confidence,
		Stages:     stages,
		CreatedAt:  now,
	}
}

// Stage returns the named stage.
func (j *Job) Stage(name StageName) (*StageState, error) {
	for i := range j.Stages {
		if j.Stages[i].Name == name {
			return &j.Stages[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStage, name)
}

// StageStatus returns the named stage's status, or "" if absent.
func (j *Job) StageStatus(name StageName) StageStatus {
	st, err := j.Stage(name)
	if err != nil {
		return ""
	}
	return st.Status
}

// Finished reports whether the terminal stage is settled.
func (j *Job) Finished() bool {
	if len(j.Stages) == 0 {
		return false
	}
	return j.Stages[len(j.Stages)-1].Status.Settled()
}

// Apply performs a state transition on the named stage. Start and skip are
// rejected with ErrStageGated unless every earlier stage is completed or
// skipped.
func (j *Job) Apply(name StageName, action StageAction, now time.Time) (*StageState, error) {
	st, err := j.Stage(name)
	if err != nil {
		return nil, err
	}

	next, ok := transitions[st.Status][action]
	if !ok {
		return nil, fmt.Errorf("%w: cannot %s %s while %s", ErrInvalidTransition, action, name, st.Status)
	}

	if gatedActions[action] {
		for _, earlier := range j.Stages[:st.Order] {
			if !earlier.Status.Settled() {
				return nil, fmt.Errorf("%w: %s is %s", ErrStageGated, earlier.Name, earlier.Status)
			}
		}
	}

	st.Status = next
	switch next {
	case StatusProcessing:
		t := now
		st.StartedAt = &t
		st.FinishedAt = nil
		st.Stats = StageStats{}
		st.Errors = []string{}
	case StatusPending:
		st.StartedAt = nil
		st.FinishedAt = nil
	default:
		t := now
		st.FinishedAt = &t
	}
	return st, nil
}

// Clone returns a deep copy safe to hand to another goroutine.
func (j Job) Clone() Job {
	out := j
	out.Stages = make([]StageState, len(j.Stages))
	for i, st := range j.Stages {
		st.Errors = append([]string{}, st.Errors...)
		if st.Stats.Extra != nil {
			extra := make(map[string]int, len(st.Stats.Extra))
			for k, v := range st.Stats.Extra {
				extra[k] = v
			}
			st.Stats.Extra = extra
		}
		out.Stages[i] = st
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		out.CompletedAt = &t
	}
	return out
}

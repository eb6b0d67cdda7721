package core

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyFile          = errors.New("empty file")
	ErrUnsupportedFormat  = errors.New("unsupported file format")
	ErrUnknownKind        = errors.New("unknown entity kind")
	ErrUnknownStage       = errors.New("unknown stage")
	ErrStageGated         = errors.New("stage gated by an earlier stage")
	ErrInvalidTransition  = errors.New("invalid stage transition")
	ErrJobNotFound        = errors.New("migration job not found")
	ErrJobBusy            = errors.New("migration job already running")
	ErrJobCancelled       = errors.New("migration job cancelled")
	ErrJobAlreadyComplete = errors.New("migration job already completed")
	ErrJobNotRunning      = errors.New("migration job is not running")
	ErrInvalidSourceURL   = errors.New("invalid source url")
	ErrFileTooLarge       = errors.New("file too large")
)

// ParseError reports structurally unrecoverable input. It aborts the import
// of the current file only.
type ParseError struct {
	Line int
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error at line %d: %s", e.Line, e.Msg)
	}
	return "parse error: " + e.Msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// ConsolidationWarning records a row dropped while grouping a flattened export.
type ConsolidationWarning struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

func (w ConsolidationWarning) String() string {
	return fmt.Sprintf("row %d: %s", w.Row, w.Reason)
}

// MappingError records an entity dropped after normalization.
type MappingError struct {
	Index  int    `json:"index"`
	Kind   Kind   `json:"kind"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e MappingError) Error() string {
	return fmt.Sprintf("%s #%d: %s (%s)", e.Kind, e.Index, e.Reason, e.Field)
}

// ReferenceUnresolved notes a navigation link kept as an external item.
type ReferenceUnresolved struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

func (r ReferenceUnresolved) String() string {
	return fmt.Sprintf("unresolved link %q -> %s", r.Label, r.URL)
}

// NetworkError wraps a failed collaborator call.
type NetworkError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("network error: %s %s: status %d: %v", e.Op, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("network error: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// PartialInsertFailure records one entity that failed to persist inside a batch.
type PartialInsertFailure struct {
	Key string `json:"key"`
	Err string `json:"error"`
}

func (f PartialInsertFailure) String() string {
	return fmt.Sprintf("insert failed for %s: %s", f.Key, f.Err)
}

// StageError reports a stage whose handler failed. The stage is left in
// error and the job stops advancing until it is retried or skipped.
type StageError struct {
	Stage StageName
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

package core

// import.go turns an uploaded export file into canonical entities and hands
// them to the CatalogStore. Parsing and normalization are pure and also back
// the CLI's dry run; ImportFile adds limiting and persistence.

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/JonMunkholm/storemigrate/internal/logging"
	"github.com/google/uuid"
)

// FileFormat is the container format of an uploaded file.
type FileFormat string

const (
	FileCSV  FileFormat = "csv"
	FileJSON FileFormat = "json"
	FileXLSX FileFormat = "xlsx"
)

var zipMagic = []byte("PK\x03\x04")

// DetectFileFormat picks a format from the file extension, falling back to
// content sniffing.
func DetectFileFormat(name string, data []byte) (FileFormat, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return FileCSV, nil
	case ".json":
		return FileJSON, nil
	case ".xlsx":
		return FileXLSX, nil
	}

	if bytes.HasPrefix(data, zipMagic) {
		return FileXLSX, nil
	}
	trimmed := bytes.TrimLeft(bytes.TrimPrefix(data, utf8BOM), " \t\r\n")
	if len(trimmed) == 0 {
		return "", ErrEmptyFile
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return FileJSON, nil
	}
	if utf8.Valid(trimmed) {
		return FileCSV, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
}

// ParsedFile is an uploaded file reduced to normalizer records.
type ParsedFile struct {
	Format   FileFormat             `json:"format"`
	Shape    SourceShape            `json:"shape"`
	Headers  []string               `json:"headers,omitempty"`
	Rows     int                    `json:"rows"`
	Records  []Record               `json:"-"`
	Warnings []ConsolidationWarning `json:"warnings,omitempty"`
}

// ParseFile parses an uploaded file of the given kind. Delimited and
// spreadsheet files are shaped and, for flattened product exports,
// consolidated.
func ParseFile(name string, data []byte, kind Kind) (*ParsedFile, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	format, err := DetectFileFormat(name, data)
	if err != nil {
		return nil, err
	}

	if format == FileJSON {
		records, err := ParseStructured(data, kind)
		if err != nil {
			return nil, err
		}
		return &ParsedFile{
			Format:  format,
			Shape:   ShapeStructured,
			Headers: recordKeys(records),
			Rows:    len(records),
			Records: records,
		}, nil
	}

	var table *Table
	if format == FileXLSX {
		table, err = ParseXLSX(bytes.NewReader(data))
	} else {
		table, err = ParseDelimited(data)
	}
	if err != nil {
		return nil, err
	}

	shape := DetectShape(kind, table.Headers)
	records, warnings := PrepareRecords(shape, table)
	return &ParsedFile{
		Format:   format,
		Shape:    shape,
		Headers:  table.Headers,
		Rows:     len(table.Rows),
		Records:  records,
		Warnings: warnings,
	}, nil
}

// recordKeys returns the sorted top-level keys of the first record.
func recordKeys(records []Record) []string {
	if len(records) == 0 {
		return nil
	}
	keys := make([]string, 0, len(records[0]))
	for k := range records[0] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FilePlan is a parsed and normalized file, ready to persist.
type FilePlan struct {
	*ParsedFile
	Platform       Platform        `json:"platform"`
	PlatformSource string          `json:"platform_source"`
	Result         NormalizeResult `json:"-"`
}

// NormalizeFile parses and normalizes an uploaded file. An unknown platform
// hint is replaced by header detection.
func NormalizeFile(name string, data []byte, kind Kind, hint Platform) (*FilePlan, error) {
	parsed, err := ParseFile(name, data, kind)
	if err != nil {
		return nil, err
	}

	plan := &FilePlan{ParsedFile: parsed, Platform: hint, PlatformSource: "hint"}
	if hint == "" || hint == PlatformUnknown {
		plan.Platform = DetectFromHeaders(parsed.Headers).Platform
		plan.PlatformSource = "headers"
	}
	plan.Result = Normalize(plan.Platform, kind, parsed.Records)
	return plan, nil
}

// ImportRequest is one uploaded file destined for a tenant's catalog.
type ImportRequest struct {
	TenantID uuid.UUID
	FileName string
	Data     []byte
	Kind     Kind
	Platform Platform
}

// ImportResult summarizes a file import.
type ImportResult struct {
	FileName      string                 `json:"file_name"`
	Kind          Kind                   `json:"kind"`
	Platform      Platform               `json:"platform"`
	Format        FileFormat             `json:"format"`
	Shape         SourceShape            `json:"shape"`
	Rows          int                    `json:"rows"`
	Normalized    int                    `json:"normalized"`
	Imported      int                    `json:"imported"`
	Updated       int                    `json:"updated"`
	Failed        int                    `json:"failed"`
	Warnings      []ConsolidationWarning `json:"warnings,omitempty"`
	MappingErrors []MappingError         `json:"mapping_errors,omitempty"`
	Failures      []PartialInsertFailure `json:"failures,omitempty"`
	Duration      time.Duration          `json:"duration_ns"`
}

// ImportFile parses, normalizes and persists an uploaded file. It waits for
// an import slot first and fails with ErrTooManyImports when none frees up.
func (s *Service) ImportFile(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	if s.opts.MaxFileSize > 0 && int64(len(req.Data)) > s.opts.MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, len(req.Data), s.opts.MaxFileSize)
	}
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, ImportTimeout)
	defer cancel()

	logger := logging.WithFields(ctx,
		"tenant_id", req.TenantID,
		"file_name", req.FileName,
		"kind", req.Kind,
	)
	start := time.Now()

	plan, err := NormalizeFile(req.FileName, req.Data, req.Kind, req.Platform)
	if err != nil {
		logger.Warn("file rejected", "error", err)
		return nil, err
	}

	res := &ImportResult{
		FileName:      req.FileName,
		Kind:          req.Kind,
		Platform:      plan.Platform,
		Format:        plan.Format,
		Shape:         plan.Shape,
		Rows:          plan.Rows,
		Normalized:    plan.Result.Len(),
		Warnings:      plan.Warnings,
		MappingErrors: plan.Result.Errors,
	}

	if plan.Result.Len() > 0 {
		counts, err := s.catalog.ImportEntities(ctx, req.TenantID, plan.Platform, req.Kind, plan.Result.EntityBatch)
		if err != nil {
			logger.Error("import failed", "error", err)
			return nil, fmt.Errorf("import %s: %w", req.Kind, err)
		}
		res.Imported = counts.Imported
		res.Updated = counts.Updated
		res.Failed = counts.Failed
		res.Failures = counts.Failures
	}
	res.Duration = time.Since(start)

	for _, f := range res.Failures {
		logger.Warn("entity import failed", "key", f.Key, "error", f.Err)
	}
	logger.Info("file imported",
		"platform", plan.Platform,
		"shape", plan.Shape,
		"rows", res.Rows,
		"normalized", res.Normalized,
		"imported", res.Imported,
		"updated", res.Updated,
		"failed", res.Failed,
		"mapping_errors", len(res.MappingErrors),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

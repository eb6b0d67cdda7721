package core

// error_messages.go maps technical errors to user-facing messages with codes
// that support staff can look up.
//
// # Parse Errors (PARSE001-PARSE099)
//
//	PARSE001 - Unterminated quote: a quoted field never closes
//	PARSE002 - Empty file: no header row
//	PARSE003 - Unsupported format: not CSV, JSON or XLSX
//	PARSE004 - Malformed JSON
//	PARSE005 - Spreadsheet unreadable
//
// # Mapping Errors (MAP001-MAP099)
//
//	MAP001 - Unknown entity kind
//	MAP002 - Entity dropped for a missing required field
//
// # Stage Errors (STAGE001-STAGE099)
//
//	STAGE001 - Gated: an earlier stage is not completed or skipped
//	STAGE002 - Invalid transition for the stage's current status
//	STAGE003 - Unknown stage name
//
// # Job Errors (JOB001-JOB099)
//
//	JOB001 - Job not found
//	JOB002 - Job already running
//	JOB003 - Job cancelled
//	JOB004 - Job already completed
//	JOB005 - Job is not running
//	JOB006 - Invalid source URL
//
// # Network Errors (NET001-NET099)
//
//	NET001 - Extraction service failed or unreachable
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - Too many concurrent imports
//	IMP002 - File too large
//	IMP003 - No file provided
//
// # Database Errors (DB001-DB099), Rate Limiting (RATE001), Request (REQ001-REQ002)
//
// Fallback when no pattern matches is ERR000; check the logs for the
// technical error.
//
// Patterns are matched case-insensitively with strings.Contains. The first
// match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Parse errors
	{
		pattern: "unterminated quoted field",
		msg: UserMessage{
			Message: "The file has a quoted value that never closes",
			Action:  "Check the reported line for a missing closing quote",
			Code:    "PARSE001",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Upload a file with a header row and data rows",
			Code:    "PARSE002",
		},
	},
	{
		pattern: "unsupported file format",
		msg: UserMessage{
			Message: "The file format is not supported",
			Action:  "Upload a CSV, JSON or XLSX export",
			Code:    "PARSE003",
		},
	},
	{
		pattern: "invalid json",
		msg: UserMessage{
			Message: "The JSON file could not be read",
			Action:  "Check that the export is a complete JSON document",
			Code:    "PARSE004",
		},
	},
	{
		pattern: "spreadsheet",
		msg: UserMessage{
			Message: "The spreadsheet could not be read",
			Action:  "Re-export the sheet as XLSX or CSV",
			Code:    "PARSE005",
		},
	},

	// Mapping errors
	{
		pattern: "unknown entity kind",
		msg: UserMessage{
			Message: "Unknown import type",
			Action:  "Use product, customer or order",
			Code:    "MAP001",
		},
	},
	{
		pattern: "missing required field",
		msg: UserMessage{
			Message: "Some records are missing required fields",
			Action:  "Make sure every record has a name (or order number)",
			Code:    "MAP002",
		},
	},

	// Stage errors
	{
		pattern: "gated by an earlier stage",
		msg: UserMessage{
			Message: "This step cannot start yet",
			Action:  "Complete or skip the previous steps first",
			Code:    "STAGE001",
		},
	},
	{
		pattern: "invalid stage transition",
		msg: UserMessage{
			Message: "This action is not allowed for the step's current status",
			Action:  "Refresh the migration status and try again",
			Code:    "STAGE002",
		},
	},
	{
		pattern: "unknown stage",
		msg: UserMessage{
			Message: "Unknown migration step",
			Action:  "Use branding, categories, pages, menus or content-blocks",
			Code:    "STAGE003",
		},
	},

	// Job errors
	{
		pattern: "migration job not found",
		msg: UserMessage{
			Message: "Migration not found",
			Action:  "Verify the migration id",
			Code:    "JOB001",
		},
	},
	{
		pattern: "migration job already running",
		msg: UserMessage{
			Message: "This migration is already running",
			Action:  "Wait for the current run to finish",
			Code:    "JOB002",
		},
	},
	{
		pattern: "migration job cancelled",
		msg: UserMessage{
			Message: "The migration was cancelled",
			Action:  "Retry the interrupted step when ready",
			Code:    "JOB003",
		},
	},
	{
		pattern: "migration job already completed",
		msg: UserMessage{
			Message: "This migration has already finished",
			Action:  "Start a new migration to import again",
			Code:    "JOB004",
		},
	},
	{
		pattern: "migration job is not running",
		msg: UserMessage{
			Message: "This migration is not running",
			Action:  "Start the migration before cancelling it",
			Code:    "JOB005",
		},
	},
	{
		pattern: "invalid source url",
		msg: UserMessage{
			Message: "The store address is not valid",
			Action:  "Enter a full address starting with http:// or https://",
			Code:    "JOB006",
		},
	},

	// Network errors
	{
		pattern: "network error",
		msg: UserMessage{
			Message: "The content extraction service could not be reached",
			Action:  "Check the store URL and retry the step",
			Code:    "NET001",
		},
	},

	// Import errors
	{
		pattern: "too many concurrent imports",
		msg: UserMessage{
			Message: "The system is busy processing other imports",
			Action:  "Please wait a moment and try again",
			Code:    "IMP001",
		},
	},
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the export into smaller files",
			Code:    "IMP002",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Attach an export file to the request",
			Code:    "IMP003",
		},
	},

	// Database errors
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this key already exists",
			Action:  "Review the export for duplicate slugs",
			Code:    "DB001",
		},
	},
	{
		pattern: "violates foreign key",
		msg: UserMessage{
			Message: "Referenced record does not exist",
			Action:  "Import the parent records first",
			Code:    "DB003",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},

	// Rate limiting
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},

	// Request lifecycle
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "REQ002",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
// This is the fallback for unexpected errors. Support staff should check
// application logs for the original technical error when users report ERR000.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It searches through known error patterns (case-insensitive) and returns
// the first match. If no pattern matches, a generic fallback message with
// code ERR000 is returned.
//
// Example:
//
//	msg := MapError(ErrStageGated)
//	// msg.Code == "STAGE001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
//
// Example output: "This migration is already running (Code: JOB002). Wait for the current run to finish"
//
// This is the primary function for displaying errors to end users.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing checks if an error matches a known pattern and should be shown to users.
// Returns true if the error matches a specific pattern (not the generic ERR000 fallback).
// Use this to decide whether to show the raw error or the mapped user message.
//
// Example:
//
//	if IsUserFacing(err) {
//	    showToUser(FormatUserError(err))
//	} else {
//	    log.Error(err) // Log technical error
//	    showToUser("An error occurred. Please try again.")
//	}
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	msg := MapError(err)
	return msg.Code != defaultMessage.Code
}

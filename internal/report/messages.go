package report

// messages.go maps technical errors to operator-facing messages with codes
// for support reference.
//
// Codes are grouped by category:
//
//	STR001 - Missing header row: a sheet has no recognizable header row
//	STR002 - Missing column: a required column is absent from a sheet
//	STR003 - Invalid value: a required field is empty or has the wrong type
//	REF001 - Dangling reference: a record points at an id not present in the import
//	ARI001 - Ledger mismatch: declared and computed values disagree beyond tolerance
//	PER001 - Batch write failed: the store rejected a batch after all retries
//	PER002 - Verification failed: committed counts do not match the written set
//	PER003 - Store unavailable: the document store could not be reached
//	BAK001 - Snapshot failed: the pre-write snapshot could not be written or verified
//	BAK002 - Snapshot not found: no snapshot exists with the requested id
//	RUN001 - Import in progress: another import is running against this store
//	RUN002 - Import cancelled: the run was cancelled between stages
//	RUN003 - Import timed out
//	FILE001 - Unsupported source: the file is neither xlsx nor csv
//	FILE002 - Unreadable source: the workbook or csv could not be parsed
//	FILE003 - Empty source: no sheets were found
//	ERR000 - Unknown error
//
// Patterns are matched case-insensitively with strings.Contains. The first
// match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides operator-facing error information with guidance.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Structural
	{
		pattern: "missing header",
		msg: UserMessage{
			Message: "A sheet has no recognizable header row",
			Action:  "Make sure each sheet starts with a row of column names",
			Code:    "STR001",
		},
	},
	{
		pattern: "missing column",
		msg: UserMessage{
			Message: "A required column is missing from a sheet",
			Action:  "Check the sheet headers against the accepted column names",
			Code:    "STR002",
		},
	},
	{
		pattern: "invalid value",
		msg: UserMessage{
			Message: "A required field is empty or has the wrong type",
			Action:  "Review the rows listed in the report",
			Code:    "STR003",
		},
	},

	// Referential / arithmetic
	{
		pattern: "dangling reference",
		msg: UserMessage{
			Message: "A record refers to an id that is not part of this import",
			Action:  "Include the referenced sheet or correct the id",
			Code:    "REF001",
		},
	},
	{
		pattern: "ledger mismatch",
		msg: UserMessage{
			Message: "Declared totals do not match computed totals",
			Action:  "Review the arithmetic findings or run without strict mode",
			Code:    "ARI001",
		},
	},

	// Persistence
	{
		pattern: "persist batch",
		msg: UserMessage{
			Message: "The store rejected a batch of records",
			Action:  "The import was rolled back; retry once the store is healthy",
			Code:    "PER001",
		},
	},
	{
		pattern: "verification failed",
		msg: UserMessage{
			Message: "Committed records do not match what was written",
			Action:  "The import was rolled back; check for concurrent writers",
			Code:    "PER002",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to the document store",
			Action:  "Check DATABASE_URL and try again",
			Code:    "PER003",
		},
	},

	// Backup
	{
		pattern: "snapshot not found",
		msg: UserMessage{
			Message: "No snapshot exists with that id",
			Action:  "List snapshots and pick an existing id",
			Code:    "BAK002",
		},
	},
	{
		pattern: "snapshot",
		msg: UserMessage{
			Message: "The pre-import snapshot could not be taken",
			Action:  "Check the backup directory is writable; nothing was written",
			Code:    "BAK001",
		},
	},

	// Run lifecycle
	{
		pattern: "import in progress",
		msg: UserMessage{
			Message: "Another import is already running",
			Action:  "Wait for it to finish and try again",
			Code:    "RUN001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The import was cancelled",
			Action:  "Start a new import when ready",
			Code:    "RUN002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The import timed out",
			Action:  "Raise the caller deadline or import a smaller source",
			Code:    "RUN003",
		},
	},

	// Source files
	{
		pattern: "unknown source",
		msg: UserMessage{
			Message: "The source is not a supported file type",
			Action:  "Provide an .xlsx workbook, a .csv file or a directory of .csv files",
			Code:    "FILE001",
		},
	},
	{
		pattern: "no sheets",
		msg: UserMessage{
			Message: "The source contains no sheets",
			Action:  "Check the file is the ledger export",
			Code:    "FILE003",
		},
	},
	{
		pattern: "read source",
		msg: UserMessage{
			Message: "The source file could not be read",
			Action:  "Re-export the workbook and try again",
			Code:    "FILE002",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the logs for the technical error",
	Code:    "ERR000",
}

// MapError converts a technical error to an operator-facing message. It
// returns ERR000 when no pattern matches and the zero value for nil.
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

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

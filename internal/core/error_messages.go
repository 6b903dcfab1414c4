package core

// error_messages.go maps errors to user-facing messages with codes for
// support reference. Users can quote the code when reporting a problem.
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key: A company with this registry code already exists
//	DB004 - Connection refused: Unable to connect to database (also a failed health ping)
//	DB005 - Connection reset: Database connection was interrupted
//	DB006 - Timeout: Operation timed out
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Invalid JSON: Request body could not be decoded
//	VAL003 - Invalid field: Required field is missing or invalid
//	VAL004 - Missing column: Required column is missing from CSV
//	VAL007 - Invalid page: offset/limit out of range
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the configured size limit
//	FILE002 - Invalid CSV: File could not be parsed
//	FILE004 - No file: No file was provided
//	FILE005 - Empty file: The uploaded file has no rows
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - System busy: Too many uploads in progress
//	UPL004 - Request cancelled: Request was cancelled
//	UPL005 - Request timeout: Request timed out
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited: Too many requests
//
// Anything else maps to ERR000.
//
// Typed errors are matched first with errors.Is/errors.As; free-form errors
// fall back to case-insensitive substring patterns. The first match wins, so
// specific patterns come before general ones.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgDuplicate = UserMessage{
		Message: "A company with this registry code already exists",
		Action:  "Records are never overwritten; use a different registry code",
		Code:    "DB001",
	}
	msgInvalidField = UserMessage{
		Message: "Required field is missing or invalid",
		Action:  "Provide cnpj, denom_social and sit",
		Code:    "VAL003",
	}
	msgMissingColumn = UserMessage{
		Message: "Required columns not found in the CSV",
		Action:  "The header must contain CNPJ_CIA, DENOM_SOCIAL and SIT",
		Code:    "VAL004",
	}
	msgInvalidPage = UserMessage{
		Message: "Invalid pagination parameters",
		Action:  "Use offset >= 0 and a limit between 0 and 100",
		Code:    "VAL007",
	}
	msgFileTooLarge = UserMessage{
		Message: "File exceeds the maximum size limit",
		Action:  "Split the file into smaller chunks",
		Code:    "FILE001",
	}
	msgInvalidCSV = UserMessage{
		Message: "The CSV file could not be parsed",
		Action:  "Ensure the file is semicolon-separated with a header row",
		Code:    "FILE002",
	}
	msgNoFile = UserMessage{
		Message: "No file was provided",
		Action:  "Send the CSV in the multipart field named \"file\"",
		Code:    "FILE004",
	}
	msgEmptyFile = UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Please upload a CSV file with data rows",
		Code:    "FILE005",
	}
	msgBusy = UserMessage{
		Message: "Too many uploads in progress",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}
	msgCancelled = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL004",
	}
	msgDeadline = UserMessage{
		Message: "Request timed out",
		Action:  "Try uploading a smaller file or check your connection",
		Code:    "UPL005",
	}
	msgRateLimited = UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}
)

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns is consulted when no typed error matched.
var errorPatterns = []errorPattern{
	{pattern: "duplicate key", msg: msgDuplicate},
	{pattern: "unique constraint", msg: msgDuplicate},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "database unavailable",
		msg: UserMessage{
			Message: "Database is not reachable",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "invalid json",
		msg: UserMessage{
			Message: "Request body is not valid JSON",
			Action:  "Send a JSON object with cnpj, denom_social and sit",
			Code:    "VAL001",
		},
	},
	{pattern: "no file provided", msg: msgNoFile},
	{pattern: "file too large", msg: msgFileTooLarge},
	{pattern: "rate limit", msg: msgRateLimited},
}

// defaultMessage is returned when no specific pattern matches.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error to a user-friendly message.
// Returns an empty UserMessage for nil.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var (
		parseErr   *ParseError
		missingErr *MissingColumnsError
		validErr   *ValidationError
	)
	switch {
	case errors.Is(err, ErrEmptyInput):
		return msgEmptyFile
	case errors.Is(err, ErrFileTooLarge):
		return msgFileTooLarge
	case errors.As(err, &parseErr):
		return msgInvalidCSV
	case errors.As(err, &missingErr):
		return msgMissingColumn
	case errors.As(err, &validErr):
		return msgInvalidField
	case errors.Is(err, ErrInvalidPage):
		return msgInvalidPage
	case errors.Is(err, ErrDuplicateKey):
		return msgDuplicate
	case errors.Is(err, ErrTooManyUploads):
		return msgBusy
	case errors.Is(err, context.Canceled):
		return msgCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return msgDeadline
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
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

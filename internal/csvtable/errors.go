package csvtable

// errors.go maps technical errors to messages a viewer can act on.
//
// # Source Errors (SRC001-SRC099)
//
//	SRC001 - The data file could not be retrieved (non-2xx response)
//	SRC002 - The data source is unreachable
//	SRC003 - The data file does not exist
//	SRC004 - The source URL scheme is not supported
//	SRC005 - The S3 object or bucket does not exist
//
// # CSV Errors (CSV001-CSV099)
//
//	CSV001 - The document is empty
//	CSV002 - The document is not valid CSV
//	CSV003 - The source returned a binary file
//	CSV004 - The document exceeds SOURCE_MAX_BYTES
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - The request was cancelled
//	REQ002 - The request timed out
//
// # Rate Limiting (RATE001)
//
// # Default (ERR000)
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns come before general ones.

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyCSV          = errors.New("empty csv: no header line")
	ErrBinaryPayload     = errors.New("binary payload: source did not return text")
	ErrPayloadTooLarge   = errors.New("payload too large")
	ErrUnexpectedStatus  = errors.New("unexpected status")
	ErrUnsupportedSource = errors.New("unsupported source")
)

// UserMessage is the viewer-facing description of an error.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Source errors
	{
		pattern: "unexpected status",
		msg: UserMessage{
			Message: "The data file could not be retrieved",
			Action:  "Check that the CSV is published at the configured path",
			Code:    "SRC001",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "The data source is unreachable",
			Action:  "Please try again in a few moments",
			Code:    "SRC002",
		},
	},
	{
		pattern: "no such host",
		msg: UserMessage{
			Message: "The data source is unreachable",
			Action:  "Check the source host name",
			Code:    "SRC002",
		},
	},
	{
		pattern: "no such file",
		msg: UserMessage{
			Message: "The data file does not exist",
			Action:  "Run the build step to generate it",
			Code:    "SRC003",
		},
	},
	{
		pattern: "unsupported source",
		msg: UserMessage{
			Message: "The data source type is not supported",
			Action:  "Use an http(s), file or s3 URL",
			Code:    "SRC004",
		},
	},
	{
		pattern: "nosuchkey",
		msg: UserMessage{
			Message: "The data file does not exist in the bucket",
			Action:  "Check the object key",
			Code:    "SRC005",
		},
	},
	{
		pattern: "nosuchbucket",
		msg: UserMessage{
			Message: "The bucket does not exist",
			Action:  "Check the bucket name and region",
			Code:    "SRC005",
		},
	},

	// CSV errors
	{
		pattern: "empty csv",
		msg: UserMessage{
			Message: "The data file is empty",
			Action:  "Regenerate the CSV with a header line",
			Code:    "CSV001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "The data file is not valid CSV",
			Action:  "Check quoting and line endings in the file",
			Code:    "CSV002",
		},
	},
	{
		pattern: "binary payload",
		msg: UserMessage{
			Message: "The data source returned a non-text file",
			Action:  "Point the source at the CSV document",
			Code:    "CSV003",
		},
	},
	{
		pattern: "payload too large",
		msg: UserMessage{
			Message: "The data file exceeds the size limit",
			Action:  "Raise SOURCE_MAX_BYTES or shrink the file",
			Code:    "CSV004",
		},
	},

	// Request errors
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
			Action:  "Please try again later",
			Code:    "REQ002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Please try again later",
			Code:    "REQ002",
		},
	},

	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a UserMessage. Unknown errors map
// to ERR000; nil maps to the zero UserMessage.
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

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matched a specific pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

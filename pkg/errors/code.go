package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 11000-11999: Catalog & Team errors
// 12000-12999: Submission & Scoring errors
const (
	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	NotFound            ErrorCode = 10003
	TooManyRequests     ErrorCode = 10006
	ServiceUnavailable  ErrorCode = 10007
	Timeout             ErrorCode = 10008

	// Database errors (10100-10199)
	DatabaseError     ErrorCode = 10100
	RecordNotFound    ErrorCode = 10101
	TransactionFailed ErrorCode = 10103

	// Cache errors (10200-10299)
	CacheError ErrorCode = 10200
	LockFailed ErrorCode = 10203

	// Validation errors (10300-10399)
	ValidationFailed   ErrorCode = 10300
	RequiredFieldEmpty ErrorCode = 10303

	// ========== Catalog & Team Errors (11000-11999) ==========

	ProblemNotFound ErrorCode = 11000
	TeamNotFound    ErrorCode = 11100

	// ========== Submission & Scoring Errors (12000-12999) ==========

	UnknownToken           ErrorCode = 12000
	SubmissionCreateFailed ErrorCode = 12001
	CodeTooLarge           ErrorCode = 12002
	LanguageNotSupported   ErrorCode = 12003

	// Dispatch to the execution service (12100-12199)
	DispatchFailed ErrorCode = 12100

	// Scoring (12200-12299)
	ScoringFailed    ErrorCode = 12200
	InvalidCallback  ErrorCode = 12201
	EventPublishLost ErrorCode = 12202
)

// errorMessages maps error codes to their default English messages
var errorMessages = map[ErrorCode]string{
	Success:             "Success",
	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid parameters",
	NotFound:            "Resource not found",
	TooManyRequests:     "Too many requests, please try again later",
	ServiceUnavailable:  "Service temporarily unavailable",
	Timeout:             "Request timeout",

	DatabaseError:     "Database operation failed",
	RecordNotFound:    "Record not found in database",
	TransactionFailed: "Database transaction failed",

	CacheError: "Cache operation failed",
	LockFailed: "Failed to acquire lock",

	ValidationFailed:   "Validation failed",
	RequiredFieldEmpty: "Required field is empty",

	ProblemNotFound: "Problem not found",
	TeamNotFound:    "Team not found",

	UnknownToken:           "No submission matches the given token",
	SubmissionCreateFailed: "Failed to create submission",
	CodeTooLarge:           "Code is too large",
	LanguageNotSupported:   "Programming language not supported",

	DispatchFailed: "Failed to dispatch submission to the execution service",

	ScoringFailed:    "Failed to score submission",
	InvalidCallback:  "Invalid callback payload",
	EventPublishLost: "Failed to publish result event",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus returns the recommended HTTP status code for the error code
func (c ErrorCode) HTTPStatus() int {
	switch {
	case c == Success:
		return 200
	case c == NotFound, c == ProblemNotFound, c == TeamNotFound, c == UnknownToken:
		return 404
	case c == TooManyRequests:
		return 429
	case c == DispatchFailed:
		return 502
	case c == ServiceUnavailable:
		return 503
	case c >= 10300 && c < 10400:
		return 400
	case c == InvalidParams, c == LanguageNotSupported, c == CodeTooLarge, c == InvalidCallback:
		return 400
	default:
		return 500
	}
}

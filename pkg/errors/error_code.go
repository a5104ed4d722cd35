package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidRange         ErrorCode = 102
	ErrCodeUnknownStrategy      ErrorCode = 103

	// Data errors (200-299)
	ErrCodeInsufficientData ErrorCode = 200
	ErrCodeDataNotFound     ErrorCode = 201
	ErrCodeDataParseFailed  ErrorCode = 202

	// Optimizer errors (300-399)
	ErrCodeWorkerFailed  ErrorCode = 300
	ErrCodeOptimizeAbort ErrorCode = 301

	// Walk-forward errors (400-499)
	ErrCodeWindowTooLarge ErrorCode = 400

	// Storage errors (500-599)
	ErrCodeStorageFailed  ErrorCode = 500
	ErrCodeResultNotFound ErrorCode = 501
)

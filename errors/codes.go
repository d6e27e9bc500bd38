package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Stream data errors
const (
	// ErrCodeDecode indicates malformed encoded input (e.g. invalid base64).
	ErrCodeDecode ErrorCode = "DECODE_ERROR"
	// ErrCodeMapper indicates a user mapping function failed for one chunk.
	ErrCodeMapper ErrorCode = "MAPPER_ERROR"
	// ErrCodePredicate indicates a user predicate failed or panicked.
	ErrCodePredicate ErrorCode = "PREDICATE_ERROR"
	// ErrCodeUpstream indicates an error forwarded from a predecessor stage.
	ErrCodeUpstream ErrorCode = "UPSTREAM_ERROR"
)

// Stream lifecycle errors
const (
	// ErrCodeStreamClosed indicates an operation on an ended or destroyed stream.
	ErrCodeStreamClosed ErrorCode = "STREAM_CLOSED"
	// ErrCodeInvalidArgument indicates a stage was constructed with bad arguments.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeValidation indicates configuration or request parameters failed validation.
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
)

// External collaborator errors
const (
	// ErrCodeProcess indicates a spawned process failed or wrote to stderr.
	ErrCodeProcess ErrorCode = "PROCESS_ERROR"
	// ErrCodeInternal indicates an unexpected internal failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// fatalCodes lists the codes that terminate a stream by default.
var fatalCodes = map[ErrorCode]bool{
	ErrCodeDecode:          true,
	ErrCodePredicate:       true,
	ErrCodeInvalidArgument: true,
	ErrCodeValidation:      true,
	ErrCodeInternal:        true,
	ErrCodeMapper:          false,
	ErrCodeUpstream:        false,
	ErrCodeStreamClosed:    false,
	ErrCodeProcess:         false,
}

// IsFatalCode returns true if errors with the given code terminate a stream.
func IsFatalCode(code ErrorCode) bool {
	return fatalCodes[code]
}

package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	ErrUnsupportedEnvironment = errors.New("screen capture is not supported in this environment")
	ErrPermissionDenied       = errors.New("screen capture permission denied")
	ErrSelectionCancelled     = errors.New("no capture surface selected")
	ErrStartPending           = errors.New("a recording start is already pending")
	ErrSessionActive          = errors.New("a recording is already in progress")
	ErrFinalizing             = errors.New("the previous recording is still being finalized")
	ErrStaleSession           = errors.New("capture result belongs to a superseded session")
	ErrEmptyArtifact          = errors.New("nothing was recorded")
)

// CaptureError represents a failure reported by the capture platform
type CaptureError struct {
	Op      string // Operation: "request", "record", "stop"
	Message string // Optional human-readable context
	Err     error  // Underlying error
}

func (e *CaptureError) Error() string {
	if e.Message != "" && e.Err != nil {
		return fmt.Sprintf("capture %s: %s: %v", e.Op, e.Message, e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("capture %s: %s", e.Op, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("capture %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("capture %s failed", e.Op)
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the user can simply try starting again.
// Only an unsupported environment is permanent.
func IsRetryable(err error) bool {
	return err != nil && !errors.Is(err, ErrUnsupportedEnvironment)
}

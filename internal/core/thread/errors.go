package thread

import (
	"errors"
	"fmt"
)

var (
	// ErrThreadLoadFailed matches every error returned by a failed page read.
	ErrThreadLoadFailed = errors.New("thread load failed")
	// ErrSubmissionRejected matches every error returned by a failed write.
	ErrSubmissionRejected = errors.New("submission rejected")
	// ErrEmptyDraft is returned when a draft is blank after trimming. It is
	// never shown to the user.
	ErrEmptyDraft = errors.New("empty draft")
)

// LoadError describes a failed page read. Message is shown inline in place
// of the thread.
type LoadError struct {
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	return e.Message
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func (e *LoadError) Is(target error) bool {
	return target == ErrThreadLoadFailed
}

// RejectedError describes a failed write. Body carries the server's response
// text verbatim; StatusCode is zero when the request never got a response.
type RejectedError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *RejectedError) Error() string {
	if e.Body != "" {
		return e.Body
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("server returned status %d", e.StatusCode)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return ErrSubmissionRejected.Error()
}

func (e *RejectedError) Unwrap() error {
	return e.Err
}

func (e *RejectedError) Is(target error) bool {
	return target == ErrSubmissionRejected
}

// AsLoadError wraps err as a *LoadError unless it already is one.
func AsLoadError(err error) *LoadError {
	if err == nil {
		return nil
	}
	var le *LoadError
	if errors.As(err, &le) {
		return le
	}
	return &LoadError{Message: err.Error(), Err: err}
}

// AsRejectedError wraps err as a *RejectedError unless it already is one.
func AsRejectedError(err error) *RejectedError {
	if err == nil {
		return nil
	}
	var re *RejectedError
	if errors.As(err, &re) {
		return re
	}
	return &RejectedError{Err: err}
}

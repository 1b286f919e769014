package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the orchestrator: recoverable kinds downgrade
// to degraded results, fatal kinds terminate the run.
type Kind int

const (
	KindValidation Kind = iota // malformed input, unconfirmed subtasks
	KindNotFound               // unknown run/step
	KindProvider               // single search provider or content fetch failed
	KindQuota                  // reader-proxy daily limits
	KindUpstream               // LLM or vector index failed
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Recoverable reports whether execution can continue with degraded results.
func (e *Error) Recoverable() bool {
	return e.Kind == KindProvider || e.Kind == KindQuota
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error {
	return New(KindValidation, message)
}

func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

func Provider(message string, err error) *Error {
	return Wrap(KindProvider, message, err)
}

func Quota(message string) *Error {
	return New(KindQuota, message)
}

func Upstream(message string, err error) *Error {
	return Wrap(KindUpstream, message, err)
}

// KindOf extracts the kind from any error chain; unknown errors are upstream.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUpstream
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func IsRecoverable(err error) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Recoverable()
	}
	return false
}

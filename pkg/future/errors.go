// Copyright 2024 Atomstate Technologies Private Limited
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package future

import (
	"fmt"

	"go.uber.org/multierr"
)

// ErrorKind classifies the errors this package produces. It is not meant to
// replace Go's usual error wrapping: every Error still satisfies the error
// interface and supports errors.Is / errors.As through Unwrap.
type ErrorKind int

const (
	// KindComputationFailure marks an error raised by a user callable,
	// transform, or collector.
	KindComputationFailure ErrorKind = iota
	// KindObserverFault marks an error recovered from a panicking observer.
	// It never reaches a future's state; it is only ever reported to an
	// ErrorSink.
	KindObserverFault
	// KindUsageError marks a caller mistake: JoinNow on a Running future,
	// borrowing a stopped Managed, releasing past zero, etc.
	KindUsageError
	// KindRetryExhaustion marks the terminal failure of a retry loop.
	KindRetryExhaustion
)

// Error is the single error type this package returns. It mirrors the
// message-plus-cause shape used throughout this codebase so that
// errors.Unwrap, errors.Is and errors.As all compose normally.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewComputationFailure wraps a failure raised by user code (a transform
// function, a collector, a retried factory) as an Error of kind
// KindComputationFailure.
func NewComputationFailure(message string, cause error) *Error {
	return &Error{Kind: KindComputationFailure, Message: message, Cause: cause}
}

// NewObserverFault wraps a panic recovered from an observer callback. This
// error is only ever handed to an ErrorSink; it never completes a future.
func NewObserverFault(message string, cause error) *Error {
	return &Error{Kind: KindObserverFault, Message: message, Cause: cause}
}

// NewUsageError reports a caller mistake that the library refuses to honor.
func NewUsageError(message string) *Error {
	return &Error{Kind: KindUsageError, Message: message}
}

// ErrNotReady is returned by JoinNow when the future is still Running.
var ErrNotReady = NewUsageError("future is not ready")

// ErrCancelled is the error Join/JoinNow return for a Cancelled future.
// Cancellation is not really a failure (see the Cancellable contract), but
// Go's (T, error) idiom needs a sentinel to carry it through those calls.
var ErrCancelled = &Error{Kind: KindUsageError, Message: "future was cancelled"}

// RetryException is the composite failure a retry loop fails its
// destination future with once its policy aborts. Errors preserves every
// intermediate cause in order of occurrence; LastCause is Errors' final
// element, kept alongside for convenient access.
type RetryException struct {
	LastCause error
	Errors    []error
	combined  error
}

// NewRetryException builds a RetryException from the ordered causes
// collected across a retry loop's attempts.
func NewRetryException(last error, errs []error) *RetryException {
	return &RetryException{
		LastCause: last,
		Errors:    append([]error(nil), errs...),
		combined:  multierr.Combine(errs...),
	}
}

// Error implements the error interface.
func (e *RetryException) Error() string {
	return fmt.Sprintf("retry exhausted after %d attempt(s): %s", len(e.Errors), e.combined.Error())
}

// Unwrap exposes every intermediate cause for errors.Is/errors.As, following
// Go's native multi-error convention.
func (e *RetryException) Unwrap() []error {
	return e.Errors
}

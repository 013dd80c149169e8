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
	"sync"
	"time"
)

// Clock is the time source the Retry Driver schedules its backoff delays
// against. SystemClock and FakeClock (package clock) are the two shipped
// implementations; tests inject FakeClock for deterministic advancement.
type Clock interface {
	Now() time.Time
	Schedule(delay time.Duration, action func())
}

// Decision is a retry policy's verdict after an attempt fails.
type Decision struct {
	abort bool
	delay time.Duration
}

// AbortRetry tells RetryUntilResolved to stop attempting and fail the
// destination future with a RetryException.
func AbortRetry() Decision { return Decision{abort: true} }

// RetryAfter tells RetryUntilResolved to attempt again after delay.
func RetryAfter(delay time.Duration) Decision { return Decision{delay: delay} }

// IsAbort reports whether this Decision tells the driver to stop
// attempting.
func (d Decision) IsAbort() bool { return d.abort }

// Delay reports the backoff this Decision asks the driver to wait before
// its next attempt. Meaningless when IsAbort is true.
func (d Decision) Delay() time.Duration { return d.delay }

// RetryPolicy decides, given the elapsed time since the first attempt and
// the 1-based number of attempts made so far, whether to retry and after
// what delay.
type RetryPolicy interface {
	Decide(elapsed time.Duration, attempt int) Decision
}

// RetryPolicyFunc adapts a plain function to RetryPolicy.
type RetryPolicyFunc func(elapsed time.Duration, attempt int) Decision

// Decide implements RetryPolicy.
func (f RetryPolicyFunc) Decide(elapsed time.Duration, attempt int) Decision {
	return f(elapsed, attempt)
}

// RetryResult is the value a successful retry loop resolves its
// destination future with: the eventual value plus every cause
// encountered on the attempts that preceded it, in order.
type RetryResult[T any] struct {
	Value  T
	Errors []error
}

// retryState drives one RetryUntilResolved run as an explicit
// Attempt -> Await -> Decide state machine rather than a blocking loop, so
// backoff delays never hold a goroutine hostage.
type retryState[T any] struct {
	mu      sync.Mutex
	factory Factory[T]
	policy  RetryPolicy
	clock   Clock
	d       *ResolvableFuture[RetryResult[T]]

	start     time.Time
	attempt   int
	errors    []error
	cancelled bool
	current   Cancellable
}

// RetryUntilResolved repeatedly invokes factory until it produces a
// resolved future, reattempting on failure per policy's decision, or
// forwards cancellation immediately. On exhaustion, the destination future
// fails with a *RetryException wrapping every intermediate cause.
// Cancelling the destination future cancels the in-flight attempt and
// prevents further attempts.
func RetryUntilResolved[T any](caller Caller, factory Factory[T], policy RetryPolicy, clk Clock) Future[RetryResult[T]] {
	rs := &retryState[T]{
		factory: factory,
		policy:  policy,
		clock:   clk,
		d:       NewResolvableFuture[RetryResult[T]](caller),
		start:   clk.Now(),
	}
	rs.d.SetCancelHook(rs.cancelCurrent)
	rs.attemptNext()
	return rs.d
}

func (rs *retryState[T]) cancelCurrent() bool {
	rs.mu.Lock()
	rs.cancelled = true
	current := rs.current
	rs.mu.Unlock()
	if current != nil {
		current.Cancel()
	}
	return true
}

func (rs *retryState[T]) attemptNext() {
	rs.mu.Lock()
	if rs.cancelled {
		rs.mu.Unlock()
		return
	}
	rs.attempt++
	rs.mu.Unlock()

	f, err := rs.safeInvokeFactory()
	if err != nil {
		rs.onFailed(err)
		return
	}

	rs.mu.Lock()
	if rs.cancelled {
		rs.mu.Unlock()
		f.Cancel()
		return
	}
	rs.current = f
	rs.mu.Unlock()

	f.OnResolved(func(v T) {
		rs.mu.Lock()
		errs := append([]error(nil), rs.errors...)
		rs.mu.Unlock()
		rs.d.Resolve(RetryResult[T]{Value: v, Errors: errs})
	})
	f.OnCancelled(func() { rs.d.Cancel() })
	f.OnFailed(rs.onFailed)
}

func (rs *retryState[T]) safeInvokeFactory() (f Future[T], err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewComputationFailure("retry factory panicked", panicToError(r))
		}
	}()
	return rs.factory(), nil
}

func (rs *retryState[T]) onFailed(cause error) {
	rs.mu.Lock()
	rs.errors = append(rs.errors, cause)
	errs := append([]error(nil), rs.errors...)
	elapsed := rs.clock.Now().Sub(rs.start)
	attempt := rs.attempt
	cancelled := rs.cancelled
	rs.mu.Unlock()

	if cancelled {
		return
	}

	decision := rs.safeDecide(elapsed, attempt)
	if decision.abort {
		rs.d.Fail(NewRetryException(cause, errs))
		return
	}
	rs.clock.Schedule(decision.delay, rs.attemptNext)
}

func (rs *retryState[T]) safeDecide(elapsed time.Duration, attempt int) (decision Decision) {
	defer func() {
		if r := recover(); r != nil {
			decision = AbortRetry()
		}
	}()
	return rs.policy.Decide(elapsed, attempt)
}

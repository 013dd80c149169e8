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

import "time"

// Callable is user work submitted to an Executor through Call/LazyCall. It
// returns a plain value or an error, the same shape as any other Go
// function that can fail.
type Callable[T any] func() (T, error)

// Call submits fn to exec and returns a future that resolves with its
// result or fails with whatever error fn returned (wrapped as a
// ComputationFailure if fn panicked instead).
func Call[T any](caller Caller, exec Executor, fn Callable[T]) Future[T] {
	d := NewResolvableFuture[T](caller)
	exec.Submit(func() {
		v, err := safeCallable(fn)
		if err != nil {
			d.Fail(err)
			return
		}
		d.Resolve(v)
	})
	return d
}

// LazyCall returns a function that performs Call each time it is invoked;
// fn is not submitted until then. This variant exists for symmetry with the
// package's other Lazy* combinators, which defer work until the prior stage
// completes, whereas Call always submits immediately.
func LazyCall[T any](caller Caller, exec Executor, fn Callable[T]) func() Future[T] {
	return func() Future[T] { return Call(caller, exec, fn) }
}

func safeCallable[T any](fn Callable[T]) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewComputationFailure("callable panicked", panicToError(r))
		}
	}()
	return fn()
}

// WithTimeout races f against a timer scheduled on clk: if f has not
// completed within d, the returned future is cancelled and f is cancelled
// in turn (cooperative - f's own work must still notice the cancellation to
// actually stop). This is built entirely from existing combinators and the
// clock source; the core has no built-in timeout primitive.
func WithTimeout[T any](clk Clock, f Future[T], d time.Duration) Future[T] {
	out := NewResolvableFuture[T](f.Caller())
	out.SetCancelHook(f.Cancel)

	f.OnResolved(func(v T) { out.Resolve(v) })
	f.OnFailed(func(err error) { out.Fail(err) })
	f.OnCancelled(func() { out.Cancel() })

	clk.Schedule(d, func() {
		if out.Cancel() {
			f.Cancel()
		}
	})

	return out
}

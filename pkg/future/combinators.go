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

// Transform returns a future that, once u resolves, applies f to its value
// and resolves with the result. A panic inside f fails the downstream with
// a ComputationFailure rather than crashing the caller. Failure or
// cancellation of u propagates unchanged. Cancelling the returned future
// cancels u.
func Transform[T, R any](u Future[T], f func(T) R) Future[R] {
	d := NewResolvableFuture[R](u.Caller())
	d.SetCancelHook(u.Cancel)

	u.OnResolved(func(v T) {
		result, err := safeApply(f, v)
		if err != nil {
			d.Fail(err)
			return
		}
		d.Resolve(result)
	})
	u.OnFailed(func(err error) { d.Fail(err) })
	u.OnCancelled(func() { d.Cancel() })

	return d
}

// LazyTransform is like Transform, but f returns a future F instead of a
// bare value; D forwards F's eventual outcome, and cancelling D cancels F
// (in addition to cancelling u before F exists).
func LazyTransform[T, R any](u Future[T], f func(T) Future[R]) Future[R] {
	d := NewResolvableFuture[R](u.Caller())
	d.SetCancelHook(u.Cancel)

	u.OnResolved(func(v T) {
		next, err := safeApplyFuture(f, v)
		if err != nil {
			d.Fail(err)
			return
		}
		bindInto(d, next)
	})
	u.OnFailed(func(err error) { d.Fail(err) })
	u.OnCancelled(func() { d.Cancel() })

	return d
}

// CatchFailed returns a future that, once u fails, applies f to the cause
// and resolves with the result. A resolved or cancelled u passes through
// unchanged.
func CatchFailed[T any](u Future[T], f func(error) T) Future[T] {
	d := NewResolvableFuture[T](u.Caller())
	d.SetCancelHook(u.Cancel)

	u.OnResolved(func(v T) { d.Resolve(v) })
	u.OnFailed(func(err error) {
		result, ferr := safeApply(f, err)
		if ferr != nil {
			d.Fail(ferr)
			return
		}
		d.Resolve(result)
	})
	u.OnCancelled(func() { d.Cancel() })

	return d
}

// LazyCatchFailed is like CatchFailed, but f returns a future to forward
// instead of a bare value.
func LazyCatchFailed[T any](u Future[T], f func(error) Future[T]) Future[T] {
	d := NewResolvableFuture[T](u.Caller())
	d.SetCancelHook(u.Cancel)

	u.OnResolved(func(v T) { d.Resolve(v) })
	u.OnFailed(func(err error) {
		next, ferr := safeApplyFuture(f, err)
		if ferr != nil {
			d.Fail(ferr)
			return
		}
		bindInto(d, next)
	})
	u.OnCancelled(func() { d.Cancel() })

	return d
}

// CatchCancelled returns a future that, once u is cancelled, applies f and
// resolves with the result. A resolved or failed u passes through
// unchanged.
func CatchCancelled[T any](u Future[T], f func() T) Future[T] {
	d := NewResolvableFuture[T](u.Caller())
	d.SetCancelHook(u.Cancel)

	u.OnResolved(func(v T) { d.Resolve(v) })
	u.OnFailed(func(err error) { d.Fail(err) })
	u.OnCancelled(func() {
		result, ferr := safeApplyNoArg(f)
		if ferr != nil {
			d.Fail(ferr)
			return
		}
		d.Resolve(result)
	})

	return d
}

// LazyCatchCancelled is like CatchCancelled, but f returns a future to
// forward instead of a bare value.
func LazyCatchCancelled[T any](u Future[T], f func() Future[T]) Future[T] {
	d := NewResolvableFuture[T](u.Caller())
	d.SetCancelHook(u.Cancel)

	u.OnResolved(func(v T) { d.Resolve(v) })
	u.OnFailed(func(err error) { d.Fail(err) })
	u.OnCancelled(func() {
		next, ferr := safeApplyFutureNoArg(f)
		if ferr != nil {
			d.Fail(ferr)
			return
		}
		bindInto(d, next)
	})

	return d
}

// bindInto forwards next's eventual outcome into d, and links cancellation
// of d to next by replacing d's cancel hook. Every caller runs it from an
// observer of the upstream, which has already completed by then, so the
// replaced upstream hook has nothing left to cancel.
func bindInto[T any](d *ResolvableFuture[T], next Future[T]) {
	d.SetCancelHook(next.Cancel)
	next.OnResolved(func(v T) { d.Resolve(v) })
	next.OnFailed(func(err error) { d.Fail(err) })
	next.OnCancelled(func() { d.Cancel() })
}

// safeApply invokes f, recovering a panic as a ComputationFailure.
func safeApply[T, R any](f func(T) R, v T) (result R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewComputationFailure("transform panicked", panicToError(r))
		}
	}()
	return f(v), nil
}

func safeApplyNoArg[R any](f func() R) (result R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewComputationFailure("transform panicked", panicToError(r))
		}
	}()
	return f(), nil
}

func safeApplyFuture[T, R any](f func(T) Future[R], v T) (result Future[R], err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewComputationFailure("lazy transform panicked", panicToError(r))
		}
	}()
	return f(v), nil
}

func safeApplyFutureNoArg[R any](f func() Future[R]) (result Future[R], err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewComputationFailure("lazy transform panicked", panicToError(r))
		}
	}()
	return f(), nil
}

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

import "sync"

// StreamCollector receives each upstream's outcome as it happens, rather
// than buffering every result. Resolved/Failed/Cancelled are invoked once
// per input, through the governing Caller; End runs exactly once, after the
// last input has reported, and its return becomes the destination future's
// value (or, if it errors, its failure cause).
type StreamCollector[T, R any] interface {
	Resolved(v T)
	Failed(err error)
	Cancelled()
	End(resolved, failed, cancelled int) (R, error)
}

// CollectStream drives futures through collector and resolves the returned
// future with collector.End's return once every input has reported exactly
// once. Cancelling the returned future cancels every upstream.
func CollectStream[T, R any](caller Caller, futures []Future[T], collector StreamCollector[T, R]) Future[R] {
	d := NewResolvableFuture[R](caller)

	n := len(futures)
	if n == 0 {
		result, err := safeEnd(collector, 0, 0, 0)
		if err != nil {
			d.Fail(err)
		} else {
			d.Resolve(result)
		}
		return d
	}

	d.SetCancelHook(func() bool {
		for _, f := range futures {
			f.Cancel()
		}
		return true
	})

	var mu sync.Mutex
	remaining := n
	resolvedCount, failedCount, cancelledCount := 0, 0, 0

	finishOne := func() {
		mu.Lock()
		remaining--
		done := remaining == 0
		r, fl, c := resolvedCount, failedCount, cancelledCount
		mu.Unlock()

		if !done {
			return
		}
		result, err := safeEnd(collector, r, fl, c)
		if err != nil {
			d.Fail(err)
			return
		}
		d.Resolve(result)
	}

	for _, f := range futures {
		f.OnResolved(func(v T) {
			d.caller.Invoke("stream.resolved", func() { collector.Resolved(v) })
			mu.Lock()
			resolvedCount++
			mu.Unlock()
			finishOne()
		})
		f.OnFailed(func(err error) {
			d.caller.Invoke("stream.failed", func() { collector.Failed(err) })
			mu.Lock()
			failedCount++
			mu.Unlock()
			finishOne()
		})
		f.OnCancelled(func() {
			d.caller.Invoke("stream.cancelled", func() { collector.Cancelled() })
			mu.Lock()
			cancelledCount++
			mu.Unlock()
			finishOne()
		})
	}

	return d
}

func safeEnd[T, R any](collector StreamCollector[T, R], resolved, failed, cancelled int) (result R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewComputationFailure("stream collector end panicked", panicToError(r))
		}
	}()
	return collector.End(resolved, failed, cancelled)
}

// CollectAndDiscard waits for every future to complete, discarding their
// values. It fails with the first-observed cause if any upstream failed,
// else cancels if any upstream was cancelled, else resolves void. This is
// its own driver rather than a thin CollectStream wrapper: End's (R, error)
// shape can report a failure but has no way to signal "cancel the
// destination", so cancellation is detected and applied directly here.
func CollectAndDiscard[T any](caller Caller, futures []Future[T]) Future[struct{}] {
	d := NewResolvableFuture[struct{}](caller)

	n := len(futures)
	if n == 0 {
		d.Resolve(struct{}{})
		return d
	}

	d.SetCancelHook(func() bool {
		for _, f := range futures {
			f.Cancel()
		}
		return true
	})

	var mu sync.Mutex
	remaining := n
	failedCount, cancelledCount := 0, 0
	var cause error

	finishOne := func() {
		mu.Lock()
		remaining--
		done := remaining == 0
		fl, c, causeSnapshot := failedCount, cancelledCount, cause
		mu.Unlock()

		if !done {
			return
		}
		switch {
		case fl > 0:
			d.Fail(causeSnapshot)
		case c > 0:
			d.Cancel()
		default:
			d.Resolve(struct{}{})
		}
	}

	for _, f := range futures {
		f.OnResolved(func(T) { finishOne() })
		f.OnFailed(func(err error) {
			mu.Lock()
			failedCount++
			if cause == nil {
				cause = err
			}
			mu.Unlock()
			finishOne()
		})
		f.OnCancelled(func() {
			mu.Lock()
			cancelledCount++
			mu.Unlock()
			finishOne()
		})
	}

	return d
}

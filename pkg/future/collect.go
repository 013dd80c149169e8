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

// Collector reduces the ordered, successful results of a buffered Collect
// into a single value R. It is invoked at most once, only when every input
// resolved; failure or cancellation of any input bypasses it entirely.
type Collector[T, R any] func(results []T) (R, error)

// Collect aggregates futures in input order into a future of []T. Outcome
// priority on completion is failed > cancelled > resolved: if any upstream
// failed, D fails with the first-observed cause; else if any was cancelled,
// D is cancelled; else D resolves with every result, in input order.
// Cancelling D cancels every upstream. An empty slice resolves immediately
// with an empty result.
func Collect[T any](caller Caller, futures []Future[T]) Future[[]T] {
	return CollectWith(caller, futures, func(results []T) ([]T, error) {
		return results, nil
	})
}

// CollectWith is Collect, but applies collector to the ordered results
// instead of returning them directly. collector runs only on the all-
// resolved path; a panic or error from it fails D.
func CollectWith[T, R any](caller Caller, futures []Future[T], collector Collector[T, R]) Future[R] {
	d := NewResolvableFuture[R](caller)

	n := len(futures)
	if n == 0 {
		result, err := safeCollector(collector, nil)
		if err != nil {
			d.Fail(err)
		} else {
			d.Resolve(result)
		}
		return d
	}

	results := make([]T, n)

	var mu sync.Mutex
	remaining := n
	failedCount := 0
	cancelledCount := 0
	var cause error

	d.SetCancelHook(func() bool {
		for _, f := range futures {
			f.Cancel()
		}
		return true
	})

	finishOne := func(apply func()) {
		mu.Lock()
		apply()
		remaining--
		done := remaining == 0
		fcount, ccount, c := failedCount, cancelledCount, cause
		mu.Unlock()

		if !done {
			return
		}
		switch {
		case fcount > 0:
			d.Fail(c)
		case ccount > 0:
			d.Cancel()
		default:
			result, err := safeCollector(collector, results)
			if err != nil {
				d.Fail(err)
				return
			}
			d.Resolve(result)
		}
	}

	for i, f := range futures {
		i := i
		f.OnResolved(func(v T) {
			finishOne(func() { results[i] = v })
		})
		f.OnFailed(func(err error) {
			finishOne(func() {
				failedCount++
				if cause == nil {
					cause = err
				}
			})
		})
		f.OnCancelled(func() {
			finishOne(func() { cancelledCount++ })
		})
	}

	return d
}

func safeCollector[T, R any](collector Collector[T, R], results []T) (result R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewComputationFailure("collector panicked", panicToError(r))
		}
	}()
	return collector(results)
}

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

// Factory lazily produces a future, invoked only once EventuallyCollect's
// parallelism bound allows it to start.
type Factory[T any] func() Future[T]

// delayedCoordinator drives a single EventuallyCollect run.
type delayedCoordinator[T, R any] struct {
	mu sync.Mutex

	factories []Factory[T]
	collector StreamCollector[T, R]
	d         *ResolvableFuture[R]

	nextIndex        int
	pending          int
	aborted          bool
	finishSuppressed bool
	finished         bool
	launched         []Cancellable

	resolved, failed, cancelled int
}

// EventuallyCollect invokes factories lazily, never running more than
// parallelism at once, forwarding each outcome to collector as it happens.
// The first failure or cancellation among started factories aborts the
// run: no further factories are invoked, every inflight future is
// cancelled, and every factory that was never invoked is reported to
// collector as Cancelled and counted as such in the final tally.
// Cancelling the returned future triggers the same abort path.
func EventuallyCollect[T, R any](caller Caller, factories []Factory[T], collector StreamCollector[T, R], parallelism int) Future[R] {
	if parallelism < 1 {
		parallelism = 1
	}

	c := &delayedCoordinator[T, R]{
		factories: factories,
		collector: collector,
		d:         NewResolvableFuture[R](caller),
	}

	n := len(factories)
	if n == 0 {
		result, err := safeEnd(collector, 0, 0, 0)
		if err != nil {
			c.d.Fail(err)
		} else {
			c.d.Resolve(result)
		}
		return c.d
	}

	c.d.SetCancelHook(func() bool {
		c.abort()
		return true
	})

	c.mu.Lock()
	start := parallelism
	if start > n {
		start = n
	}
	c.nextIndex = start
	c.mu.Unlock()

	for i := 0; i < start; i++ {
		c.launch(i)
	}

	return c.d
}

// launch invokes factories[idx] and wires its outcome back into the
// coordinator. It must be called without c.mu held.
func (c *delayedCoordinator[T, R]) launch(idx int) {
	c.mu.Lock()
	c.pending++
	c.mu.Unlock()

	f, err := c.safeInvoke(idx)
	if err != nil {
		c.onOutcome(func() { c.failed++ }, func() { c.collector.Failed(err) }, true)
		return
	}

	c.mu.Lock()
	c.launched = append(c.launched, f)
	c.mu.Unlock()

	f.OnResolved(func(v T) {
		c.onOutcome(func() { c.resolved++ }, func() { c.collector.Resolved(v) }, false)
	})
	f.OnFailed(func(err error) {
		c.onOutcome(func() { c.failed++ }, func() { c.collector.Failed(err) }, true)
	})
	f.OnCancelled(func() {
		c.onOutcome(func() { c.cancelled++ }, func() { c.collector.Cancelled() }, true)
	})
}

// safeInvoke runs the factory at idx, recovering a synchronous panic as a
// ComputationFailure (see Open Question (b)): it is treated exactly like a
// factory that returned an already-failed future.
func (c *delayedCoordinator[T, R]) safeInvoke(idx int) (f Future[T], err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewComputationFailure("eventuallyCollect factory panicked", panicToError(r))
		}
	}()
	return c.factories[idx](), nil
}

// onOutcome records one slot's terminal outcome, reports it to collector
// through the Caller, triggers abort if isAbortTrigger, launches the next
// factory if capacity allows, and finalizes the run if this was the last
// outstanding slot.
//
// While doAbort is draining currently-inflight upstreams it cancels them
// directly, which reenters this method synchronously (Cancel -> OnCancelled
// -> onOutcome) on the same goroutine. finishSuppressed keeps those nested
// calls from finalizing the run before doAbort has finished synthesizing
// Cancelled notifications for the factories that were never invoked.
func (c *delayedCoordinator[T, R]) onOutcome(record func(), report func(), isAbortTrigger bool) {
	c.mu.Lock()
	record()
	c.pending--
	shouldAbort := isAbortTrigger && !c.aborted
	if shouldAbort {
		c.aborted = true
	}
	c.mu.Unlock()

	c.d.caller.Invoke("eventuallyCollect.report", report)

	if shouldAbort {
		c.doAbort()
		return
	}

	c.mu.Lock()
	suppressed := c.finishSuppressed
	c.mu.Unlock()
	if suppressed {
		return
	}

	c.tryLaunchNext()
	c.tryFinish()
}

// abort is the external entry point (cancellation of the destination
// future); onOutcome's internal abort path goes through doAbort directly
// once it has already claimed the transition.
func (c *delayedCoordinator[T, R]) abort() {
	c.mu.Lock()
	already := c.aborted
	c.aborted = true
	c.mu.Unlock()
	if !already {
		c.doAbort()
	}
}

// doAbort cancels every currently-inflight upstream and synthesizes a
// Cancelled notification for every factory that was never invoked, then
// finalizes the run exactly once all of that bookkeeping is settled.
func (c *delayedCoordinator[T, R]) doAbort() {
	c.mu.Lock()
	c.finishSuppressed = true
	n := len(c.factories)
	uninvoked := n - c.nextIndex
	c.nextIndex = n
	inflight := append([]Cancellable(nil), c.launched...)
	c.mu.Unlock()

	for _, f := range inflight {
		f.Cancel()
	}

	for i := 0; i < uninvoked; i++ {
		c.mu.Lock()
		c.cancelled++
		c.mu.Unlock()
		c.d.caller.Invoke("eventuallyCollect.cancelled", c.collector.Cancelled)
	}

	c.mu.Lock()
	c.finishSuppressed = false
	c.mu.Unlock()

	c.tryFinish()
}

func (c *delayedCoordinator[T, R]) tryLaunchNext() {
	c.mu.Lock()
	if c.aborted || c.nextIndex >= len(c.factories) {
		c.mu.Unlock()
		return
	}
	idx := c.nextIndex
	c.nextIndex++
	c.mu.Unlock()

	c.launch(idx)
}

func (c *delayedCoordinator[T, R]) tryFinish() {
	c.mu.Lock()
	done := !c.finished && c.pending == 0 && c.nextIndex >= len(c.factories)
	if !done {
		c.mu.Unlock()
		return
	}
	c.finished = true
	resolved, failed, cancelled := c.resolved, c.failed, c.cancelled
	c.mu.Unlock()

	result, err := safeEnd(c.collector, resolved, failed, cancelled)
	if err != nil {
		c.d.Fail(err)
		return
	}
	c.d.Resolve(result)
}

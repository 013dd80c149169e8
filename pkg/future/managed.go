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

// managedState mirrors the Initial -> Starting -> Started -> Stopping ->
// Stopped lifecycle of a Managed reference.
type managedState int

const (
	managedInitial managedState = iota
	managedStarting
	managedStarted
	managedStopping
	managedStopped
)

// Borrowed wraps a borrowed value together with the release closure the
// borrower must call exactly once when done with it.
type Borrowed[T any] struct {
	Value   T
	Release func()
}

// Managed is a reference-counted, asynchronously-started and -stopped
// handle around a heavy resource. Setup runs once, lazily, the first time
// Start is called; Stop is idempotent and waits for every outstanding
// borrow to release before tearing the value down.
type Managed[T any] struct {
	mu       sync.Mutex
	caller   Caller
	sink     ErrorSink
	setup    func() Future[T]
	teardown func(T)

	state    managedState
	value    T
	refcount int

	startFuture *ResolvableFuture[T]
	stopFuture  *ResolvableFuture[struct{}]
}

// NewManaged constructs a Managed that lazily runs setup on first Start and
// teardown once Stop has drained every borrow.
func NewManaged[T any](caller Caller, sink ErrorSink, setup func() Future[T], teardown func(T)) *Managed[T] {
	if sink == nil {
		sink = NopErrorSink{}
	}
	return &Managed[T]{caller: caller, sink: sink, setup: setup, teardown: teardown}
}

// Start begins setup if this is the first call, and returns a future that
// resolves with the value once setup completes. Subsequent calls return the
// same future.
func (m *Managed[T]) Start() Future[T] {
	m.mu.Lock()
	if m.startFuture != nil {
		f := m.startFuture
		m.mu.Unlock()
		return f
	}
	m.state = managedStarting
	m.startFuture = NewResolvableFuture[T](m.caller)
	setup := m.setup
	m.mu.Unlock()

	f := setup()
	f.OnResolved(func(v T) {
		m.mu.Lock()
		m.value = v
		m.state = managedStarted
		m.mu.Unlock()
		m.startFuture.Resolve(v)
	})
	f.OnFailed(func(err error) { m.startFuture.Fail(err) })
	f.OnCancelled(func() { m.startFuture.Cancel() })

	return m.startFuture
}

// Borrow increments the refcount and returns the current value, refused
// once Stop has been called. The release closure is idempotent: only its
// first call decrements the refcount, later calls are silently ignored.
// A release that would take the refcount below zero is reported to the
// error sink as a UsageError rather than panicking.
func (m *Managed[T]) Borrow() Future[Borrowed[T]] {
	d := NewResolvableFuture[Borrowed[T]](m.caller)

	m.mu.Lock()
	if m.state == managedStopping || m.state == managedStopped {
		m.mu.Unlock()
		d.Fail(NewUsageError("managed has stopped"))
		return d
	}
	m.mu.Unlock()

	m.Start().OnResolved(func(v T) {
		m.mu.Lock()
		if m.state == managedStopping || m.state == managedStopped {
			m.mu.Unlock()
			d.Fail(NewUsageError("managed has stopped"))
			return
		}
		m.refcount++
		m.mu.Unlock()

		var released sync.Once
		d.Resolve(Borrowed[T]{
			Value: v,
			Release: func() {
				released.Do(m.release)
			},
		})
	})
	m.Start().OnFailed(func(err error) { d.Fail(err) })

	return d
}

func (m *Managed[T]) release() {
	m.mu.Lock()
	if m.refcount == 0 {
		m.mu.Unlock()
		m.sink.Uncaught("managed.release", NewUsageError("release called beyond tracked refcount"))
		return
	}
	m.refcount--
	shouldTeardown := m.refcount == 0 && m.state == managedStopping
	value := m.value
	stopFuture := m.stopFuture
	m.mu.Unlock()

	if shouldTeardown {
		m.runTeardown(value, stopFuture)
	}
}

// Stop forbids new borrows and, once every outstanding borrow has
// released, runs teardown. The returned future completes when teardown
// does. A second call returns the same future without re-running teardown.
func (m *Managed[T]) Stop() Future[struct{}] {
	m.mu.Lock()
	if m.stopFuture != nil {
		f := m.stopFuture
		m.mu.Unlock()
		return f
	}
	m.stopFuture = NewResolvableFuture[struct{}](m.caller)
	m.state = managedStopping
	stopFuture := m.stopFuture
	started := m.startFuture
	m.mu.Unlock()

	finalize := func() {
		m.mu.Lock()
		refcount := m.refcount
		value := m.value
		m.mu.Unlock()
		if refcount == 0 {
			m.runTeardown(value, stopFuture)
		}
	}

	if started == nil {
		stopFuture.Resolve(struct{}{})
		return stopFuture
	}
	started.OnResolved(func(T) { finalize() })
	started.OnFailed(func(error) { stopFuture.Resolve(struct{}{}) })
	started.OnCancelled(func() { stopFuture.Resolve(struct{}{}) })

	return stopFuture
}

func (m *Managed[T]) runTeardown(value T, stopFuture *ResolvableFuture[struct{}]) {
	func() {
		defer reportPanic(m.sink, "managed.teardown")
		if m.teardown != nil {
			m.teardown(value)
		}
	}()
	m.mu.Lock()
	m.state = managedStopped
	m.mu.Unlock()
	stopFuture.Resolve(struct{}{})
}

// ReloadableManaged adds an atomic value swap on top of Managed: Reload
// starts a new value and, once it is ready, swaps it in and stops the old
// value, without ever leaving borrowers holding a value out from under
// them mid-borrow.
type ReloadableManaged[T any] struct {
	mu       sync.Mutex
	caller   Caller
	sink     ErrorSink
	setup    func() Future[T]
	teardown func(T)

	current *Managed[T]
}

// NewReloadableManaged constructs a ReloadableManaged whose initial value
// is produced the same way every reload's replacement value is.
func NewReloadableManaged[T any](caller Caller, sink ErrorSink, setup func() Future[T], teardown func(T)) *ReloadableManaged[T] {
	if sink == nil {
		sink = NopErrorSink{}
	}
	r := &ReloadableManaged[T]{caller: caller, sink: sink, setup: setup, teardown: teardown}
	r.current = NewManaged[T](caller, sink, setup, teardown)
	return r
}

// Start delegates to the currently active Managed.
func (r *ReloadableManaged[T]) Start() Future[T] {
	r.mu.Lock()
	cur := r.current
	r.mu.Unlock()
	return cur.Start()
}

// Borrow delegates to the currently active Managed.
func (r *ReloadableManaged[T]) Borrow() Future[Borrowed[T]] {
	r.mu.Lock()
	cur := r.current
	r.mu.Unlock()
	return cur.Borrow()
}

// Reload starts a new value and, once that setup resolves, swaps it in as
// the value future borrowers now see, then stops the old value. The
// returned future completes once both the new value is ready and the old
// value has fully stopped.
func (r *ReloadableManaged[T]) Reload() Future[struct{}] {
	next := NewManaged[T](r.caller, r.sink, r.setup, r.teardown)

	r.mu.Lock()
	old := r.current
	r.mu.Unlock()

	d := NewResolvableFuture[struct{}](r.caller)

	next.Start().OnResolved(func(T) {
		r.mu.Lock()
		r.current = next
		r.mu.Unlock()

		old.Stop().OnFinished(func() { d.Resolve(struct{}{}) })
	})
	next.Start().OnFailed(func(err error) { d.Fail(err) })

	return d
}

// Stop stops the currently active Managed.
func (r *ReloadableManaged[T]) Stop() Future[struct{}] {
	r.mu.Lock()
	cur := r.current
	r.mu.Unlock()
	return cur.Stop()
}

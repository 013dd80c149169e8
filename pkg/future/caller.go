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

import "fmt"

// ErrorSink receives exceptions thrown by user observers. It never affects
// a future's own state; it exists purely so those faults are not silently
// dropped. The default instance, NopErrorSink, drops them anyway - callers
// that care should plug in github.com/atomstate/future/pkg/errsink.LoggingErrorSink
// or one of their own.
type ErrorSink interface {
	Uncaught(context string, err error)
}

// NopErrorSink discards everything it is given.
type NopErrorSink struct{}

// Uncaught implements ErrorSink.
func (NopErrorSink) Uncaught(string, error) {}

// Executor is the contract a threaded Caller submits observer invocations
// to. The framework never inspects or waits on anything Submit might
// return; it only relies on the submitted task eventually running.
type Executor interface {
	Submit(task func())
}

// Caller invokes a user observer callback, isolating panics so they never
// corrupt the future's completion state machine. DirectCaller runs the
// callback inline, on the completing goroutine; ThreadedCaller hands it to
// an Executor.
type Caller interface {
	// Invoke runs fn, recovering any panic and reporting it to the
	// configured ErrorSink tagged with context. context is a short label
	// such as "onResolved" or "stream.end", useful for diagnosing which
	// kind of observer misbehaved.
	Invoke(context string, fn func())
}

// DirectCaller runs observer callbacks on the goroutine that completed the
// future. It is the cheapest Caller and the right default when observers
// are small and non-blocking.
type DirectCaller struct {
	Sink ErrorSink
}

// Invoke implements Caller.
func (d DirectCaller) Invoke(context string, fn func()) {
	defer reportPanic(d.sink(), context)
	fn()
}

func (d DirectCaller) sink() ErrorSink {
	if d.Sink == nil {
		return NopErrorSink{}
	}
	return d.Sink
}

// ThreadedCaller hands observer invocation off to an Executor, keeping slow
// or blocking observers off the goroutine that completed the future.
type ThreadedCaller struct {
	Executor Executor
	Sink     ErrorSink
}

// Invoke implements Caller.
func (t ThreadedCaller) Invoke(context string, fn func()) {
	sink := t.Sink
	if sink == nil {
		sink = NopErrorSink{}
	}
	t.Executor.Submit(func() {
		defer reportPanic(sink, context)
		fn()
	})
}

// reportPanic recovers a panic, if any, and reports it as an ObserverFault.
// It must be called via defer.
func reportPanic(sink ErrorSink, context string) {
	if r := recover(); r != nil {
		sink.Uncaught(context, NewObserverFault(fmt.Sprintf("observer panicked: %v", r), nil))
	}
}

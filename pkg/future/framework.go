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

// Framework bundles the four ambient collaborators every constructor in
// this package otherwise takes individually: a Caller, an Executor, an
// ErrorSink and a Clock. It carries no other state and is never a
// package-level singleton - construct one with New (or atomfuture.Default)
// and pass it around like any other dependency.
type Framework struct {
	Caller   Caller
	Executor Executor
	Sink     ErrorSink
	Clock    Clock
}

// New builds a Framework from explicit collaborators. A nil caller or sink
// falls back to an inert default (DirectCaller, NopErrorSink); exec and clk
// have no safe default and must be supplied if the corresponding methods
// will be used.
func New(caller Caller, exec Executor, sink ErrorSink, clk Clock) *Framework {
	if sink == nil {
		sink = NopErrorSink{}
	}
	if caller == nil {
		caller = DirectCaller{Sink: sink}
	}
	return &Framework{Caller: caller, Executor: exec, Sink: sink, Clock: clk}
}

// NewManagedWith constructs a Managed dispatching through fw's Caller and
// reporting teardown panics to fw's Sink. It exists because Go forbids
// generic methods on Framework itself (Framework is not a generic type) -
// every generic entry point in this package is a free function that takes
// a Framework's collaborators, not a method on Framework.
func NewManagedWith[T any](fw *Framework, setup func() Future[T], teardown func(T)) *Managed[T] {
	return NewManaged(fw.Caller, fw.Sink, setup, teardown)
}

// CallWith submits fn to fw's Executor, resolving through fw's Caller.
func CallWith[T any](fw *Framework, fn Callable[T]) Future[T] {
	return Call(fw.Caller, fw.Executor, fn)
}

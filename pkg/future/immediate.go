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

// NewResolved returns a Future already Resolved with value. It dispatches
// any observer registered on it through caller, as if it had resolved the
// instant before the observer was attached. A nil caller defaults to
// DirectCaller{}.
func NewResolved[T any](caller Caller, value T) Future[T] {
	f := NewResolvableFuture[T](caller)
	f.Resolve(value)
	return f
}

// NewFailed returns a Future already Failed with cause.
func NewFailed[T any](caller Caller, cause error) Future[T] {
	f := NewResolvableFuture[T](caller)
	f.Fail(cause)
	return f
}

// NewCancelled returns a Future already Cancelled.
func NewCancelled[T any](caller Caller) Future[T] {
	f := NewResolvableFuture[T](caller)
	f.Cancel()
	return f
}

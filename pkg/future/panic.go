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

// panicToError normalizes a recovered panic value into an error, preserving
// it as-is when it already is one.
func panicToError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}

// ErrorFromRecover is panicToError exported for callers outside this
// package, such as an Executor's panic callback, that need to fold a
// recovered value into the same error it would have become had the panic
// happened inside a Caller-dispatched observer.
func ErrorFromRecover(r any) error {
	return panicToError(r)
}

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

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransformRoundTrip(t *testing.T) {
	resolved := NewResolved[int](nil, 7)
	d := Transform(resolved, func(v int) int { return v })
	v, err := d.Join()
	assert.NoError(t, err)
	assert.Equal(t, 7, v)

	cause := errors.New("boom")
	failed := NewFailed[int](nil, cause)
	d2 := Transform(failed, func(v int) int { return v * 2 })
	_, err = d2.Join()
	assert.ErrorIs(t, err, cause)

	cancelled := NewCancelled[int](nil)
	d3 := Transform(cancelled, func(v int) int { return v })
	_, err = d3.Join()
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestTransformException(t *testing.T) {
	// A transform function that panics fails the downstream future without
	// affecting the upstream it was applied to.
	u := NewResolvableFuture[int](nil)
	d := Transform[int, int](u, func(int) int { panic("kaboom") })

	u.Resolve(5)

	_, err := d.Join()
	assert.Error(t, err)
	var fe *Error
	assert.True(t, errors.As(err, &fe))
	assert.Equal(t, KindComputationFailure, fe.Kind)

	uv, uerr := u.Join()
	assert.NoError(t, uerr)
	assert.Equal(t, 5, uv)
}

func TestCatchFailedSymmetry(t *testing.T) {
	resolved := NewResolved[int](nil, 3)
	d := CatchFailed(resolved, func(error) int { return -1 })
	v, err := d.Join()
	assert.NoError(t, err)
	assert.Equal(t, 3, v)

	cause := errors.New("failure")
	failed := NewFailed[int](nil, cause)
	d2 := CatchFailed(failed, func(e error) int {
		assert.ErrorIs(t, e, cause)
		return 99
	})
	v2, err := d2.Join()
	assert.NoError(t, err)
	assert.Equal(t, 99, v2)
}

func TestCatchCancelledSymmetry(t *testing.T) {
	cancelled := NewCancelled[int](nil)
	d := CatchCancelled(cancelled, func() int { return 11 })
	v, err := d.Join()
	assert.NoError(t, err)
	assert.Equal(t, 11, v)
}

func TestDownstreamCancelsUpstream(t *testing.T) {
	// Cancelling a combinator's downstream future cancels its still-running
	// upstream, and the transform function is never invoked.
	u := NewResolvableFuture[int](nil)
	called := false
	d := Transform(u, func(v int) int {
		called = true
		return v
	})

	d.Cancel()

	assert.True(t, u.IsCancelled())
	assert.False(t, called)
}

func TestLazyTransformBindsToProducedFuture(t *testing.T) {
	u := NewResolvableFuture[int](nil)
	inner := NewResolvableFuture[string](nil)

	d := LazyTransform(u, func(v int) Future[string] {
		return inner
	})

	u.Resolve(4)
	assert.False(t, d.IsDone(), "D waits on the future f produced, not just f's invocation")

	inner.Resolve("done")
	v, err := d.Join()
	assert.NoError(t, err)
	assert.Equal(t, "done", v)
}

func TestLazyTransformCancelPropagatesToProducedFuture(t *testing.T) {
	u := NewResolvableFuture[int](nil)
	inner := NewResolvableFuture[string](nil)

	d := LazyTransform(u, func(int) Future[string] { return inner })
	u.Resolve(1)

	d.Cancel()
	assert.True(t, inner.IsCancelled())
}

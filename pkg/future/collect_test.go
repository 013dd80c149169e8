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

func TestCollectEmpty(t *testing.T) {
	d := Collect[int](nil, nil)
	v, err := d.Join()
	assert.NoError(t, err)
	assert.Empty(t, v)
}

func TestCollectOrderPreserved(t *testing.T) {
	futures := []Future[int]{
		NewResolved[int](nil, 1),
		NewResolved[int](nil, 2),
		NewResolved[int](nil, 3),
	}
	d := Collect(nil, futures)
	v, err := d.Join()
	assert.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, v)
}

func TestCollectFirstFailureWins(t *testing.T) {
	// A mix of resolved and failed inputs collects to the failure.
	cause := errors.New("E")
	futures := []Future[int]{
		NewResolved[int](nil, 1),
		NewFailed[int](nil, cause),
		NewResolved[int](nil, 3),
	}
	d := Collect(nil, futures)
	_, err := d.Join()
	assert.ErrorIs(t, err, cause)
}

func TestCollectOutcomePriority(t *testing.T) {
	// Property 7: failed > cancelled > resolved.
	futures := []Future[int]{
		NewResolved[int](nil, 1),
		NewCancelled[int](nil),
	}
	d := Collect(nil, futures)
	_, err := d.Join()
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestCollectWithCollectorRunsOnlyOnAllResolved(t *testing.T) {
	futures := []Future[int]{
		NewResolved[int](nil, 1),
		NewResolved[int](nil, 2),
	}
	d := CollectWith(nil, futures, func(results []int) (int, error) {
		sum := 0
		for _, r := range results {
			sum += r
		}
		return sum, nil
	})
	v, err := d.Join()
	assert.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestCollectCancelsAllUpstreams(t *testing.T) {
	a := NewResolvableFuture[int](nil)
	b := NewResolvableFuture[int](nil)
	d := Collect[int](nil, []Future[int]{a, b})

	d.Cancel()

	assert.True(t, a.IsCancelled())
	assert.True(t, b.IsCancelled())
}

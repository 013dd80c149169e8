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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type tallyCollector struct {
	mu                           sync.Mutex
	resolvedVals                 []int
	failed, cancelled            int
}

func (c *tallyCollector) Resolved(v int) {
	c.mu.Lock()
	c.resolvedVals = append(c.resolvedVals, v)
	c.mu.Unlock()
}
func (c *tallyCollector) Failed(error) { c.mu.Lock(); c.failed++; c.mu.Unlock() }
func (c *tallyCollector) Cancelled()   { c.mu.Lock(); c.cancelled++; c.mu.Unlock() }
func (c *tallyCollector) End(resolved, failed, cancelled int) ([3]int, error) {
	return [3]int{resolved, failed, cancelled}, nil
}

// cancelAfterFirstCollector cancels d as soon as it sees the first resolved
// value, modeling a caller who only ever wanted one success. Since
// EventuallyCollect reports an outcome to the collector before launching
// the next factory, cancelling from inside Resolved pre-empts that launch.
type cancelAfterFirstCollector struct {
	tallyCollector
	d Cancellable
}

func TestEventuallyCollectCancellationAbort(t *testing.T) {
	// Four factories, parallelism 1; cancelling the destination as soon as
	// the first resolves must stop the other three from ever being
	// invoked, counting each as cancelled in the final tally and reporting
	// three Cancelled notifications to the collector.
	invoked := make([]bool, 4)
	first := NewResolvableFuture[int](nil)

	var mu sync.Mutex

	factories := make([]Factory[int], 4)
	for i := range factories {
		i := i
		factories[i] = func() Future[int] {
			mu.Lock()
			invoked[i] = true
			mu.Unlock()
			if i == 0 {
				return first
			}
			return NewResolvableFuture[int](nil)
		}
	}

	c := &cancelAfterFirstCollector{}
	d := EventuallyCollect[int, [3]int](nil, factories, c, 1)
	c.d = d

	first.Resolve(42)

	totals, err := d.Join()
	assert.NoError(t, err)
	assert.Equal(t, [3]int{1, 0, 3}, totals)
	assert.Equal(t, 3, c.cancelled, "three Cancelled notifications reach the collector")

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, invoked[0])
	assert.False(t, invoked[1])
	assert.False(t, invoked[2])
	assert.False(t, invoked[3])
}

func (c *cancelAfterFirstCollector) Resolved(v int) {
	c.tallyCollector.Resolved(v)
	c.d.Cancel()
}

func TestEventuallyCollectBoundedParallelism(t *testing.T) {
	// With a DirectCaller every notification is delivered synchronously on
	// the resolving goroutine, so this test drives the whole run from a
	// single goroutine and can assert invocation state directly instead of
	// racing against background work.
	const parallelism = 2
	const n = 6

	invokedCount := 0
	gates := make([]*ResolvableFuture[int], n)

	factories := make([]Factory[int], n)
	for i := range factories {
		i := i
		gates[i] = NewResolvableFuture[int](nil)
		factories[i] = func() Future[int] {
			invokedCount++
			return gates[i]
		}
	}

	c := &tallyCollector{}
	d := EventuallyCollect[int, [3]int](nil, factories, c, parallelism)

	assert.Equal(t, parallelism, invokedCount, "only the first P factories launch up front")

	for i := 0; i < n; i++ {
		before := invokedCount
		gates[i].Resolve(i)
		if i < n-parallelism {
			assert.Equal(t, before+1, invokedCount, "completing a slot launches exactly one more factory")
		}
	}

	totals, err := d.Join()
	assert.NoError(t, err)
	assert.Equal(t, [3]int{n, 0, 0}, totals)
}

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
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/atomstate/future/pkg/clock"
)

func TestRetryUntilResolvedSucceedsOnThirdAttempt(t *testing.T) {
	// A factory that fails twice before resolving succeeds once the policy
	// permits two retries, carrying both intermediate causes forward.
	fc := clock.NewFakeClock(time.Unix(0, 0))
	attempts := 0
	causeA := errors.New("first failure")
	causeB := errors.New("second failure")

	factory := func() Future[string] {
		attempts++
		switch attempts {
		case 1:
			return NewFailed[string](nil, causeA)
		case 2:
			return NewFailed[string](nil, causeB)
		default:
			return NewResolved[string](nil, "V")
		}
	}

	policy := RetryPolicyFunc(func(elapsed time.Duration, attempt int) Decision {
		if attempt >= 3 {
			return AbortRetry()
		}
		return RetryAfter(10 * time.Millisecond)
	})

	d := RetryUntilResolved[string](nil, factory, policy, fc)

	fc.Advance(10 * time.Millisecond)
	fc.Advance(10 * time.Millisecond)

	result, err := d.Join()
	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, "V", result.Value)
	assert.Equal(t, []error{causeA, causeB}, result.Errors)
}

func TestRetryUntilResolvedExhaustion(t *testing.T) {
	fc := clock.NewFakeClock(time.Unix(0, 0))
	cause := errors.New("always fails")

	factory := func() Future[int] { return NewFailed[int](nil, cause) }
	policy := RetryPolicyFunc(func(elapsed time.Duration, attempt int) Decision {
		if attempt >= 2 {
			return AbortRetry()
		}
		return RetryAfter(time.Millisecond)
	})

	d := RetryUntilResolved[int](nil, factory, policy, fc)
	fc.Advance(time.Millisecond)

	_, err := d.Join()
	assert.Error(t, err)

	var retryErr *RetryException
	assert.True(t, errors.As(err, &retryErr))
	assert.Len(t, retryErr.Errors, 2)
	assert.ErrorIs(t, retryErr.Unwrap()[0], cause)
}

func TestRetryUntilResolvedCancelPropagates(t *testing.T) {
	fc := clock.NewFakeClock(time.Unix(0, 0))
	inner := NewResolvableFuture[int](nil)

	factory := func() Future[int] { return inner }
	policy := RetryPolicyFunc(func(time.Duration, int) Decision { return AbortRetry() })

	d := RetryUntilResolved[int](nil, factory, policy, fc)
	d.Cancel()

	assert.True(t, inner.IsCancelled())
	_, err := d.Join()
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestRetryAttemptCountMatchesPolicyContract(t *testing.T) {
	// Property 9: number of factory invocations = 1 + number of Retry
	// decisions the policy returned.
	fc := clock.NewFakeClock(time.Unix(0, 0))
	attempts := 0
	retryDecisions := 0

	factory := func() Future[int] {
		attempts++
		if attempts <= 3 {
			return NewFailed[int](nil, errors.New("retryable"))
		}
		return NewResolved[int](nil, attempts)
	}

	policy := RetryPolicyFunc(func(elapsed time.Duration, attempt int) Decision {
		if attempt >= 4 {
			return AbortRetry()
		}
		retryDecisions++
		return RetryAfter(time.Millisecond)
	})

	d := RetryUntilResolved[int](nil, factory, policy, fc)
	for i := 0; i < 3; i++ {
		fc.Advance(time.Millisecond)
	}

	_, err := d.Join()
	assert.NoError(t, err)
	assert.Equal(t, 1+retryDecisions, attempts)
}

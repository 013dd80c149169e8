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

package config

import (
	"math"
	"math/rand"
	"time"

	"github.com/atomstate/future/pkg/future"
)

// ExponentialBackoffPolicy is the reference future.RetryPolicy: wait time
// grows exponentially between attempts, capped at MaxIntervalMS and
// optionally jittered, and aborts once MaxAttempts has been reached. The
// backoff formula itself is the same one this codebase's exponential
// backoff helper already computes.
type ExponentialBackoffPolicy struct {
	cfg    RetryConfig
	expMax float64
	rng    *rand.Rand
}

// NewExponentialBackoffPolicy validates cfg and builds the corresponding
// policy. A malformed cfg is reported as a plain error, never a panic.
func NewExponentialBackoffPolicy(cfg RetryConfig) (*ExponentialBackoffPolicy, error) {
	full := Config{Retry: cfg, Executor: ExecutorConfig{Workers: 1}}
	if err := full.Validate(); err != nil {
		return nil, err
	}

	expMax := 0.0
	if cfg.MaxIntervalMS > cfg.InitialIntervalMS {
		expMax = math.Log(float64(cfg.MaxIntervalMS)/float64(cfg.InitialIntervalMS)) / math.Log(float64(cfg.Multiplier))
	}

	return &ExponentialBackoffPolicy{
		cfg:    cfg,
		expMax: expMax,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Decide implements future.RetryPolicy. attempt is the 1-based count of
// attempts made so far (including the one that just failed).
func (p *ExponentialBackoffPolicy) Decide(elapsed time.Duration, attempt int) future.Decision {
	if attempt >= p.cfg.MaxAttempts {
		return future.AbortRetry()
	}
	return future.RetryAfter(p.backoff(attempt))
}

func (p *ExponentialBackoffPolicy) backoff(attempt int) time.Duration {
	if p.expMax == 0 {
		return time.Duration(p.cfg.InitialIntervalMS) * time.Millisecond
	}

	exp := math.Min(float64(attempt), p.expMax)
	term := float64(p.cfg.InitialIntervalMS) * math.Pow(float64(p.cfg.Multiplier), exp)

	randomFactor := 1.0
	if p.cfg.Jitter > 0 {
		randomFactor = 1.0 + (2.0*p.rng.Float64()-1.0)*p.cfg.Jitter
	}
	if randomFactor < 1.0 {
		randomFactor = 1.0
	}

	ms := int64(randomFactor * term)
	if ms > p.cfg.MaxIntervalMS {
		ms = p.cfg.MaxIntervalMS
	}
	return time.Duration(ms) * time.Millisecond
}

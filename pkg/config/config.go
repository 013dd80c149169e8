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

// Package config loads the YAML-expressed ambient parameters this library's
// facade constructors consume: retry backoff tuning and the reference
// executor's worker count. The core algorithms in package future never read
// a Config themselves - they always take explicit Go values - so this
// package has no import of future beyond the RetryPolicy it builds.
package config

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// RetryConfig parameterizes NewExponentialBackoffPolicy: the same four
// backoff knobs this codebase's existing backoff constructor exposes
// (initial interval, multiplier, max interval, jitter), plus MaxAttempts.
type RetryConfig struct {
	InitialIntervalMS int64   `yaml:"initialIntervalMs"`
	Multiplier        int64   `yaml:"multiplier"`
	MaxIntervalMS     int64   `yaml:"maxIntervalMs"`
	Jitter            float64 `yaml:"jitter"`
	MaxAttempts       int     `yaml:"maxAttempts"`
}

// ExecutorConfig parameterizes the reference FixedPool executor.
type ExecutorConfig struct {
	Workers       int `yaml:"workers"`
	QueueCapacity int `yaml:"queueCapacity"`
}

// Config is the top-level YAML document this library's facade loads.
type Config struct {
	Retry    RetryConfig    `yaml:"retry"`
	Executor ExecutorConfig `yaml:"executor"`
}

// Load parses raw as a Config document. Malformed YAML is surfaced as a
// plain error, never a panic, consistent with this codebase's constructor
// style elsewhere.
func Load(raw []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	return &c, nil
}

// Validate reports whether c's fields are within the ranges the
// constructors built from it require.
func (c *Config) Validate() error {
	if c.Retry.InitialIntervalMS <= 0 {
		return errors.New("config: retry.initialIntervalMs must be greater than 0")
	}
	if c.Retry.Multiplier <= 1 {
		return errors.New("config: retry.multiplier must be greater than 1")
	}
	if c.Retry.MaxIntervalMS < c.Retry.InitialIntervalMS {
		return errors.New("config: retry.maxIntervalMs must be greater than or equal to retry.initialIntervalMs")
	}
	if c.Retry.Jitter < 0 {
		return errors.New("config: retry.jitter must be non-negative")
	}
	if c.Retry.MaxAttempts < 1 {
		return errors.New("config: retry.maxAttempts must be at least 1")
	}
	if c.Executor.Workers < 1 {
		return errors.New("config: executor.workers must be at least 1")
	}
	if c.Executor.QueueCapacity < 0 {
		return errors.New("config: executor.queueCapacity must be non-negative")
	}
	return nil
}

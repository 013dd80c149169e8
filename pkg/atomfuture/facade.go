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

// Package atomfuture is the convenience entry point that wires package
// future's core against the concrete ambient implementations this codebase
// ships: the reference FixedPool executor, the zap-backed LoggingErrorSink,
// and SystemClock. package future cannot import these itself - they import
// future to satisfy its interfaces, and Go forbids the cycle - so this
// facade is where "batteries included" construction lives.
package atomfuture

import (
	"go.uber.org/zap"

	"github.com/atomstate/future/pkg/clock"
	"github.com/atomstate/future/pkg/config"
	"github.com/atomstate/future/pkg/errsink"
	"github.com/atomstate/future/pkg/executor"
	"github.com/atomstate/future/pkg/future"
)

// Default builds a future.Framework wired with DirectCaller dispatch, a
// small FixedPool executor, a zap-backed LoggingErrorSink logging at the
// package default level, and the real SystemClock. It is a convenience
// constructor, not a package-level singleton: every call returns a fresh,
// independently owned Framework.
func Default() *future.Framework {
	logger, _ := zap.NewProduction()
	sink := errsink.New(logger)
	exec := executor.NewFixedPool(4, 256, func(r any) {
		sink.Uncaught("executor.task", future.NewComputationFailure("task panicked", future.ErrorFromRecover(r)))
	})
	caller := future.DirectCaller{Sink: sink}
	return future.New(caller, exec, sink, clock.SystemClock{})
}

// New builds a future.Framework from an explicit Config, using a threaded
// Caller backed by a FixedPool sized per cfg.Executor, a zap-backed
// LoggingErrorSink, and SystemClock.
func New(cfg *config.Config, logger *zap.Logger) *future.Framework {
	sink := errsink.New(logger)
	exec := executor.NewFixedPool(cfg.Executor.Workers, cfg.Executor.QueueCapacity, func(r any) {
		sink.Uncaught("executor.task", future.NewComputationFailure("task panicked", future.ErrorFromRecover(r)))
	})
	caller := future.ThreadedCaller{Executor: exec, Sink: sink}
	return future.New(caller, exec, sink, clock.SystemClock{})
}

// RetryPolicyFromConfig builds the reference exponential-backoff retry
// policy from cfg's retry section.
func RetryPolicyFromConfig(cfg *config.Config) (future.RetryPolicy, error) {
	return config.NewExponentialBackoffPolicy(cfg.Retry)
}

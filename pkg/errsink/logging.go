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

// Package errsink ships the default future.ErrorSink: a structured-logging
// sink backed by go.uber.org/zap, the same logging library used elsewhere
// in this codebase.
package errsink

import "go.uber.org/zap"

// LoggingErrorSink reports uncaught observer exceptions as structured
// warning-level log entries. It is the only error sink this library wires
// in by default.
type LoggingErrorSink struct {
	logger *zap.Logger
}

// New wraps logger as a future.ErrorSink. A nil logger falls back to
// zap.NewNop(), so a zero-value caller never panics.
func New(logger *zap.Logger) *LoggingErrorSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingErrorSink{logger: logger}
}

// Uncaught implements future.ErrorSink.
func (s *LoggingErrorSink) Uncaught(context string, err error) {
	s.logger.Warn("uncaught exception from future observer",
		zap.String("context", context),
		zap.Error(err),
	)
}

// Package telemetry provides the diagnostics sink and the per-run CSV
// recorder.
package telemetry

import (
	"log/slog"
	"sync"
)

// Diag receives diagnostics from hot paths that can repeat every tick
// (missing shader uniforms, skipped sets, recompile failures). It is
// passed explicitly to the components that emit, never accessed through a
// package global.
type Diag interface {
	// Warnf logs a warning, rate-limited by format string identity.
	Warnf(format string, args ...any)
	// Infof logs at info level, rate-limited the same way.
	Infof(format string, args ...any)
}

// Sink is the standard Diag: each distinct format string is emitted at
// most limit times, then suppressed with a final notice.
type Sink struct {
	logger *slog.Logger
	limit  int

	mu   sync.Mutex
	seen map[string]int
}

// NewSink creates a sink over the given logger. limit <= 0 disables
// rate limiting.
func NewSink(logger *slog.Logger, limit int) *Sink {
	return &Sink{logger: logger, limit: limit, seen: map[string]int{}}
}

func (s *Sink) Warnf(format string, args ...any) {
	if !s.admit(format) {
		return
	}
	s.logger.Warn(sprintf(format, args...))
}

func (s *Sink) Infof(format string, args ...any) {
	if !s.admit(format) {
		return
	}
	s.logger.Info(sprintf(format, args...))
}

// admit counts an emission for the message identity and reports whether
// it should still be logged.
func (s *Sink) admit(key string) bool {
	if s.limit <= 0 {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.seen[key]
	s.seen[key] = n + 1
	if n == s.limit {
		s.logger.Warn("suppressing further occurrences", "message", key, "emitted", s.limit)
	}
	return n < s.limit
}

// Reset clears the suppression counters, e.g. after a shader reload gives
// old warnings fresh relevance.
func (s *Sink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = map[string]int{}
}

// Discard is a Diag that drops everything; used in tests and benchmarks.
type Discard struct{}

func (Discard) Warnf(string, ...any) {}
func (Discard) Infof(string, ...any) {}

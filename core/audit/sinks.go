package audit

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"fleet-admin/internal/logging"
)

// MemorySink keeps entries in memory, for tests and local runs
type MemorySink struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemorySink creates an empty in-memory sink
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Append stores the entry
func (s *MemorySink) Append(ctx context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

// Entries returns a copy of everything appended so far
func (s *MemorySink) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// LogSink writes entries to the structured log. Suitable for development;
// production deployments should layer it over a durable sink.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a log-backed sink
func NewLogSink() *LogSink {
	return &LogSink{logger: logging.Named("audit")}
}

// Append logs the entry
func (s *LogSink) Append(ctx context.Context, entry Entry) error {
	s.logger.Info("tier transition attempt",
		zap.String("audit_id", entry.ID),
		zap.String("operator_id", entry.OperatorID),
		zap.String("actor_id", entry.ActorID),
		zap.String("previous_tier", entry.PreviousTier.String()),
		zap.String("new_tier", entry.NewTier.String()),
		zap.String("outcome", string(entry.Outcome)),
		zap.String("reason_code", entry.ReasonCode),
	)
	return nil
}

// MultiSink fans an entry out to several sinks; the first error wins but
// later sinks still receive the entry.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink combines sinks
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Append appends to every sink
func (s *MultiSink) Append(ctx context.Context, entry Entry) error {
	var first error
	for _, sink := range s.sinks {
		if err := sink.Append(ctx, entry); err != nil && first == nil {
			first = err
		}
	}
	return first
}

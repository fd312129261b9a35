package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// LogSink writes events to the service log.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink builds a sink over the given logger.
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Notify(_ context.Context, ev Event) {
	entry := s.logger.Info().
		Str("event", string(ev.Type)).
		Str("job_id", ev.JobID)
	if ev.Stage != "" {
		entry = entry.Str("stage", string(ev.Stage))
	}
	if ev.ItemID != "" {
		entry = entry.Str("item_id", ev.ItemID).Str("item_state", string(ev.ItemState))
	}
	if ev.Status != "" {
		entry = entry.Str("status", string(ev.Status))
	}
	if ev.Error != nil {
		entry = entry.Str("error_kind", string(ev.Error.Kind)).Str("error", ev.Error.Message)
	}
	entry.Msg("pipeline: progress")
}

var _ Sink = (*LogSink)(nil)

package events

import (
	"context"
	"log/slog"

	"okinoko_ledger/contract/dao"
)

// LogSink writes each event as its pipe-delimited line, so watchers can
// rebuild state from logs alone.
type LogSink struct {
	logger *slog.Logger
	level  slog.Level
}

func NewLogSink(logger *slog.Logger, level slog.Level) *LogSink {
	return &LogSink{logger: logger, level: level}
}

func (s *LogSink) Deliver(evt dao.Event) error {
	s.logger.Log(context.Background(), s.level, evt.Line(),
		"type", string(evt.Type),
		"instance", evt.Instance.String(),
		"height", evt.Height,
	)
	return nil
}

func (s *LogSink) Close() {}

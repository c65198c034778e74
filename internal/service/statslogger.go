package service

import (
	"log/slog"

	"github.com/efreitasn/fixtrader/internal/engine"
)

// StatsLogger is the default report sink: it writes each statistics
// snapshot as a structured log entry, one line per instrument with
// fills.
type StatsLogger struct {
	logger *slog.Logger
}

// NewStatsLogger creates a StatsLogger.
func NewStatsLogger(logger *slog.Logger) *StatsLogger {
	return &StatsLogger{logger: logger}
}

// Publish logs the snapshot.
func (s *StatsLogger) Publish(report engine.Report) {
	s.logger.Info("trading statistics",
		slog.Int64("total_volume", report.TotalVolume),
		slog.String("total_volume_usd", report.TotalNotional.String()),
		slog.String("pnl", report.PnL.String()),
	)
	for symbol, inst := range report.Instruments {
		if inst.VWAP == nil {
			continue
		}
		s.logger.Info("instrument statistics",
			slog.String("symbol", symbol),
			slog.String("vwap", inst.VWAP.String()),
			slog.String("pnl", inst.PnL.String()),
		)
	}
}

package engine

import (
	"iter"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/fixtrader/internal/domain"
)

// InstrumentStats holds per-symbol aggregates derived from the trade
// history.
type InstrumentStats struct {
	Volume   int64
	Notional decimal.Decimal
	Cost     decimal.Decimal
	PnL      decimal.Decimal
	VWAP     *decimal.Decimal // nil when the instrument has no volume
}

// Report is a full statistics snapshot. It is a plain value computed
// from the trade history; how it gets presented (log line, HTTP
// response) is the caller's concern.
type Report struct {
	TotalVolume   int64
	TotalNotional decimal.Decimal
	PnL           decimal.Decimal
	Instruments   map[string]InstrumentStats
}

// StatisticsEngine recomputes trading aggregates from the full trade
// history on every call. Compute is a pure function of the sequence
// it is given: no state is carried between invocations.
type StatisticsEngine struct{}

// NewStatisticsEngine creates a StatisticsEngine.
func NewStatisticsEngine() *StatisticsEngine {
	return &StatisticsEngine{}
}

// Compute walks the trade sequence once, in order, and returns the
// aggregate report.
//
// The cost-basis rule reproduces the system this client reconciles
// against: each buy adds its notional to the instrument's cost, and
// each sell realizes notional minus cost without reducing cost afterward.
// Repeated sells after a single buy therefore each charge the full
// accumulated cost again. A sell with no prior buy realizes its full
// notional. Sides other than buy and sell contribute to volume and
// notional but neither cost nor PnL. None of the inputs are
// validated; negative quantities and prices flow through the
// arithmetic unchanged.
func (e *StatisticsEngine) Compute(trades iter.Seq[domain.Trade]) Report {
	report := Report{
		Instruments: make(map[string]InstrumentStats),
	}

	for t := range trades {
		notional := t.Notional()

		report.TotalVolume += t.Quantity
		report.TotalNotional = report.TotalNotional.Add(notional)

		inst := report.Instruments[t.Symbol]
		inst.Volume += t.Quantity
		inst.Notional = inst.Notional.Add(notional)

		switch t.Side {
		case domain.SideBuy:
			inst.Cost = inst.Cost.Add(notional)
		case domain.SideSell:
			delta := notional.Sub(inst.Cost)
			inst.PnL = inst.PnL.Add(delta)
			report.PnL = report.PnL.Add(delta)
		}

		report.Instruments[t.Symbol] = inst
	}

	// VWAP only for instruments that actually traded volume.
	for symbol, inst := range report.Instruments {
		if inst.Volume > 0 {
			vwap := inst.Notional.Div(decimal.NewFromInt(inst.Volume))
			inst.VWAP = &vwap
			report.Instruments[symbol] = inst
		}
	}

	return report
}

package engine

import (
	"iter"
	"slices"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/fixtrader/internal/domain"
)

func tradesSeq(trades ...domain.Trade) iter.Seq[domain.Trade] {
	return slices.Values(trades)
}

func trade(symbol string, side domain.Side, qty int64, price float64) domain.Trade {
	return domain.Trade{
		Symbol:   symbol,
		Side:     side,
		Quantity: qty,
		Price:    decimal.NewFromFloat(price),
	}
}

func TestStatisticsEngine_BuyThenSell(t *testing.T) {
	e := NewStatisticsEngine()

	report := e.Compute(tradesSeq(
		trade("MSFT", domain.SideBuy, 10, 10),
		trade("MSFT", domain.SideSell, 10, 15),
	))

	if report.TotalVolume != 20 {
		t.Errorf("TotalVolume = %d, want 20", report.TotalVolume)
	}
	if !report.TotalNotional.Equal(decimal.NewFromInt(250)) {
		t.Errorf("TotalNotional = %s, want 250", report.TotalNotional)
	}
	if !report.PnL.Equal(decimal.NewFromInt(50)) {
		t.Errorf("PnL = %s, want 50", report.PnL)
	}

	msft := report.Instruments["MSFT"]
	if msft.VWAP == nil {
		t.Fatal("VWAP missing for MSFT")
	}
	if !msft.VWAP.Equal(decimal.NewFromFloat(12.5)) {
		t.Errorf("VWAP = %s, want 12.5", msft.VWAP)
	}
	if !msft.PnL.Equal(decimal.NewFromInt(50)) {
		t.Errorf("MSFT PnL = %s, want 50", msft.PnL)
	}
}

func TestStatisticsEngine_SellWithoutBasis(t *testing.T) {
	e := NewStatisticsEngine()

	// A sell with no prior buy realizes its full notional: there is
	// no check that a short sale lacks basis.
	report := e.Compute(tradesSeq(
		trade("AAPL", domain.SideSell, 5, 20),
	))

	aapl := report.Instruments["AAPL"]
	if !aapl.Cost.Equal(decimal.Zero) {
		t.Errorf("Cost = %s, want 0", aapl.Cost)
	}
	if !report.PnL.Equal(decimal.NewFromInt(100)) {
		t.Errorf("PnL = %s, want 100", report.PnL)
	}
}

func TestStatisticsEngine_CostNotDecrementedAfterSell(t *testing.T) {
	e := NewStatisticsEngine()

	// The cost basis stays at its accumulated value after a sell
	// realizes PnL, so a second sell charges the same cost again.
	report := e.Compute(tradesSeq(
		trade("BAC", domain.SideBuy, 10, 10),  // cost 100
		trade("BAC", domain.SideSell, 10, 15), // pnl 150-100 = 50
		trade("BAC", domain.SideSell, 10, 15), // pnl 150-100 = 50 again
	))

	bac := report.Instruments["BAC"]
	if !bac.Cost.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Cost = %s, want 100", bac.Cost)
	}
	if !report.PnL.Equal(decimal.NewFromInt(100)) {
		t.Errorf("PnL = %s, want 100", report.PnL)
	}
}

func TestStatisticsEngine_UnrecognizedSide(t *testing.T) {
	e := NewStatisticsEngine()

	// A side that is neither buy nor sell still counts toward volume
	// and notional but never touches cost or PnL.
	report := e.Compute(tradesSeq(
		trade("MSFT", domain.Side("5"), 10, 10),
	))

	if report.TotalVolume != 10 {
		t.Errorf("TotalVolume = %d, want 10", report.TotalVolume)
	}
	if !report.TotalNotional.Equal(decimal.NewFromInt(100)) {
		t.Errorf("TotalNotional = %s, want 100", report.TotalNotional)
	}
	if !report.PnL.Equal(decimal.Zero) {
		t.Errorf("PnL = %s, want 0", report.PnL)
	}
	msft := report.Instruments["MSFT"]
	if !msft.Cost.Equal(decimal.Zero) || !msft.PnL.Equal(decimal.Zero) {
		t.Errorf("cost/pnl = %s/%s, want 0/0", msft.Cost, msft.PnL)
	}
}

func TestStatisticsEngine_NegativeValuesFlowThrough(t *testing.T) {
	e := NewStatisticsEngine()

	report := e.Compute(tradesSeq(
		trade("MSFT", domain.SideBuy, -10, 10),
	))

	if report.TotalVolume != -10 {
		t.Errorf("TotalVolume = %d, want -10", report.TotalVolume)
	}
	if !report.TotalNotional.Equal(decimal.NewFromInt(-100)) {
		t.Errorf("TotalNotional = %s, want -100", report.TotalNotional)
	}
	// Zero accumulated volume means VWAP would divide by a negative
	// total; the report still only exposes VWAP for positive volume.
	if report.Instruments["MSFT"].VWAP != nil {
		t.Error("VWAP present for non-positive volume")
	}
}

func TestStatisticsEngine_VWAPOmittedAtZeroVolume(t *testing.T) {
	e := NewStatisticsEngine()

	report := e.Compute(tradesSeq(
		trade("MSFT", domain.SideBuy, 10, 10),
		trade("MSFT", domain.SideSell, -10, 10),
	))

	if inst := report.Instruments["MSFT"]; inst.VWAP != nil {
		t.Errorf("VWAP = %s, want omitted at zero volume", inst.VWAP)
	}
}

func TestStatisticsEngine_EmptyHistory(t *testing.T) {
	e := NewStatisticsEngine()

	report := e.Compute(tradesSeq())

	if report.TotalVolume != 0 {
		t.Errorf("TotalVolume = %d, want 0", report.TotalVolume)
	}
	if len(report.Instruments) != 0 {
		t.Errorf("Instruments = %v, want empty", report.Instruments)
	}
}

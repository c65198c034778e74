package engine

import (
	"github.com/google/uuid"

	"github.com/efreitasn/fixtrader/internal/domain"
	"github.com/efreitasn/fixtrader/internal/protocol"
	"github.com/efreitasn/fixtrader/internal/store"
)

// ReportSink receives a statistics snapshot after every processed
// fill. It is the presentation boundary: the handler computes, the
// sink decides what to do with the result.
type ReportSink interface {
	Publish(report Report)
}

// ExecutionReportHandler reconciles inbound execution reports into the
// order book and trade ledger and triggers a statistics recomputation
// after each fill.
type ExecutionReportHandler struct {
	book   *store.OrderBook
	ledger *store.TradeLedger
	stats  *StatisticsEngine
	sink   ReportSink
}

// NewExecutionReportHandler creates a handler wired to the given
// stores, statistics engine, and sink.
func NewExecutionReportHandler(
	book *store.OrderBook,
	ledger *store.TradeLedger,
	stats *StatisticsEngine,
	sink ReportSink,
) *ExecutionReportHandler {
	return &ExecutionReportHandler{
		book:   book,
		ledger: ledger,
		stats:  stats,
		sink:   sink,
	}
}

// Handle processes one execution report. Execution types other than
// fill and partial fill are ignored here: rejects and cancel rejects
// are routed elsewhere by the dispatcher, and cancel confirmations
// deliberately have no handler path.
//
// A missing required field returns a domain.MissingFieldError and
// leaves book and ledger untouched; the caller logs it and continues
// with the next message.
func (h *ExecutionReportHandler) Handle(msg protocol.Message) error {
	execType, err := msg.Require(protocol.TagExecType, "ExecType")
	if err != nil {
		return err
	}

	if execType != protocol.ExecTypeFill && execType != protocol.ExecTypePartialFill {
		return nil
	}

	clOrdID, err := msg.Require(protocol.TagClOrdID, "ClOrdID")
	if err != nil {
		return err
	}
	symbol, err := msg.Require(protocol.TagSymbol, "Symbol")
	if err != nil {
		return err
	}
	side, err := msg.SideField(protocol.TagSide, "Side")
	if err != nil {
		return err
	}
	lastShares, err := msg.RequireInt(protocol.TagLastShares, "LastShares")
	if err != nil {
		return err
	}
	lastPx, err := msg.RequireDecimal(protocol.TagLastPx, "LastPx")
	if err != nil {
		return err
	}

	h.ledger.Append(domain.Trade{
		TradeID:  uuid.NewString(),
		Symbol:   symbol,
		Side:     side,
		Quantity: lastShares,
		Price:    lastPx,
	})

	h.book.ApplyFill(clOrdID, symbol, side, lastShares, lastPx)

	h.sink.Publish(h.stats.Compute(h.ledger.All()))

	return nil
}

// Package sim provides an in-process counterparty for the trading
// client: a minimal exchange that rests limit orders in price-time
// priority, crosses incoming orders against them, and answers with
// execution-report and cancel-reject messages. It stands in for the
// real counterparty during local runs and in end-to-end tests.
package sim

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"github.com/google/btree"
	"github.com/shopspring/decimal"

	"github.com/efreitasn/fixtrader/internal/protocol"
)

// restingOrder is a limit order sitting on one side of a book.
type restingOrder struct {
	clOrdID  string
	symbol   string
	side     string // wire side value
	price    decimal.Decimal
	quantity int64
	seq      int64 // arrival order, for time priority
}

// bidLess orders the bid side price descending, then arrival
// ascending, so Min() is the best bid.
func bidLess(a, b restingOrder) bool {
	if cmp := a.price.Cmp(b.price); cmp != 0 {
		return cmp > 0
	}
	return a.seq < b.seq
}

// askLess orders the ask side price ascending, then arrival
// ascending, so Min() is the best ask.
func askLess(a, b restingOrder) bool {
	if cmp := a.price.Cmp(b.price); cmp != 0 {
		return cmp < 0
	}
	return a.seq < b.seq
}

// book holds both sides for a single symbol plus a removal index.
type book struct {
	bids  *btree.BTreeG[restingOrder]
	asks  *btree.BTreeG[restingOrder]
	index map[string]restingOrder // keyed by clOrdID, for removal
}

func newBook() *book {
	const degree = 32
	return &book{
		bids:  btree.NewG(degree, bidLess),
		asks:  btree.NewG(degree, askLess),
		index: make(map[string]restingOrder),
	}
}

func (b *book) insert(o restingOrder) {
	if o.side == protocol.SideValueBuy {
		b.bids.ReplaceOrInsert(o)
	} else {
		b.asks.ReplaceOrInsert(o)
	}
	b.index[o.clOrdID] = o
}

func (b *book) remove(clOrdID string) (restingOrder, bool) {
	o, ok := b.index[clOrdID]
	if !ok {
		return restingOrder{}, false
	}
	delete(b.index, clOrdID)
	// Delete is a no-op on the side the order isn't on.
	b.bids.Delete(o)
	b.asks.Delete(o)
	return o, true
}

// Exchange is the simulated counterparty. It implements
// protocol.Session: outbound messages from the client arrive through
// Send, and the exchange's responses are delivered asynchronously to
// the inbound handler on the pump goroutine started by Start.
type Exchange struct {
	mu     sync.Mutex
	books  map[string]*book
	seq    int64
	out    chan protocol.Message
	logger *slog.Logger
}

// NewExchange creates an exchange with empty books.
func NewExchange(logger *slog.Logger) *Exchange {
	return &Exchange{
		books:  make(map[string]*book),
		out:    make(chan protocol.Message, 1024),
		logger: logger,
	}
}

// Start launches the delivery goroutine, which feeds every queued
// response to handler until ctx is cancelled. Responses are delivered
// one at a time, in order.
func (e *Exchange) Start(ctx context.Context, handler func(protocol.Message)) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-e.out:
				handler(msg)
			}
		}
	}()
}

// Drain synchronously delivers all currently queued responses to
// handler. Intended for tests that want deterministic delivery
// instead of the Start goroutine.
func (e *Exchange) Drain(handler func(protocol.Message)) int {
	n := 0
	for {
		select {
		case msg := <-e.out:
			handler(msg)
			n++
		default:
			return n
		}
	}
}

// Send accepts one outbound client message. Unsupported message types
// are ignored with a log line, mirroring how a real counterparty
// would discard what it does not understand.
func (e *Exchange) Send(msg protocol.Message) error {
	switch msg.MsgType {
	case protocol.MsgTypeNewOrderSingle:
		e.handleNewOrder(msg)
	case protocol.MsgTypeOrderCancelRequest:
		e.handleCancel(msg)
	default:
		e.logger.Warn("sim exchange ignoring message",
			slog.String("msg_type", msg.MsgType),
		)
	}
	return nil
}

// handleNewOrder crosses the incoming order against the opposite side
// of its symbol's book. Each match produces an execution report for
// the aggressor and one for the resting order, both at the resting
// price. An unfilled limit remainder rests; an entirely unfilled
// market order is answered with a rejected execution report.
func (e *Exchange) handleNewOrder(msg protocol.Message) {
	clOrdID, ok1 := msg.Get(protocol.TagClOrdID)
	symbol, ok2 := msg.Get(protocol.TagSymbol)
	side, ok3 := msg.Get(protocol.TagSide)
	ordType, ok4 := msg.Get(protocol.TagOrdType)
	qtyStr, ok5 := msg.Get(protocol.TagOrderQty)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
		e.logger.Warn("sim exchange dropping malformed order")
		return
	}
	quantity, err := strconv.ParseInt(qtyStr, 10, 64)
	if err != nil || quantity <= 0 {
		e.logger.Warn("sim exchange dropping order with bad quantity",
			slog.String("order_qty", qtyStr),
		)
		return
	}

	isLimit := ordType == protocol.OrdTypeValueLimit
	var limitPrice decimal.Decimal
	if isLimit {
		priceStr, ok := msg.Get(protocol.TagPrice)
		if !ok {
			e.logger.Warn("sim exchange dropping limit order without price")
			return
		}
		limitPrice, err = decimal.NewFromString(priceStr)
		if err != nil {
			e.logger.Warn("sim exchange dropping order with bad price",
				slog.String("price", priceStr),
			)
			return
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	b := e.bookFor(symbol)
	remaining := quantity

	for remaining > 0 {
		resting, ok := e.bestOpposite(b, side)
		if !ok {
			break
		}
		if isLimit && !crosses(side, limitPrice, resting.price) {
			break
		}

		matched := remaining
		if resting.quantity < matched {
			matched = resting.quantity
		}
		remaining -= matched

		// Report the aggressor's fill at the resting price.
		e.emitExecReport(clOrdID, symbol, side, matched, resting.price, remaining == 0)

		// Update or clear the resting order and report its fill.
		b.remove(resting.clOrdID)
		restingDone := resting.quantity == matched
		if !restingDone {
			resting.quantity -= matched
			b.insert(resting)
		}
		e.emitExecReport(resting.clOrdID, symbol, resting.side, matched, resting.price, restingDone)
	}

	if remaining == 0 {
		return
	}

	if isLimit {
		e.seq++
		b.insert(restingOrder{
			clOrdID:  clOrdID,
			symbol:   symbol,
			side:     side,
			price:    limitPrice,
			quantity: remaining,
			seq:      e.seq,
		})
		return
	}

	// Market order with nothing (or nothing left) to cross against.
	if remaining == quantity {
		e.emitRejected(clOrdID, symbol, side)
	}
}

// handleCancel removes a resting order by its original identifier,
// confirming with a canceled execution report, or answers with an
// order-cancel reject when the identifier isn't resting.
func (e *Exchange) handleCancel(msg protocol.Message) {
	clOrdID, _ := msg.Get(protocol.TagClOrdID)
	origClOrdID, ok1 := msg.Get(protocol.TagOrigClOrdID)
	symbol, ok2 := msg.Get(protocol.TagSymbol)
	if !ok1 || !ok2 {
		e.logger.Warn("sim exchange dropping malformed cancel")
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	b := e.bookFor(symbol)
	resting, ok := b.remove(origClOrdID)
	if !ok {
		reject := protocol.NewMessage(protocol.MsgTypeOrderCancelReject)
		reject.Set(protocol.TagClOrdID, clOrdID)
		reject.Set(protocol.TagOrigClOrdID, origClOrdID)
		reject.Set(protocol.TagText, "unknown order")
		e.out <- reject
		return
	}

	confirm := protocol.NewMessage(protocol.MsgTypeExecutionReport)
	confirm.Set(protocol.TagExecType, protocol.ExecTypeCanceled)
	confirm.Set(protocol.TagClOrdID, resting.clOrdID)
	confirm.Set(protocol.TagOrigClOrdID, origClOrdID)
	confirm.Set(protocol.TagSymbol, symbol)
	confirm.Set(protocol.TagSide, resting.side)
	e.out <- confirm
}

func (e *Exchange) bookFor(symbol string) *book {
	b, ok := e.books[symbol]
	if !ok {
		b = newBook()
		e.books[symbol] = b
	}
	return b
}

// bestOpposite returns the top of the side an incoming order with the
// given side would trade against.
func (e *Exchange) bestOpposite(b *book, side string) (restingOrder, bool) {
	if side == protocol.SideValueBuy {
		return b.asks.Min()
	}
	return b.bids.Min()
}

// crosses reports whether a limit order at limitPrice trades against
// a resting order at restingPrice.
func crosses(side string, limitPrice, restingPrice decimal.Decimal) bool {
	if side == protocol.SideValueBuy {
		return limitPrice.GreaterThanOrEqual(restingPrice)
	}
	return limitPrice.LessThanOrEqual(restingPrice)
}

func (e *Exchange) emitExecReport(clOrdID, symbol, side string, quantity int64, price decimal.Decimal, complete bool) {
	execType := protocol.ExecTypePartialFill
	if complete {
		execType = protocol.ExecTypeFill
	}

	report := protocol.NewMessage(protocol.MsgTypeExecutionReport)
	report.Set(protocol.TagExecType, execType)
	report.Set(protocol.TagClOrdID, clOrdID)
	report.Set(protocol.TagSymbol, symbol)
	report.Set(protocol.TagSide, side)
	report.Set(protocol.TagLastShares, strconv.FormatInt(quantity, 10))
	report.Set(protocol.TagLastPx, price.String())
	e.out <- report
}

func (e *Exchange) emitRejected(clOrdID, symbol, side string) {
	report := protocol.NewMessage(protocol.MsgTypeExecutionReport)
	report.Set(protocol.TagExecType, protocol.ExecTypeRejected)
	report.Set(protocol.TagClOrdID, clOrdID)
	report.Set(protocol.TagSymbol, symbol)
	report.Set(protocol.TagSide, side)
	report.Set(protocol.TagText, "no liquidity")
	e.out <- report
}

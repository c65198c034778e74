package engine

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/fixtrader/internal/domain"
	"github.com/efreitasn/fixtrader/internal/protocol"
	"github.com/efreitasn/fixtrader/internal/store"
)

// Symbols is the fixed instrument set synthetic orders draw from.
var Symbols = []string{"MSFT", "AAPL", "BAC"}

// sides a synthetic order can take, shorts included.
var sides = []domain.Side{domain.SideBuy, domain.SideSell, domain.SideShort}

// Quantity and price bounds for synthetic orders.
const (
	MinQuantity = 1
	MaxQuantity = 100
	MinPrice    = 10.0
	MaxPrice    = 100.0
)

// GeneratorConfig bounds the generation loop.
type GeneratorConfig struct {
	MaxOrders   int
	TimeBudget  time.Duration
	MinInterval time.Duration
	MaxInterval time.Duration
}

// OrderFlowGenerator produces synthetic orders at randomized
// intervals, records them in the order book, and submits them through
// the protocol session. The random source and clock are injected so
// tests can drive the loop deterministically.
type OrderFlowGenerator struct {
	cfg       GeneratorConfig
	ids       *IDSequence
	book      *store.OrderBook
	submitter protocol.Submitter
	clock     Clock
	logger    *slog.Logger

	mu  sync.Mutex // guards rng: Generate is called from the loop and the control API
	rng *rand.Rand
}

// NewOrderFlowGenerator creates a generator.
func NewOrderFlowGenerator(
	cfg GeneratorConfig,
	ids *IDSequence,
	book *store.OrderBook,
	submitter protocol.Submitter,
	rng *rand.Rand,
	clock Clock,
	logger *slog.Logger,
) *OrderFlowGenerator {
	return &OrderFlowGenerator{
		cfg:       cfg,
		ids:       ids,
		book:      book,
		submitter: submitter,
		rng:       rng,
		clock:     clock,
		logger:    logger,
	}
}

// Generate builds one synthetic order, records it as NEW, and submits
// it. A short order carries the custom short-indicator extension so
// the wire message goes out as a sell plus the indicator tag. The
// order is returned for callers that want to report it.
//
// Submission failure is not fatal: the order stays recorded and the
// error (typically domain.ErrSessionUnavailable before logon) is
// returned for the caller to log.
func (g *OrderFlowGenerator) Generate() (*domain.Order, error) {
	g.mu.Lock()
	order := g.randomOrder()
	g.mu.Unlock()

	g.book.RecordNew(order)

	// Snapshot before submission. Once the message is out, a fill can
	// arrive on the inbound goroutine and mutate the book-owned struct
	// under the book's lock; callers must only ever see this copy.
	snapshot := *order

	msg := protocol.NewOrderSingle(&snapshot, g.clock.Now())
	if err := g.submitter.Submit(msg); err != nil {
		return &snapshot, err
	}

	g.logger.Info("order submitted",
		slog.String("cl_ord_id", snapshot.ClOrdID),
		slog.String("symbol", snapshot.Symbol),
		slog.String("side", string(snapshot.Side)),
		slog.String("type", string(snapshot.Type)),
		slog.Int64("quantity", snapshot.Quantity),
	)
	return &snapshot, nil
}

// randomOrder draws one order from the configured distributions:
// uniform symbol, side, and type; quantity uniform in
// [MinQuantity, MaxQuantity]; price uniform in [MinPrice, MaxPrice)
// and present iff the order is a limit order.
func (g *OrderFlowGenerator) randomOrder() *domain.Order {
	order := &domain.Order{
		ClOrdID:   g.ids.Next(),
		Symbol:    Symbols[g.rng.Intn(len(Symbols))],
		Side:      sides[g.rng.Intn(len(sides))],
		Quantity:  int64(g.rng.Intn(MaxQuantity-MinQuantity+1) + MinQuantity),
		Status:    domain.OrderStatusNew,
		CreatedAt: g.clock.Now(),
	}

	if g.rng.Intn(2) == 0 {
		order.Type = domain.OrderTypeLimit
		price := decimal.NewFromFloat(MinPrice + g.rng.Float64()*(MaxPrice-MinPrice))
		order.Price = &price
	} else {
		order.Type = domain.OrderTypeMarket
	}

	if order.Side == domain.SideShort {
		order.Extensions = map[int]string{
			domain.ShortIndicatorTag: domain.ShortIndicatorValue,
		}
	}

	return order
}

// Run drives Generate until the configured order count is reached,
// the time budget is exhausted, or ctx is cancelled, sleeping a
// uniformly random interval between orders.
func (g *OrderFlowGenerator) Run(ctx context.Context) {
	deadline := g.clock.Now().Add(g.cfg.TimeBudget)
	sent := 0

	for sent < g.cfg.MaxOrders && g.clock.Now().Before(deadline) {
		if _, err := g.Generate(); err != nil {
			if errors.Is(err, domain.ErrSessionUnavailable) {
				g.logger.Warn("order submission skipped: no session logged on")
			} else {
				g.logger.Error("order submission failed", slog.String("error", err.Error()))
			}
		}
		sent++

		select {
		case <-ctx.Done():
			return
		case <-g.clock.After(g.randomInterval()):
		}
	}

	g.logger.Info("order generation finished", slog.Int("orders_sent", sent))
}

// randomInterval draws a uniform duration in
// [MinInterval, MaxInterval].
func (g *OrderFlowGenerator) randomInterval() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()

	spread := g.cfg.MaxInterval - g.cfg.MinInterval
	if spread <= 0 {
		return g.cfg.MinInterval
	}
	return g.cfg.MinInterval + time.Duration(g.rng.Int63n(int64(spread)+1))
}

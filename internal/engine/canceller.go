package engine

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/efreitasn/fixtrader/internal/domain"
	"github.com/efreitasn/fixtrader/internal/protocol"
	"github.com/efreitasn/fixtrader/internal/store"
)

// CancellerConfig bounds the cancellation loop.
type CancellerConfig struct {
	TimeBudget  time.Duration
	MinInterval time.Duration
	MaxInterval time.Duration
}

// OrderCanceller picks outstanding orders at random and submits
// cancellation requests for them. Submitting a cancel does not change
// the order's local status; a confirmation would arrive as a later
// message, and no handler path updates state on it.
type OrderCanceller struct {
	cfg       CancellerConfig
	ids       *IDSequence
	book      *store.OrderBook
	submitter protocol.Submitter
	clock     Clock
	logger    *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewOrderCanceller creates a canceller.
func NewOrderCanceller(
	cfg CancellerConfig,
	ids *IDSequence,
	book *store.OrderBook,
	submitter protocol.Submitter,
	rng *rand.Rand,
	clock Clock,
	logger *slog.Logger,
) *OrderCanceller {
	return &OrderCanceller{
		cfg:       cfg,
		ids:       ids,
		book:      book,
		submitter: submitter,
		rng:       rng,
		clock:     clock,
		logger:    logger,
	}
}

// CancelOne selects one existing order identifier uniformly at random
// and submits a cancel request referencing it. With an empty book it
// returns domain.ErrNoOrdersOutstanding and submits nothing.
func (c *OrderCanceller) CancelOne() (string, error) {
	c.mu.Lock()
	origID, err := c.book.RandomID(c.rng)
	c.mu.Unlock()
	if err != nil {
		return "", err
	}

	order, err := c.book.Get(origID)
	if err != nil {
		return "", err
	}

	msg := protocol.NewOrderCancelRequest(c.ids.Next(), origID, order.Symbol, order.WireSide(), c.clock.Now())
	if err := c.submitter.Submit(msg); err != nil {
		return origID, err
	}

	c.logger.Info("cancel submitted",
		slog.String("orig_cl_ord_id", origID),
		slog.String("symbol", order.Symbol),
	)
	return origID, nil
}

// Run drives CancelOne until the time budget is exhausted or ctx is
// cancelled, sleeping a uniformly random interval between attempts.
// An empty book skips the attempt without sleeping any less.
func (c *OrderCanceller) Run(ctx context.Context) {
	deadline := c.clock.Now().Add(c.cfg.TimeBudget)
	cancelled := 0

	for c.clock.Now().Before(deadline) {
		_, err := c.CancelOne()
		switch {
		case err == nil:
			cancelled++
		case errors.Is(err, domain.ErrNoOrdersOutstanding):
			// Nothing to cancel yet.
		case errors.Is(err, domain.ErrSessionUnavailable):
			c.logger.Warn("cancel submission skipped: no session logged on")
		default:
			c.logger.Error("cancel submission failed", slog.String("error", err.Error()))
		}

		select {
		case <-ctx.Done():
			return
		case <-c.clock.After(c.randomInterval()):
		}
	}

	c.logger.Info("order cancellation finished", slog.Int("cancels_sent", cancelled))
}

func (c *OrderCanceller) randomInterval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	spread := c.cfg.MaxInterval - c.cfg.MinInterval
	if spread <= 0 {
		return c.cfg.MinInterval
	}
	return c.cfg.MinInterval + time.Duration(c.rng.Int63n(int64(spread)+1))
}

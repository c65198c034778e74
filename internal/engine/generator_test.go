package engine

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/fixtrader/internal/domain"
	"github.com/efreitasn/fixtrader/internal/protocol"
	"github.com/efreitasn/fixtrader/internal/store"
)

func newGenerator(cfg GeneratorConfig, seed int64) (*OrderFlowGenerator, *store.OrderBook, *fakeSubmitter, *fakeClock) {
	book := store.NewOrderBook()
	submitter := &fakeSubmitter{}
	clock := newFakeClock()
	g := NewOrderFlowGenerator(cfg, NewIDSequence(), book, submitter,
		rand.New(rand.NewSource(seed)), clock, discardLogger())
	return g, book, submitter, clock
}

func defaultGenCfg() GeneratorConfig {
	return GeneratorConfig{
		MaxOrders:   1000,
		TimeBudget:  300 * time.Second,
		MinInterval: 100 * time.Millisecond,
		MaxInterval: 500 * time.Millisecond,
	}
}

func TestGenerate_RecordsAndSubmits(t *testing.T) {
	g, book, submitter, _ := newGenerator(defaultGenCfg(), 1)

	order, err := g.Generate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if order.Status != domain.OrderStatusNew {
		t.Errorf("status = %q, want NEW", order.Status)
	}
	if _, err := book.Get(order.ClOrdID); err != nil {
		t.Errorf("generated order not recorded: %v", err)
	}
	msgs := submitter.sent()
	if len(msgs) != 1 {
		t.Fatalf("submitted %d messages, want 1", len(msgs))
	}
	if msgs[0].MsgType != protocol.MsgTypeNewOrderSingle {
		t.Errorf("msg type = %q, want NewOrderSingle", msgs[0].MsgType)
	}
	if id, _ := msgs[0].Get(protocol.TagClOrdID); id != order.ClOrdID {
		t.Errorf("wire ClOrdID = %q, want %q", id, order.ClOrdID)
	}
}

func TestGenerate_ReturnedOrderDetachedFromBook(t *testing.T) {
	g, book, _, _ := newGenerator(defaultGenCfg(), 1)

	order, err := g.Generate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A fill can land on the inbound goroutine while the caller still
	// holds the returned order. The return value must be a snapshot
	// the fill cannot touch.
	done := make(chan struct{})
	go func() {
		defer close(done)
		book.ApplyFill(order.ClOrdID, order.Symbol, order.Side, 1, decimal.NewFromInt(50))
	}()
	for i := 0; i < 1000; i++ {
		if order.Status != domain.OrderStatusNew {
			t.Fatal("returned order mutated by a concurrent fill")
		}
	}
	<-done

	if order.FilledQuantity != 0 {
		t.Errorf("returned order FilledQuantity = %d, want 0", order.FilledQuantity)
	}
	stored, err := book.Get(order.ClOrdID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Status != domain.OrderStatusFilled {
		t.Errorf("book status = %q, want FILLED", stored.Status)
	}
}

func TestGenerate_SessionUnavailableStillRecords(t *testing.T) {
	g, book, submitter, _ := newGenerator(defaultGenCfg(), 1)
	submitter.err = domain.ErrSessionUnavailable

	order, err := g.Generate()
	if err != domain.ErrSessionUnavailable {
		t.Fatalf("err = %v, want ErrSessionUnavailable", err)
	}
	if _, err := book.Get(order.ClOrdID); err != nil {
		t.Error("order must stay recorded even when submission fails")
	}
}

func TestGenerate_ShortGoesOutAsSellWithIndicator(t *testing.T) {
	g, _, submitter, _ := newGenerator(defaultGenCfg(), 0)

	// Draw until a short comes up; the side distribution makes this
	// quick with any seed.
	var short *domain.Order
	for i := 0; i < 200 && short == nil; i++ {
		o, err := g.Generate()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if o.Side == domain.SideShort {
			short = o
		}
	}
	if short == nil {
		t.Fatal("no short order generated in 200 draws")
	}

	msgs := submitter.sent()
	msg := msgs[len(msgs)-1]
	for _, m := range msgs {
		if id, _ := m.Get(protocol.TagClOrdID); id == short.ClOrdID {
			msg = m
		}
	}

	if side, _ := msg.Get(protocol.TagSide); side != protocol.SideValueSell {
		t.Errorf("wire side = %q, want sell", side)
	}
	if v, ok := msg.Get(domain.ShortIndicatorTag); !ok || v != domain.ShortIndicatorValue {
		t.Errorf("short indicator = %q (present=%v), want YES", v, ok)
	}
}

func TestRun_StopsAtMaxOrders(t *testing.T) {
	cfg := defaultGenCfg()
	cfg.MaxOrders = 7
	g, book, _, _ := newGenerator(cfg, 3)

	g.Run(context.Background())

	if book.Len() != 7 {
		t.Errorf("book len = %d, want 7", book.Len())
	}
}

func TestRun_StopsAtTimeBudget(t *testing.T) {
	cfg := defaultGenCfg()
	cfg.TimeBudget = 2 * time.Second
	g, book, _, clock := newGenerator(cfg, 3)

	start := clock.Now()
	g.Run(context.Background())

	if book.Len() == 0 {
		t.Fatal("no orders generated before budget expiry")
	}
	// With intervals in [100ms, 500ms] the loop can run at most 20
	// iterations inside a 2s budget.
	if book.Len() > 20 {
		t.Errorf("book len = %d, want <= 20", book.Len())
	}
	elapsed := clock.Now().Sub(start)
	if elapsed < 2*time.Second {
		t.Errorf("loop stopped after %v, before the budget ran out", elapsed)
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	g, book, _, _ := newGenerator(defaultGenCfg(), 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g.Run(ctx)

	// At least the order before the first sleep, and nowhere near
	// the configured maximum.
	if book.Len() < 1 || book.Len() >= defaultGenCfg().MaxOrders {
		t.Errorf("book len = %d, want a small number >= 1", book.Len())
	}
}

func TestRun_ContinuesPastSubmissionFailures(t *testing.T) {
	cfg := defaultGenCfg()
	cfg.MaxOrders = 5
	g, book, submitter, _ := newGenerator(cfg, 3)
	submitter.err = domain.ErrSessionUnavailable

	g.Run(context.Background())

	// Per-order failures never terminate the loop.
	if book.Len() != 5 {
		t.Errorf("book len = %d, want 5", book.Len())
	}
}

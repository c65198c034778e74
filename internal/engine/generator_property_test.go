package engine

import (
	"math/rand"
	"slices"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	"pgregory.net/rapid"

	"github.com/efreitasn/fixtrader/internal/domain"
	"github.com/efreitasn/fixtrader/internal/protocol"
)

// Property: every generated order respects the synthetic-order
// bounds: symbol and side from the fixed sets, quantity in [1,100],
// and a price in [10,100) present exactly when the order is a limit
// order.
func TestProperty_GeneratedOrderBounds(t *testing.T) {
	minPrice := decimal.NewFromFloat(MinPrice)
	maxPrice := decimal.NewFromFloat(MaxPrice)

	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Int64().Draw(t, "seed")
		g, _, submitter, _ := newGenerator(defaultGenCfg(), 0)
		g.rng = rand.New(rand.NewSource(seed))

		order, err := g.Generate()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !slices.Contains(Symbols, order.Symbol) {
			t.Fatalf("symbol %q outside instrument set", order.Symbol)
		}
		if order.Side != domain.SideBuy && order.Side != domain.SideSell && order.Side != domain.SideShort {
			t.Fatalf("unexpected side %q", order.Side)
		}
		if order.Quantity < MinQuantity || order.Quantity > MaxQuantity {
			t.Fatalf("quantity %d outside [%d,%d]", order.Quantity, MinQuantity, MaxQuantity)
		}

		switch order.Type {
		case domain.OrderTypeLimit:
			if order.Price == nil {
				t.Fatal("limit order without price")
			}
			if order.Price.LessThan(minPrice) || order.Price.GreaterThanOrEqual(maxPrice) {
				t.Fatalf("price %s outside [%s,%s)", order.Price, minPrice, maxPrice)
			}
		case domain.OrderTypeMarket:
			if order.Price != nil {
				t.Fatal("market order with price")
			}
		default:
			t.Fatalf("unexpected order type %q", order.Type)
		}

		// The wire message mirrors the order.
		msgs := submitter.sent()
		if len(msgs) != 1 {
			t.Fatalf("submitted %d messages, want 1", len(msgs))
		}
		_, hasPrice := msgs[0].Get(protocol.TagPrice)
		if hasPrice != (order.Type == domain.OrderTypeLimit) {
			t.Fatalf("wire price presence %v does not match order type %q", hasPrice, order.Type)
		}
	})
}

// Property: client order identifiers are unique and strictly
// increasing across any number of draws.
func TestProperty_ClOrdIDsMonotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 50).Draw(t, "n")
		g, _, _, _ := newGenerator(defaultGenCfg(), 42)

		seen := make(map[string]bool, n)
		prev := int64(0)
		for i := 0; i < n; i++ {
			order, err := g.Generate()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if seen[order.ClOrdID] {
				t.Fatalf("duplicate ClOrdID %q", order.ClOrdID)
			}
			seen[order.ClOrdID] = true

			id, err := strconv.ParseInt(order.ClOrdID, 10, 64)
			if err != nil {
				t.Fatalf("non-numeric ClOrdID %q", order.ClOrdID)
			}
			if id <= prev {
				t.Fatalf("ClOrdID %d not increasing after %d", id, prev)
			}
			prev = id
		}
	})
}

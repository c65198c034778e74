package store

import (
	"testing"

	"github.com/shopspring/decimal"
	"pgregory.net/rapid"

	"github.com/efreitasn/fixtrader/internal/domain"
)

// Property: for any sequence of fill reports, the book ends up with
// exactly one entry per distinct client order identifier, each FILLED
// after its first fill, whether or not a NEW record existed first.
func TestProperty_ApplyFillIdempotentUpsert(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		b := NewOrderBook()

		ids := rapid.SliceOfN(rapid.StringMatching(`[0-9]{1,3}`), 1, 50).Draw(t, "ids")
		preRecorded := rapid.SliceOf(rapid.SampledFrom(ids)).Draw(t, "preRecorded")

		for _, id := range preRecorded {
			b.RecordNew(&domain.Order{
				ClOrdID: id,
				Symbol:  "MSFT",
				Side:    domain.SideBuy,
				Status:  domain.OrderStatusNew,
			})
		}

		for _, id := range ids {
			qty := rapid.Int64Range(1, 100).Draw(t, "qty")
			b.ApplyFill(id, "MSFT", domain.SideBuy, qty, decimal.NewFromInt(10))
		}

		distinct := make(map[string]bool)
		for _, id := range ids {
			distinct[id] = true
		}
		for _, id := range preRecorded {
			distinct[id] = true
		}
		if b.Len() != len(distinct) {
			t.Fatalf("Len() = %d, want %d distinct ids", b.Len(), len(distinct))
		}

		for id := range distinct {
			o, err := b.Get(id)
			if err != nil {
				t.Fatalf("missing entry for %q", id)
			}
			wasFilled := false
			for _, fid := range ids {
				if fid == id {
					wasFilled = true
					break
				}
			}
			if wasFilled && o.Status != domain.OrderStatusFilled {
				t.Fatalf("order %q status = %q, want FILLED", id, o.Status)
			}
		}
	})
}

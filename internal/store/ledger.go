package store

import (
	"iter"
	"sync"

	"github.com/efreitasn/fixtrader/internal/domain"
)

// TradeLedger is a thread-safe, append-only, chronological record of
// executed trades. It is the source of truth for the statistics
// engine; append order is preserved because realized PnL depends on
// it.
type TradeLedger struct {
	mu     sync.RWMutex
	trades []domain.Trade
}

// NewTradeLedger creates an empty TradeLedger.
func NewTradeLedger() *TradeLedger {
	return &TradeLedger{}
}

// Append records a trade. No validation is performed beyond what the
// caller already did: the ledger stores whatever arrived.
func (l *TradeLedger) Append(t domain.Trade) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.trades = append(l.trades, t)
}

// Len returns the number of trades recorded.
func (l *TradeLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.trades)
}

// All returns a restartable iterator over the trades in append order.
// The iterator walks the ledger as of the moment All is ranged over;
// concurrent appends do not invalidate a pass.
func (l *TradeLedger) All() iter.Seq[domain.Trade] {
	return func(yield func(domain.Trade) bool) {
		l.mu.RLock()
		snapshot := l.trades
		l.mu.RUnlock()

		for _, t := range snapshot {
			if !yield(t) {
				return
			}
		}
	}
}

package store

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/fixtrader/internal/domain"
)

// OrderBook is a thread-safe record of every order this client has
// seen, keyed by client order identifier. Entries are never removed:
// the book keeps full history for the process lifetime. It is touched
// from the inbound-message callback path and from the generation and
// cancellation loops, so all access goes through the lock.
type OrderBook struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
	ids    []string // insertion order, parallel to the map
}

// NewOrderBook creates an empty OrderBook.
func NewOrderBook() *OrderBook {
	return &OrderBook{
		orders: make(map[string]*domain.Order),
	}
}

// RecordNew inserts an order if its identifier is absent. An existing
// entry is left untouched.
func (b *OrderBook) RecordNew(o *domain.Order) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.orders[o.ClOrdID]; ok {
		return
	}
	b.orders[o.ClOrdID] = o
	b.ids = append(b.ids, o.ClOrdID)
}

// ApplyFill reconciles a fill report against the book. If the
// identifier is known the order moves to FILLED and its filled
// quantity/price are overwritten (last fill wins, not cumulative). If
// the identifier is unknown a FILLED entry is synthesized from the
// report instead of rejecting it.
func (b *OrderBook) ApplyFill(clOrdID, symbol string, side domain.Side, quantity int64, price decimal.Decimal) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if o, ok := b.orders[clOrdID]; ok {
		o.Status = domain.OrderStatusFilled
		o.FilledQuantity = quantity
		o.FilledPrice = price
		return
	}

	b.orders[clOrdID] = &domain.Order{
		ClOrdID:        clOrdID,
		Symbol:         symbol,
		Side:           side,
		Quantity:       quantity,
		Status:         domain.OrderStatusFilled,
		FilledQuantity: quantity,
		FilledPrice:    price,
	}
	b.ids = append(b.ids, clOrdID)
}

// Get retrieves a copy of an order by identifier. It returns
// domain.ErrOrderNotFound if the order does not exist.
func (b *OrderBook) Get(clOrdID string) (*domain.Order, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	o, ok := b.orders[clOrdID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

// Len returns the number of distinct orders recorded.
func (b *OrderBook) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.orders)
}

// RandomID returns a uniformly random client order identifier from
// the book, or domain.ErrNoOrdersOutstanding when the book is empty.
func (b *OrderBook) RandomID(rng *rand.Rand) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.ids) == 0 {
		return "", domain.ErrNoOrdersOutstanding
	}
	return b.ids[rng.Intn(len(b.ids))], nil
}

// List returns copies of orders in insertion order, optionally
// filtered by status. Copies keep callers from mutating book state
// outside the lock.
func (b *OrderBook) List(status *domain.OrderStatus) []domain.Order {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := make([]domain.Order, 0, len(b.ids))
	for _, id := range b.ids {
		o := b.orders[id]
		if status != nil && o.Status != *status {
			continue
		}
		result = append(result, *o)
	}
	return result
}

// IDs returns all client order identifiers sorted lexicographically.
// Useful for tests and deterministic listings.
func (b *OrderBook) IDs() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ids := make([]string, len(b.ids))
	copy(ids, b.ids)
	sort.Strings(ids)
	return ids
}

package service

import (
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/fixtrader/internal/domain"
	"github.com/efreitasn/fixtrader/internal/engine"
	"github.com/efreitasn/fixtrader/internal/protocol"
	"github.com/efreitasn/fixtrader/internal/store"
)

var orderSymbolRegex = regexp.MustCompile(`^[A-Z]{1,10}$`)

// ValidOrderStatuses lists all valid order status values for listing
// filters.
var ValidOrderStatuses = map[domain.OrderStatus]bool{
	domain.OrderStatusNew:       true,
	domain.OrderStatusFilled:    true,
	domain.OrderStatusCancelled: true,
}

// SubmitOrderRequest represents the input for ad-hoc order submission
// through the control API.
type SubmitOrderRequest struct {
	Symbol   string
	Side     domain.Side
	Type     domain.OrderType
	Quantity int64
	Price    *float64 // required for limit, must be nil for market
}

// TradingService is the control surface over the trading session:
// ad-hoc order submission, statistics snapshots, and order listing.
type TradingService struct {
	ids       *engine.IDSequence
	book      *store.OrderBook
	ledger    *store.TradeLedger
	stats     *engine.StatisticsEngine
	generator *engine.OrderFlowGenerator
	submitter protocol.Submitter
	clock     engine.Clock
}

// NewTradingService creates a TradingService with the given
// dependencies.
func NewTradingService(
	ids *engine.IDSequence,
	book *store.OrderBook,
	ledger *store.TradeLedger,
	stats *engine.StatisticsEngine,
	generator *engine.OrderFlowGenerator,
	submitter protocol.Submitter,
	clock engine.Clock,
) *TradingService {
	return &TradingService{
		ids:       ids,
		book:      book,
		ledger:    ledger,
		stats:     stats,
		generator: generator,
		submitter: submitter,
		clock:     clock,
	}
}

// SubmitOrder validates the request, records the order as NEW, and
// submits it to the counterparty. A short order is recorded with its
// local SHORT side and goes out as a sell plus the custom indicator
// field.
func (s *TradingService) SubmitOrder(req SubmitOrderRequest) (*domain.Order, error) {
	if !orderSymbolRegex.MatchString(req.Symbol) {
		return nil, &domain.ValidationError{
			Message: "symbol must match ^[A-Z]{1,10}$",
		}
	}
	if req.Side != domain.SideBuy && req.Side != domain.SideSell && req.Side != domain.SideShort {
		return nil, &domain.ValidationError{
			Message: "side must be one of: BUY, SELL, SHORT",
		}
	}
	if req.Type != domain.OrderTypeLimit && req.Type != domain.OrderTypeMarket {
		return nil, &domain.ValidationError{
			Message: "type must be one of: LIMIT, MARKET",
		}
	}
	if req.Quantity <= 0 {
		return nil, &domain.ValidationError{
			Message: "quantity must be a positive integer",
		}
	}

	order := &domain.Order{
		ClOrdID:   s.ids.Next(),
		Symbol:    req.Symbol,
		Side:      req.Side,
		Type:      req.Type,
		Quantity:  req.Quantity,
		Status:    domain.OrderStatusNew,
		CreatedAt: s.clock.Now(),
	}

	if req.Type == domain.OrderTypeLimit {
		if req.Price == nil {
			return nil, &domain.ValidationError{
				Message: "price is required for limit orders",
			}
		}
		if *req.Price <= 0 {
			return nil, &domain.ValidationError{
				Message: "price must be greater than 0",
			}
		}
		price := decimal.NewFromFloat(*req.Price)
		order.Price = &price
	} else if req.Price != nil {
		return nil, &domain.ValidationError{
			Message: "price must be omitted for market orders",
		}
	}

	if req.Side == domain.SideShort {
		order.Extensions = map[int]string{
			domain.ShortIndicatorTag: domain.ShortIndicatorValue,
		}
	}

	s.book.RecordNew(order)

	// Snapshot before submission: after the message is out, a fill
	// arriving on the inbound goroutine mutates the book-owned struct.
	snapshot := *order

	if err := s.submitter.Submit(protocol.NewOrderSingle(&snapshot, s.clock.Now())); err != nil {
		return &snapshot, err
	}
	return &snapshot, nil
}

// SubmitRandomOrder generates and submits one synthetic order, the
// programmatic equivalent of the interactive "place one order"
// trigger.
func (s *TradingService) SubmitRandomOrder() (*domain.Order, error) {
	return s.generator.Generate()
}

// Stats recomputes and returns the current statistics snapshot.
func (s *TradingService) Stats() engine.Report {
	return s.stats.Compute(s.ledger.All())
}

// ListOrders returns orders in insertion order, optionally filtered
// by status, with 1-based pagination. The second return value is the
// total count of matching orders before pagination.
func (s *TradingService) ListOrders(status *domain.OrderStatus, page, limit int) ([]domain.Order, int, error) {
	if status != nil && !ValidOrderStatuses[*status] {
		return nil, 0, &domain.ValidationError{
			Message: "status must be one of: NEW, FILLED, CANCELLED",
		}
	}
	if page < 1 {
		return nil, 0, &domain.ValidationError{
			Message: "page must be >= 1",
		}
	}
	if limit < 1 || limit > 500 {
		return nil, 0, &domain.ValidationError{
			Message: "limit must be between 1 and 500",
		}
	}

	all := s.book.List(status)
	total := len(all)

	start := (page - 1) * limit
	if start >= total {
		return []domain.Order{}, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/efreitasn/fixtrader/internal/domain"
	"github.com/efreitasn/fixtrader/internal/service"
)

// TradingHandler handles HTTP requests for the trading control
// surface: ad-hoc orders, order listing, and statistics.
type TradingHandler struct {
	tradingSvc *service.TradingService
}

// NewTradingHandler creates a new TradingHandler.
func NewTradingHandler(tradingSvc *service.TradingService) *TradingHandler {
	return &TradingHandler{tradingSvc: tradingSvc}
}

// submitOrderRequest is the JSON request body for POST /orders.
type submitOrderRequest struct {
	Symbol   string   `json:"symbol"`
	Side     string   `json:"side"`
	Type     string   `json:"type"`
	Quantity int64    `json:"quantity"`
	Price    *float64 `json:"price"`
}

// orderResponse is the JSON shape of one order. Nullable fields use
// pointers.
type orderResponse struct {
	ClOrdID        string  `json:"cl_ord_id"`
	Symbol         string  `json:"symbol"`
	Side           string  `json:"side"`
	Type           string  `json:"type"`
	Quantity       int64   `json:"quantity"`
	Price          *string `json:"price"`
	Status         string  `json:"status"`
	FilledQuantity int64   `json:"filled_quantity"`
	FilledPrice    *string `json:"filled_price"`
	CreatedAt      *string `json:"created_at"`
}

// listOrdersResponse is the JSON response for GET /orders.
type listOrdersResponse struct {
	Orders []orderResponse `json:"orders"`
	Total  int             `json:"total"`
	Page   int             `json:"page"`
	Limit  int             `json:"limit"`
}

// instrumentStatsResponse is the per-symbol block of the stats
// response.
type instrumentStatsResponse struct {
	Volume   int64   `json:"volume"`
	Notional string  `json:"notional"`
	Cost     string  `json:"cost"`
	PnL      string  `json:"pnl"`
	VWAP     *string `json:"vwap"`
}

// statsResponse is the JSON response for GET /stats. TotalNotional is
// labelled volume_usd to match the statistics report of the trading
// session.
type statsResponse struct {
	TotalVolume    int64                              `json:"total_volume"`
	TotalVolumeUSD string                             `json:"total_volume_usd"`
	PnL            string                             `json:"pnl"`
	Instruments    map[string]instrumentStatsResponse `json:"instruments"`
}

// SubmitOrder handles POST /orders.
func (h *TradingHandler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req submitOrderRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	order, err := h.tradingSvc.SubmitOrder(service.SubmitOrderRequest{
		Symbol:   req.Symbol,
		Side:     domain.Side(req.Side),
		Type:     domain.OrderType(req.Type),
		Quantity: req.Quantity,
		Price:    req.Price,
	})
	if err != nil {
		mapTradingError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, buildOrderResponse(order))
}

// SubmitRandomOrder handles POST /orders/random, the HTTP equivalent
// of the interactive "place one order" trigger.
func (h *TradingHandler) SubmitRandomOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.tradingSvc.SubmitRandomOrder()
	if err != nil {
		mapTradingError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, buildOrderResponse(order))
}

// ListOrders handles GET /orders with optional status, page, and
// limit query parameters. Status and pagination values are validated
// by the service.
func (h *TradingHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	var status *domain.OrderStatus
	if v := r.URL.Query().Get("status"); v != "" {
		s := domain.OrderStatus(v)
		status = &s
	}

	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		var err error
		page, err = strconv.Atoi(p)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "page must be a valid integer")
			return
		}
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		var err error
		limit, err = strconv.Atoi(l)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "limit must be a valid integer")
			return
		}
	}

	orders, total, err := h.tradingSvc.ListOrders(status, page, limit)
	if err != nil {
		mapTradingError(w, err)
		return
	}

	resp := listOrdersResponse{
		Orders: make([]orderResponse, len(orders)),
		Total:  total,
		Page:   page,
		Limit:  limit,
	}
	for i := range orders {
		resp.Orders[i] = buildOrderResponse(&orders[i])
	}

	WriteJSON(w, http.StatusOK, resp)
}

// GetStats handles GET /stats.
func (h *TradingHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	report := h.tradingSvc.Stats()

	resp := statsResponse{
		TotalVolume:    report.TotalVolume,
		TotalVolumeUSD: report.TotalNotional.String(),
		PnL:            report.PnL.String(),
		Instruments:    make(map[string]instrumentStatsResponse, len(report.Instruments)),
	}
	for symbol, inst := range report.Instruments {
		entry := instrumentStatsResponse{
			Volume:   inst.Volume,
			Notional: inst.Notional.String(),
			Cost:     inst.Cost.String(),
			PnL:      inst.PnL.String(),
		}
		if inst.VWAP != nil {
			vwap := inst.VWAP.String()
			entry.VWAP = &vwap
		}
		resp.Instruments[symbol] = entry
	}

	WriteJSON(w, http.StatusOK, resp)
}

// buildOrderResponse converts a domain order into its JSON shape.
func buildOrderResponse(o *domain.Order) orderResponse {
	resp := orderResponse{
		ClOrdID:        o.ClOrdID,
		Symbol:         o.Symbol,
		Side:           string(o.Side),
		Type:           string(o.Type),
		Quantity:       o.Quantity,
		Status:         string(o.Status),
		FilledQuantity: o.FilledQuantity,
	}
	if o.Price != nil {
		price := o.Price.String()
		resp.Price = &price
	}
	if o.FilledQuantity > 0 {
		filledPrice := o.FilledPrice.String()
		resp.FilledPrice = &filledPrice
	}
	if !o.CreatedAt.IsZero() {
		createdAt := o.CreatedAt.UTC().Format(time.RFC3339)
		resp.CreatedAt = &createdAt
	}
	return resp
}

// mapTradingError maps service errors to HTTP responses.
func mapTradingError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		WriteError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
	case errors.Is(err, domain.ErrSessionUnavailable):
		WriteError(w, http.StatusServiceUnavailable, "session_unavailable",
			"no session is currently logged on")
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "unexpected error")
	}
}

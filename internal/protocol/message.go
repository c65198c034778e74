// Package protocol models the application-message boundary to the
// counterparty. The wire-level session protocol (framing, sequence
// numbers, resend, heartbeats) is owned by the surrounding session
// engine; this package only deals in decoded messages with a type tag
// and typed fields, and in the handle used to send them.
package protocol

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/fixtrader/internal/domain"
)

// Message type tags as they appear in the message header.
const (
	MsgTypeExecutionReport    = "8"
	MsgTypeReject             = "3"
	MsgTypeOrderCancelReject  = "9"
	MsgTypeNewOrderSingle     = "D"
	MsgTypeOrderCancelRequest = "F"
)

// Field tags used by this client.
const (
	TagClOrdID      = 11
	TagHandlInst    = 21
	TagLastPx       = 31
	TagLastShares   = 32
	TagOrderQty     = 38
	TagOrdType      = 40
	TagOrigClOrdID  = 41
	TagPrice        = 44
	TagSide         = 54
	TagSymbol       = 55
	TagText         = 58
	TagTransactTime = 60
	TagExecType     = 150
)

// Wire values for TagSide.
const (
	SideValueBuy  = "1"
	SideValueSell = "2"
)

// Wire values for TagOrdType.
const (
	OrdTypeValueMarket = "1"
	OrdTypeValueLimit  = "2"
)

// Wire values for TagExecType.
const (
	ExecTypeNew         = "0"
	ExecTypePartialFill = "1"
	ExecTypeFill        = "2"
	ExecTypeCanceled    = "4"
	ExecTypeRejected    = "8"
)

// HandlInstManualBestExecution is the handling instruction set on
// every outbound order: manual order, best execution.
const HandlInstManualBestExecution = "3"

// Message is a decoded application message: a header type tag plus a
// flat tag-to-value field map. Field access never panics; absent fields
// are reported through the (value, ok) or error-returning accessors.
type Message struct {
	MsgType string
	Fields  map[int]string
}

// NewMessage creates an empty message of the given type.
func NewMessage(msgType string) Message {
	return Message{
		MsgType: msgType,
		Fields:  make(map[int]string),
	}
}

// Set stores a field value under the given tag.
func (m Message) Set(tag int, value string) {
	m.Fields[tag] = value
}

// Get returns a field value and whether it is present.
func (m Message) Get(tag int) (string, bool) {
	v, ok := m.Fields[tag]
	return v, ok
}

// Require returns the field value under tag, or a
// domain.MissingFieldError naming the field when absent.
func (m Message) Require(tag int, name string) (string, error) {
	v, ok := m.Fields[tag]
	if !ok {
		return "", &domain.MissingFieldError{Tag: tag, Name: name}
	}
	return v, nil
}

// RequireInt parses the field under tag as an integer.
func (m Message) RequireInt(tag int, name string) (int64, error) {
	v, err := m.Require(tag, name)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, &domain.MissingFieldError{Tag: tag, Name: name}
	}
	return n, nil
}

// RequireDecimal parses the field under tag as a decimal.
func (m Message) RequireDecimal(tag int, name string) (decimal.Decimal, error) {
	v, err := m.Require(tag, name)
	if err != nil {
		return decimal.Decimal{}, err
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Decimal{}, &domain.MissingFieldError{Tag: tag, Name: name}
	}
	return d, nil
}

// sideValue maps a wire side value to the local side. Unrecognized
// values pass through unchanged: the ledger records whatever arrived
// and the statistics engine treats it as neither buy nor sell.
func sideValue(wire string) domain.Side {
	switch wire {
	case SideValueBuy:
		return domain.SideBuy
	case SideValueSell:
		return domain.SideSell
	}
	return domain.Side(wire)
}

// SideField returns the local side decoded from the message's side
// field.
func (m Message) SideField(tag int, name string) (domain.Side, error) {
	v, err := m.Require(tag, name)
	if err != nil {
		return "", err
	}
	return sideValue(v), nil
}

// wireSideValue maps a local side to its wire value. Shorts must be
// mapped to sells by the caller before reaching this point.
func wireSideValue(side domain.Side) string {
	if side == domain.SideSell {
		return SideValueSell
	}
	return SideValueBuy
}

// NewOrderSingle builds the outbound new-order message for an order.
// A short order goes out as a sell carrying the custom short-indicator
// extension field; the extension map on the order is copied verbatim
// so further custom tags survive the trip.
func NewOrderSingle(order *domain.Order, now time.Time) Message {
	msg := NewMessage(MsgTypeNewOrderSingle)
	msg.Set(TagClOrdID, order.ClOrdID)
	msg.Set(TagHandlInst, HandlInstManualBestExecution)
	msg.Set(TagSymbol, order.Symbol)
	msg.Set(TagSide, wireSideValue(order.WireSide()))
	if order.Type == domain.OrderTypeLimit {
		msg.Set(TagOrdType, OrdTypeValueLimit)
		if order.Price != nil {
			msg.Set(TagPrice, order.Price.String())
		}
	} else {
		msg.Set(TagOrdType, OrdTypeValueMarket)
	}
	msg.Set(TagOrderQty, strconv.FormatInt(order.Quantity, 10))
	msg.Set(TagTransactTime, strconv.FormatInt(now.UTC().Unix(), 10))
	for tag, value := range order.Extensions {
		msg.Set(tag, value)
	}
	return msg
}

// NewOrderCancelRequest builds the outbound cancel for origClOrdID,
// identified by its own fresh clOrdID.
func NewOrderCancelRequest(clOrdID, origClOrdID, symbol string, side domain.Side, now time.Time) Message {
	msg := NewMessage(MsgTypeOrderCancelRequest)
	msg.Set(TagClOrdID, clOrdID)
	msg.Set(TagOrigClOrdID, origClOrdID)
	msg.Set(TagSymbol, symbol)
	msg.Set(TagSide, wireSideValue(side))
	msg.Set(TagTransactTime, strconv.FormatInt(now.UTC().Unix(), 10))
	return msg
}

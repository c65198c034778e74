package engine

import (
	"log/slog"

	"github.com/efreitasn/fixtrader/internal/protocol"
)

// MessageDispatcher routes inbound decoded messages by their header
// type tag. It is a stateless classification: execution reports go to
// the execution-report handler, rejects and cancel rejects are logged,
// and anything unrecognized is reported and discarded. Dispatch never
// aborts the session; a failing message is isolated and the loop
// continues.
type MessageDispatcher struct {
	execReports *ExecutionReportHandler
	logger      *slog.Logger
}

// NewMessageDispatcher creates a dispatcher wired to the
// execution-report handler.
func NewMessageDispatcher(execReports *ExecutionReportHandler, logger *slog.Logger) *MessageDispatcher {
	return &MessageDispatcher{
		execReports: execReports,
		logger:      logger,
	}
}

// Dispatch classifies and handles one inbound message.
func (d *MessageDispatcher) Dispatch(msg protocol.Message) {
	switch msg.MsgType {
	case protocol.MsgTypeExecutionReport:
		d.logger.Debug("execution report received",
			slog.Any("fields", msg.Fields),
		)
		if err := d.execReports.Handle(msg); err != nil {
			d.logger.Error("execution report dropped",
				slog.String("error", err.Error()),
			)
		}
	case protocol.MsgTypeReject:
		d.handleReject(msg)
	case protocol.MsgTypeOrderCancelReject:
		d.handleCancelReject(msg)
	default:
		d.logger.Warn("unknown message type",
			slog.String("msg_type", msg.MsgType),
		)
	}
}

// handleReject logs a session-level reject. Rejected orders are not
// resubmitted.
func (d *MessageDispatcher) handleReject(msg protocol.Message) {
	text, _ := msg.Get(protocol.TagText)
	d.logger.Warn("reject received",
		slog.String("text", text),
	)
}

// handleCancelReject logs an order-cancel reject. The original order's
// status is left as is.
func (d *MessageDispatcher) handleCancelReject(msg protocol.Message) {
	clOrdID, _ := msg.Get(protocol.TagClOrdID)
	origClOrdID, _ := msg.Get(protocol.TagOrigClOrdID)
	d.logger.Warn("order cancel reject received",
		slog.String("cl_ord_id", clOrdID),
		slog.String("orig_cl_ord_id", origClOrdID),
	)
}

package ledger

import (
	"context"

	logger "github.com/sirupsen/logrus"

	"ordergateway/src/model"
)

// TradeLedger is the append-only audit log of the trade lifecycle. One
// entry row at submission, one exit row at the trade-closing terminal
// status. Prior rows are never rewritten and no read path is exposed;
// downstream analysis is an external concern.
type TradeLedger interface {
	AppendEntry(ctx context.Context, row *model.TradeLog) error
	AppendExit(ctx context.Context, row *model.TradeLog) error
}

// MultiLedger fans every append out to several sinks. The first sink is
// authoritative: its error is returned. Failures of the remaining sinks
// are logged and swallowed so a secondary store cannot fail a live trade.
type MultiLedger struct {
	sinks []TradeLedger
}

func NewMulti(sinks ...TradeLedger) *MultiLedger {
	return &MultiLedger{sinks: sinks}
}

func (m *MultiLedger) AppendEntry(ctx context.Context, row *model.TradeLog) error {
	return m.fanOut(ctx, row, TradeLedger.AppendEntry)
}

func (m *MultiLedger) AppendExit(ctx context.Context, row *model.TradeLog) error {
	return m.fanOut(ctx, row, TradeLedger.AppendExit)
}

func (m *MultiLedger) fanOut(
	ctx context.Context,
	row *model.TradeLog,
	append func(TradeLedger, context.Context, *model.TradeLog) error,
) error {
	var primaryErr error
	for i, sink := range m.sinks {
		err := append(sink, ctx, row)
		if err == nil {
			continue
		}
		if i == 0 {
			primaryErr = err
			continue
		}
		logger.WithError(err).WithFields(map[string]interface{}{
			"trade_id": row.TradeID,
			"reason":   row.Reason,
		}).Error("secondary ledger sink append failed")
	}
	return primaryErr
}

package ledger

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"sync"

	logger "github.com/sirupsen/logrus"

	"ordergateway/src/model"
)

// header is the fixed ledger schema. Written exactly once, when the
// backing file is created.
var header = []string{
	"Date", "Time", "Symbol", "Side", "Quantity",
	"Entry Price", "Stop Loss", "Take Profit",
	"Reason", "Status", "Exit Price", "PnL",
}

// CSVLedger appends trade rows to a CSV file. The file is created with
// the header row on first write if absent; existing files are only ever
// appended to. Safe for concurrent use.
type CSVLedger struct {
	mu   sync.Mutex
	path string
}

func NewCSV(path string) *CSVLedger {
	return &CSVLedger{path: path}
}

func (l *CSVLedger) AppendEntry(ctx context.Context, row *model.TradeLog) error {
	return l.append(row)
}

func (l *CSVLedger) AppendExit(ctx context.Context, row *model.TradeLog) error {
	return l.append(row)
}

func (l *CSVLedger) append(row *model.TradeLog) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	writeHeader := false
	if _, err := os.Stat(l.path); os.IsNotExist(err) {
		writeHeader = true
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open trade log %s: %w", l.path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			logger.WithError(cerr).Error("failed to close trade log file")
		}
	}()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("write trade log header: %w", err)
		}
	}

	exitPrice := ""
	if row.ExitPrice != nil {
		exitPrice = row.ExitPrice.StringFixed(2)
	}
	pnl := ""
	if row.PnL != nil {
		pnl = row.PnL.StringFixed(2)
	}

	if err := w.Write([]string{
		row.RecordedAt.Format("2006-01-02"),
		row.RecordedAt.Format("15:04:05"),
		row.Symbol,
		row.Side,
		fmt.Sprintf("%d", row.Quantity),
		row.EntryPrice.StringFixed(2),
		row.StopLoss.StringFixed(2),
		row.TakeProfit.StringFixed(2),
		row.Reason,
		row.Status,
		exitPrice,
		pnl,
	}); err != nil {
		return fmt.Errorf("write trade log row: %w", err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush trade log: %w", err)
	}
	return nil
}

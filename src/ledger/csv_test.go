package ledger

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ordergateway/src/model"
)

func tradeRow(reason, status string) *model.TradeLog {
	return &model.TradeLog{
		TradeID:    "t1",
		Symbol:     "AAPL",
		Side:       model.SideBuy,
		Quantity:   2,
		EntryPrice: decimal.NewFromInt(100),
		StopLoss:   decimal.NewFromInt(95),
		TakeProfit: decimal.NewFromInt(110),
		Reason:     reason,
		Status:     status,
		RecordedAt: time.Date(2025, 6, 2, 14, 30, 5, 0, time.UTC),
	}
}

func readAll(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVLedgerWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")
	l := NewCSV(path)
	ctx := context.Background()

	require.NoError(t, l.AppendEntry(ctx, tradeRow(model.TradeReasonEntry, model.TradeStatusOpen)))
	require.NoError(t, l.AppendExit(ctx, tradeRow(model.TradeReasonExit, model.TradeStatusFilled)))

	rows := readAll(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, header, rows[0])
	assert.Equal(t, "entry", rows[1][8])
	assert.Equal(t, "exit", rows[2][8])
}

func TestCSVLedgerRowFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")
	l := NewCSV(path)

	row := tradeRow(model.TradeReasonExit, model.TradeStatusFilled)
	exit := decimal.RequireFromString("110.005")
	pnl := decimal.RequireFromString("20.01")
	row.ExitPrice = &exit
	row.PnL = &pnl
	require.NoError(t, l.AppendExit(context.Background(), row))

	rows := readAll(t, path)
	require.Len(t, rows, 2)
	got := rows[1]
	assert.Equal(t, "2025-06-02", got[0])
	assert.Equal(t, "14:30:05", got[1])
	assert.Equal(t, "AAPL", got[2])
	assert.Equal(t, "BUY", got[3])
	assert.Equal(t, "2", got[4])
	assert.Equal(t, "100.00", got[5])
	assert.Equal(t, "95.00", got[6])
	assert.Equal(t, "110.00", got[7])
	assert.Equal(t, "filled", got[9])
	assert.Equal(t, "110.01", got[10])
	assert.Equal(t, "20.01", got[11])
}

func TestCSVLedgerEmptyExitFields(t *testing.T) {
	// A cancellation before fill carries neither exit price nor PnL.
	path := filepath.Join(t.TempDir(), "trades.csv")
	l := NewCSV(path)

	require.NoError(t, l.AppendExit(context.Background(), tradeRow(model.TradeReasonExit, model.TradeStatusCancelled)))

	rows := readAll(t, path)
	assert.Equal(t, "", rows[1][10])
	assert.Equal(t, "", rows[1][11])
}

func TestCSVLedgerAppendsToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")

	require.NoError(t, NewCSV(path).AppendEntry(context.Background(), tradeRow(model.TradeReasonEntry, model.TradeStatusOpen)))
	// New ledger instance over the same file must not rewrite the header.
	require.NoError(t, NewCSV(path).AppendEntry(context.Background(), tradeRow(model.TradeReasonEntry, model.TradeStatusOpen)))

	rows := readAll(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, header, rows[0])
	assert.NotEqual(t, header, rows[1])
}

type failingLedger struct{ calls int }

func (f *failingLedger) AppendEntry(context.Context, *model.TradeLog) error {
	f.calls++
	return errors.New("sink down")
}

func (f *failingLedger) AppendExit(context.Context, *model.TradeLog) error {
	f.calls++
	return errors.New("sink down")
}

func TestMultiLedgerSecondaryFailureSwallowed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")
	secondary := &failingLedger{}
	m := NewMulti(NewCSV(path), secondary)

	err := m.AppendEntry(context.Background(), tradeRow(model.TradeReasonEntry, model.TradeStatusOpen))

	assert.NoError(t, err)
	assert.Equal(t, 1, secondary.calls)
	assert.Len(t, readAll(t, path), 2)
}

func TestMultiLedgerPrimaryFailureSurfaces(t *testing.T) {
	m := NewMulti(&failingLedger{})

	err := m.AppendExit(context.Background(), tradeRow(model.TradeReasonExit, model.TradeStatusFilled))

	assert.Error(t, err)
}

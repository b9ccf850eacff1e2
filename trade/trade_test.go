package trade

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func openTrade(t *testing.T) *Trade {
	t.Helper()
	tr := New("EUR_USD", Buy)
	require.NoError(t, tr.SetSize(0.1))
	require.NoError(t, tr.MarkOpen(1.1000, t0))
	return tr
}

func TestNewDefaults(t *testing.T) {
	t.Parallel()

	tr := New("EUR_USD", Sell)
	assert.Equal(t, Pending, tr.Status)
	assert.Equal(t, Market, tr.Type)
	assert.Equal(t, Sell, tr.Direction)
}

func TestSetSize(t *testing.T) {
	t.Parallel()

	tr := New("EUR_USD", Buy)
	assert.ErrorIs(t, tr.SetSize(0), ErrInvalidSize)
	assert.ErrorIs(t, tr.SetSize(-1), ErrInvalidSize)
	assert.Zero(t, tr.Size)

	assert.NoError(t, tr.SetSize(0.5))
	assert.Equal(t, 0.5, tr.Size)
}

func TestSetEntry(t *testing.T) {
	t.Parallel()

	tr := New("EUR_USD", Buy)
	assert.ErrorIs(t, tr.SetEntry(Limit, nil), ErrMissingEntryPrice)
	assert.ErrorIs(t, tr.SetEntry(Stop, nil), ErrMissingEntryPrice)
	assert.Equal(t, Market, tr.Type)

	entry := 1.2000
	assert.NoError(t, tr.SetEntry(Limit, &entry))
	assert.Equal(t, Limit, tr.Type)
	require.NotNil(t, tr.EntryPrice)
	assert.Equal(t, 1.2000, *tr.EntryPrice)

	assert.NoError(t, tr.SetEntry(Market, nil))
	assert.Equal(t, Market, tr.Type)
}

func TestValidLifecycle(t *testing.T) {
	t.Parallel()

	tr := New("EUR_USD", Buy)
	require.NoError(t, tr.SetSize(0.1))

	require.NoError(t, tr.MarkOpen(1.1000, t0))
	assert.Equal(t, Open, tr.Status)
	assert.Equal(t, 1.1000, tr.ExecutedPrice)

	require.NoError(t, tr.MarkClosed(1.1100, 100.0, CloseTakeProfit, t0.Add(time.Hour)))
	assert.Equal(t, Closed, tr.Status)
	assert.Equal(t, 1.1100, tr.ClosePrice)
	assert.Equal(t, 100.0, tr.Profit)
	assert.Equal(t, CloseTakeProfit, tr.CloseReason)
}

func TestPendingToCancelledAndRejected(t *testing.T) {
	t.Parallel()

	tr := New("EUR_USD", Buy)
	assert.NoError(t, tr.MarkCancelled())
	assert.Equal(t, Cancelled, tr.Status)

	tr2 := New("EUR_USD", Buy)
	assert.NoError(t, tr2.MarkRejected("invalid trade size"))
	assert.Equal(t, Rejected, tr2.Status)
	assert.Equal(t, "invalid trade size", tr2.RejectionReason)
}

func TestInvalidTransitionsLeaveStateUnchanged(t *testing.T) {
	t.Parallel()

	// Pending cannot close directly.
	tr := New("EUR_USD", Buy)
	err := tr.MarkClosed(1.1, 0, CloseManual, t0)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, Pending, tr.Status)
	assert.Zero(t, tr.ClosePrice)

	// Open cannot reject or reopen.
	op := openTrade(t)
	assert.ErrorIs(t, op.MarkRejected("x"), ErrInvalidTransition)
	assert.ErrorIs(t, op.MarkOpen(1.2, t0), ErrInvalidTransition)
	assert.Equal(t, Open, op.Status)
	assert.Equal(t, 1.1000, op.ExecutedPrice)

	// Terminal states accept nothing.
	cl := openTrade(t)
	require.NoError(t, cl.MarkClosed(1.12, 200, CloseManual, t0))
	assert.ErrorIs(t, cl.MarkOpen(1.2, t0), ErrInvalidTransition)
	assert.ErrorIs(t, cl.MarkCancelled(), ErrInvalidTransition)
	assert.ErrorIs(t, cl.MarkClosed(1.2, 0, CloseManual, t0), ErrInvalidTransition)
	assert.Equal(t, Closed, cl.Status)
	assert.Equal(t, 200.0, cl.Profit)

	rj := New("EUR_USD", Sell)
	require.NoError(t, rj.MarkRejected("no price"))
	assert.ErrorIs(t, rj.MarkOpen(1.1, t0), ErrInvalidTransition)
	assert.Equal(t, Rejected, rj.Status)

	cn := New("EUR_USD", Sell)
	require.NoError(t, cn.MarkCancelled())
	assert.ErrorIs(t, cn.MarkOpen(1.1, t0), ErrInvalidTransition)
	assert.Equal(t, Cancelled, cn.Status)
}

func TestMarkOpenRequiresExecutedPrice(t *testing.T) {
	t.Parallel()

	tr := New("EUR_USD", Buy)
	assert.Error(t, tr.MarkOpen(0, t0))
	assert.Equal(t, Pending, tr.Status)
}

func TestMarkClosedRequiresClosePrice(t *testing.T) {
	t.Parallel()

	tr := openTrade(t)
	assert.Error(t, tr.MarkClosed(0, 10, CloseManual, t0))
	assert.Equal(t, Open, tr.Status)
}

// Package trade defines the Trade entity, the single source of truth for
// order and position data across the bot. A Trade starts as a pending order
// and moves through a strict status state machine; brokers, the risk sizer
// and the backtest runner all mutate it only through the methods here.
package trade

import (
	"errors"
	"fmt"
	"time"
)

// Direction is the trade side.
type Direction string

const (
	Buy  Direction = "buy"
	Sell Direction = "sell"
)

// OrderType determines how the entry price is established.
type OrderType string

const (
	Market OrderType = "market"
	Limit  OrderType = "limit"
	Stop   OrderType = "stop"
)

// Status is the lifecycle state of a trade.
type Status string

const (
	Pending   Status = "pending"
	Open      Status = "open"
	Closed    Status = "closed"
	Cancelled Status = "cancelled"
	Rejected  Status = "rejected"
)

// CloseReason records why a position left the book.
type CloseReason string

const (
	CloseTakeProfit CloseReason = "take_profit"
	CloseStopLoss   CloseReason = "stop_loss"
	CloseManual     CloseReason = "manual"
	CloseStrategy   CloseReason = "strategy"
	CloseBroker     CloseReason = "broker"
)

var (
	// ErrInvalidTransition is returned for any status edge not listed in
	// validNext. The trade is left untouched.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrInvalidSize is returned when setting a non-positive size.
	ErrInvalidSize = errors.New("size must be a positive number")
	// ErrMissingEntryPrice is returned when limit/stop entry parameters are
	// set without an entry price.
	ErrMissingEntryPrice = errors.New("entry price required for limit/stop orders")
)

// validNext lists the only legal status edges. Closed, Cancelled and
// Rejected are terminal.
var validNext = map[Status][]Status{
	Pending:   {Open, Cancelled, Rejected},
	Open:      {Closed, Cancelled},
	Closed:    {},
	Cancelled: {},
	Rejected:  {},
}

// Trade represents a single order/position. Symbol and Direction are fixed
// at construction; everything else is filled in as the trade moves through
// the pipeline (sizing, submission, execution, close).
type Trade struct {
	Symbol    string
	Direction Direction

	ID         string
	Size       float64
	Type       OrderType
	EntryPrice *float64 // required for limit/stop orders
	StopLoss   *float64
	TakeProfit *float64
	Status     Status

	ExecutedPrice float64
	OpenTime      time.Time
	ClosePrice    float64
	CloseTime     time.Time
	CloseReason   CloseReason

	Profit     float64
	Commission float64
	Swap       float64

	// SignalStrength carries the strategy's confidence (0..1) for
	// journaling; it plays no role in execution.
	SignalStrength float64

	RejectionReason string
}

// New creates a pending market trade for symbol in the given direction.
func New(symbol string, dir Direction) *Trade {
	return &Trade{
		Symbol:    symbol,
		Direction: dir,
		Type:      Market,
		Status:    Pending,
	}
}

func (t *Trade) String() string {
	return fmt.Sprintf("Trade(id=%s, symbol=%s, dir=%s, size=%g, type=%s, status=%s)",
		t.ID, t.Symbol, t.Direction, t.Size, t.Type, t.Status)
}

// SetSize sets the position size. Sizes must be strictly positive.
func (t *Trade) SetSize(size float64) error {
	if size <= 0 {
		return fmt.Errorf("%w, got %g", ErrInvalidSize, size)
	}
	t.Size = size
	return nil
}

// SetEntry sets the order type and, for limit/stop orders, the entry price.
// Market orders ignore entry; limit/stop orders require one.
func (t *Trade) SetEntry(orderType OrderType, entry *float64) error {
	if (orderType == Limit || orderType == Stop) && entry == nil {
		return fmt.Errorf("%w (%s order)", ErrMissingEntryPrice, orderType)
	}
	t.Type = orderType
	t.EntryPrice = entry
	return nil
}

func (t *Trade) canTransition(to Status) error {
	for _, s := range validNext[t.Status] {
		if s == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, to)
}

// MarkOpen transitions Pending -> Open. The executed price is mandatory.
func (t *Trade) MarkOpen(executedPrice float64, openTime time.Time) error {
	if err := t.canTransition(Open); err != nil {
		return err
	}
	if executedPrice <= 0 {
		return fmt.Errorf("open trade %s: executed price required", t.ID)
	}
	t.ExecutedPrice = executedPrice
	t.OpenTime = openTime
	t.Status = Open
	return nil
}

// MarkClosed transitions Open -> Closed, recording the close price, the
// realized profit and the reason.
func (t *Trade) MarkClosed(closePrice, profit float64, reason CloseReason, closeTime time.Time) error {
	if err := t.canTransition(Closed); err != nil {
		return err
	}
	if closePrice <= 0 {
		return fmt.Errorf("close trade %s: close price required", t.ID)
	}
	t.ClosePrice = closePrice
	t.Profit = profit
	t.CloseReason = reason
	t.CloseTime = closeTime
	t.Status = Closed
	return nil
}

// MarkCancelled transitions a pending order or open position to Cancelled.
func (t *Trade) MarkCancelled() error {
	if err := t.canTransition(Cancelled); err != nil {
		return err
	}
	t.Status = Cancelled
	return nil
}

// MarkRejected transitions Pending -> Rejected with a human-readable reason.
func (t *Trade) MarkRejected(reason string) error {
	if err := t.canTransition(Rejected); err != nil {
		return err
	}
	if reason == "" {
		reason = "unknown"
	}
	t.RejectionReason = reason
	t.Status = Rejected
	return nil
}

// IsPending reports whether the trade is an unfilled order.
func (t *Trade) IsPending() bool { return t.Status == Pending }

// IsOpen reports whether the trade is an open position.
func (t *Trade) IsOpen() bool { return t.Status == Open }

// IsClosed reports whether the trade has been closed with a realized profit.
func (t *Trade) IsClosed() bool { return t.Status == Closed }

package market

import (
	"fmt"
	"time"
)

// Timeframe identifies a bar duration using the conventional MT-style names
// (M1, M5, H1, D1, ...).
type Timeframe string

const (
	M1  Timeframe = "M1"
	M5  Timeframe = "M5"
	M15 Timeframe = "M15"
	M30 Timeframe = "M30"
	H1  Timeframe = "H1"
	H4  Timeframe = "H4"
	D1  Timeframe = "D1"
	W1  Timeframe = "W1"
	MN1 Timeframe = "MN1"
)

var timeframeSeconds = map[Timeframe]int64{
	M1:  60,
	M5:  5 * 60,
	M15: 15 * 60,
	M30: 30 * 60,
	H1:  3600,
	H4:  4 * 3600,
	D1:  86400,
	W1:  7 * 86400,
	MN1: 30 * 86400,
}

// ReplayTimeframes lists timeframes from finest to coarsest. The simulated
// exchange walks this order when deriving the current price from loaded
// series, so the finest available data wins.
var ReplayTimeframes = []Timeframe{M1, M5, M15, M30, H1, H4, D1, W1, MN1}

// Valid reports whether tf is a known timeframe.
func (tf Timeframe) Valid() bool {
	_, ok := timeframeSeconds[tf]
	return ok
}

// Seconds returns the bar duration in seconds.
func (tf Timeframe) Seconds() (int64, error) {
	s, ok := timeframeSeconds[tf]
	if !ok {
		return 0, fmt.Errorf("unknown timeframe %q", tf)
	}
	return s, nil
}

// Duration returns the bar duration as a time.Duration.
func (tf Timeframe) Duration() (time.Duration, error) {
	s, err := tf.Seconds()
	if err != nil {
		return 0, err
	}
	return time.Duration(s) * time.Second, nil
}

// ParseTimeframe validates a timeframe string from configuration.
func ParseTimeframe(s string) (Timeframe, error) {
	tf := Timeframe(s)
	if !tf.Valid() {
		return "", fmt.Errorf("unknown timeframe %q", s)
	}
	return tf, nil
}

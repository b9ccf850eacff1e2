package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/traderforge/fxbot/market"
)

// Client is an HTTP client for a REST candle endpoint of the form
// GET {base}/v3/instruments/{symbol}/candles?granularity=...&from=...&to=...
// returning OANDA-style candle JSON. It implements Source.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a feed client for the given API base URL. The token is
// sent as a bearer credential on every request.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// candleData holds OHLC price strings as the API delivers them.
type candleData struct {
	O string `json:"o"`
	H string `json:"h"`
	L string `json:"l"`
	C string `json:"c"`
}

type apiCandle struct {
	Complete bool       `json:"complete"`
	Volume   int        `json:"volume"`
	Time     string     `json:"time"`
	Mid      candleData `json:"mid"`
}

type candlesResponse struct {
	Instrument  string      `json:"instrument"`
	Granularity string      `json:"granularity"`
	Candles     []apiCandle `json:"candles"`
}

// FetchHistorical fetches midpoint candles for [start, end]. Incomplete
// candles are skipped, and the series is clamped to OHLC consistency before
// being returned.
func (c *Client) FetchHistorical(ctx context.Context, symbol string, tf market.Timeframe, start, end time.Time) ([]market.Candle, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if !tf.Valid() {
		return nil, fmt.Errorf("unknown timeframe %q", tf)
	}

	params := url.Values{}
	params.Set("price", "M")
	params.Set("granularity", string(tf))
	params.Set("from", start.UTC().Format(time.RFC3339))
	params.Set("to", end.UTC().Format(time.RFC3339))

	apiURL := fmt.Sprintf("%s/v3/instruments/%s/candles?%s", c.baseURL, symbol, params.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("feed API error (status %d): %s", resp.StatusCode, string(body))
	}

	var apiResp candlesResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	candles := make([]market.Candle, 0, len(apiResp.Candles))
	for _, ac := range apiResp.Candles {
		if !ac.Complete {
			continue
		}

		t, err := time.Parse(time.RFC3339, ac.Time)
		if err != nil {
			return nil, fmt.Errorf("parse time %s: %w", ac.Time, err)
		}

		open, err := parseFloat(ac.Mid.O)
		if err != nil {
			return nil, fmt.Errorf("parse open price: %w", err)
		}
		high, err := parseFloat(ac.Mid.H)
		if err != nil {
			return nil, fmt.Errorf("parse high price: %w", err)
		}
		low, err := parseFloat(ac.Mid.L)
		if err != nil {
			return nil, fmt.Errorf("parse low price: %w", err)
		}
		closeP, err := parseFloat(ac.Mid.C)
		if err != nil {
			return nil, fmt.Errorf("parse close price: %w", err)
		}

		candles = append(candles, market.Candle{
			Time:   t,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closeP,
			Volume: float64(ac.Volume),
		})
	}

	market.ClampSeries(candles)
	return candles, nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

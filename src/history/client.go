package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"orb-scanner/src/interfaces"
	"orb-scanner/src/logger"
	"orb-scanner/src/models"
)

// ----------------------------------------------------------------------------------
// Historical candle client for the broker's getCandleData endpoint. Requests
// are JSON POSTs; responses carry rows of [timestamp, o, h, l, c, v]. The
// network manager already applies the retry/backoff policy, which covers the
// endpoint's aggressive per-second rate limiting.
// ----------------------------------------------------------------------------------

const candleTimeLayout = "2006-01-02T15:04:05-07:00"

type Client struct {
	BaseURL string
	Network interfaces.INetworkManager
	Tokens  interfaces.TokenProvider
	Logger  *logger.Logger
}

func NewClient(baseURL string, nm interfaces.INetworkManager, tokens interfaces.TokenProvider, log *logger.Logger) *Client {
	return &Client{
		BaseURL: baseURL,
		Network: nm,
		Tokens:  tokens,
		Logger:  log,
	}
}

type candleRequest struct {
	Exchange    string `json:"exchange"`
	SymbolToken string `json:"symboltoken"`
	Interval    string `json:"interval"`
	FromDate    string `json:"fromdate"`
	ToDate      string `json:"todate"`
}

type candleResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    [][]interface{} `json:"data"`
}

// -----------------------------------------------------------------------------

// FetchMinuteBars returns 1-minute candles for [from, to], times formatted
// "2006-01-02 15:04".
func (c *Client) FetchMinuteBars(ctx context.Context, token string, from, to string) ([]models.MHistoricalBar, error) {
	return c.fetch(ctx, token, "ONE_MINUTE", from, to)
}

// FetchDailyBars returns daily candles, used by the pre-market builder.
func (c *Client) FetchDailyBars(ctx context.Context, token string, from, to string) ([]models.MHistoricalBar, error) {
	return c.fetch(ctx, token, "ONE_DAY", from, to)
}

func (c *Client) fetch(ctx context.Context, token, interval, from, to string) ([]models.MHistoricalBar, error) {
	req := candleRequest{
		Exchange:    "NSE",
		SymbolToken: token,
		Interval:    interval,
		FromDate:    from,
		ToDate:      to,
	}

	headers := map[string]string{}
	if c.Tokens != nil {
		headers = c.Tokens.AuthHeaders()
	}

	body, err := c.Network.PostJSON(ctx, c.BaseURL, req, headers)
	if err != nil {
		return nil, err
	}

	var resp candleResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("history: decode response: %w", err)
	}
	if !resp.Status {
		return nil, fmt.Errorf("history: provider rejected request: %s", resp.Message)
	}

	bars := make([]models.MHistoricalBar, 0, len(resp.Data))
	for _, row := range resp.Data {
		bar, err := parseRow(row)
		if err != nil {
			// One malformed row is skipped, not fatal for the batch.
			c.Logger.Debug("history: skipping malformed row for %s: %v", token, err)
			continue
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

// -----------------------------------------------------------------------------

func parseRow(row []interface{}) (models.MHistoricalBar, error) {
	if len(row) < 6 {
		return models.MHistoricalBar{}, fmt.Errorf("row has %d fields", len(row))
	}

	ts, ok := row[0].(string)
	if !ok {
		return models.MHistoricalBar{}, fmt.Errorf("timestamp is %T", row[0])
	}
	t, err := time.Parse(candleTimeLayout, ts)
	if err != nil {
		return models.MHistoricalBar{}, fmt.Errorf("bad timestamp %q: %w", ts, err)
	}

	vals := make([]float64, 5)
	for i := 1; i < 6; i++ {
		f, ok := row[i].(float64)
		if !ok {
			return models.MHistoricalBar{}, fmt.Errorf("field %d is %T", i, row[i])
		}
		vals[i-1] = f
	}

	return models.MHistoricalBar{
		Time:   t,
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, nil
}

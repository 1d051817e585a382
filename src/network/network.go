package network

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"orb-scanner/src/helpers"
	"orb-scanner/src/logger"
	"orb-scanner/src/models"
)

// NetworkManager wraps an http.Client with the retry and timeout policy used
// for every outbound call (historical candles, instrument master downloads).
type NetworkManager struct {
	Config *models.MNetworkConfig
	Client *http.Client
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewNetworkManager(cfg *models.MNetworkConfig, log *logger.Logger) *NetworkManager {
	return &NetworkManager{
		Config: cfg,
		Client: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
		},
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

// Get fetches url with retries, returning the response body.
func (nm *NetworkManager) Get(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := helpers.RetryWithBackoff(ctx, nm.Config.MaxRetries, time.Second, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", nm.Config.UserAgent)

		resp, err := nm.Client.Do(req)
		if err != nil {
			nm.Logger.Debug("GET %s failed: %v", url, err)
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		body, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		return nil, &helpers.NetworkError{Op: "GET", URL: url, Err: err}
	}
	return body, nil
}

// -----------------------------------------------------------------------------

// PostJSON sends body as JSON with the given extra headers and retries on
// transport errors and 5xx/429 responses.
func (nm *NetworkManager) PostJSON(ctx context.Context, url string, payload interface{}, headers map[string]string) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, &helpers.NetworkError{Op: "POST", URL: url, Err: err}
	}

	var body []byte
	err = helpers.RetryWithBackoff(ctx, nm.Config.MaxRetries, time.Second, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", nm.Config.UserAgent)
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := nm.Client.Do(req)
		if err != nil {
			nm.Logger.Debug("POST %s failed: %v", url, err)
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("retryable status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, snippet)
		}
		body, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		return nil, &helpers.NetworkError{Op: "POST", URL: url, Err: err}
	}
	return body, nil
}

// Package httpget fetches arbitrary JSON documents over HTTP GET and wraps
// the outcome in a response-or-error envelope.
package httpget

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"swaphelper/internal/apperr"
)

const errorPrefix = "There is some issue, Please try after some time. "

// ErrorItem describes one failure. Data holds the upstream body when the
// server answered with one.
type ErrorItem struct {
	Name    string          `json:"name"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Envelope carries either Response or Error, never both.
type Envelope struct {
	Response json.RawMessage `json:"response,omitempty"`
	Error    []ErrorItem     `json:"error,omitempty"`

	cause error
}

func (e Envelope) OK() bool {
	return len(e.Error) == 0
}

// Err returns the failure as an HTTP-kind error, or nil on success.
func (e Envelope) Err() error {
	if e.OK() {
		return nil
	}
	cause := e.cause
	if cause == nil {
		cause = errors.New(e.Error[0].Message)
	}
	return apperr.HTTP("get", cause)
}

// Decode unmarshals the response body into out.
func (e Envelope) Decode(out interface{}) error {
	if err := e.Err(); err != nil {
		return err
	}
	return json.Unmarshal(e.Response, out)
}

type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{httpClient: &http.Client{Timeout: timeout}, logger: logger}
}

// GetRequest fetches url. Failures never return an error; they come back
// as a single "server" item in the envelope.
func (c *Client) GetRequest(ctx context.Context, url string) Envelope {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return failure(err, nil)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("get request failed", "url", url, "error", err)
		return failure(err, nil)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Debug("close response body", "url", url, "error", err)
		}
	}()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure(err, nil)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("request failed with status code %d", resp.StatusCode)
		c.logger.Warn("get request failed", "url", url, "status", resp.StatusCode)
		return failure(err, body)
	}
	if !json.Valid(body) {
		return failure(fmt.Errorf("invalid JSON in response from %s", url), nil)
	}
	return Envelope{Response: json.RawMessage(body)}
}

func failure(err error, body []byte) Envelope {
	data := json.RawMessage("{}")
	if len(body) > 0 && json.Valid(body) {
		data = json.RawMessage(body)
	}
	return Envelope{
		Error: []ErrorItem{{
			Name:    "server",
			Message: errorPrefix + err.Error(),
			Data:    data,
		}},
		cause: err,
	}
}

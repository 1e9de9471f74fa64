package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"FXSentinel/internal/model"
)

// RESTClient implements PriceFeed, OrderGateway and AccountInfo against a
// JSON broker API with bearer authentication.
type RESTClient struct {
	BaseURL    string
	APIKey     string
	AccountID  string
	Client     *http.Client
	MaxRetries int
	RetryDelay time.Duration

	log logrus.FieldLogger
}

// NewRESTClient creates a client with optional proxy support.
func NewRESTClient(cfg Config, log logrus.FieldLogger) *RESTClient {
	transport := &http.Transport{}
	if cfg.ProxyURL != "" {
		if u, err := url.Parse(cfg.ProxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	retries := cfg.MaxRetries
	if retries < 1 {
		retries = 1
	}
	return &RESTClient{
		BaseURL:    cfg.BaseURL,
		APIKey:     cfg.APIKey,
		AccountID:  cfg.AccountID,
		MaxRetries: retries,
		RetryDelay: cfg.RetryDelay,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		log: log.WithField("component", "broker"),
	}
}

func (c *RESTClient) Name() string { return "rest" }

// StatusError is a non-2xx broker response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d, body: %s", e.Code, e.Body)
}

func (e *StatusError) retryable() bool {
	return e.Code >= 500 || e.Code == http.StatusTooManyRequests
}

type quoteResponse struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	Bid    float64 `json:"bid"`
	Ask    float64 `json:"ask"`
}

type orderRequest struct {
	Symbol    string  `json:"symbol"`
	Side      string  `json:"side"`
	Volume    float64 `json:"volume"`
	AccountID string  `json:"account_id,omitempty"`
}

type orderResponse struct {
	OrderID string  `json:"order_id"`
	Status  string  `json:"status"`
	Price   float64 `json:"price"`
	Message string  `json:"message"`
}

type accountResponse struct {
	Balance  float64 `json:"balance"`
	Currency string  `json:"currency"`
}

// Price returns the quote of symbol, using the bid/ask midpoint when the
// broker omits a last price.
func (c *RESTClient) Price(ctx context.Context, symbol string) (float64, error) {
	var q quoteResponse
	endpoint := fmt.Sprintf("%s/v1/prices/%s", c.BaseURL, url.PathEscape(symbol))
	if err := c.doWithRetry(ctx, http.MethodGet, endpoint, nil, &q); err != nil {
		return 0, errors.Wrapf(err, "fetch price %s", symbol)
	}
	price := q.Price
	if price == 0 && q.Bid > 0 && q.Ask > 0 {
		price = (q.Bid + q.Ask) / 2
	}
	if price <= 0 {
		return 0, errors.Errorf("fetch price %s: no usable quote", symbol)
	}
	return price, nil
}

// Submit places a market order. It never returns an error; failures are
// carried in the result.
func (c *RESTClient) Submit(ctx context.Context, symbol string, side model.Side, volume float64) model.OrderResult {
	body := orderRequest{Symbol: symbol, Side: string(side), Volume: volume, AccountID: c.AccountID}
	var resp orderResponse
	if err := c.doWithRetry(ctx, http.MethodPost, c.BaseURL+"/v1/orders", body, &resp); err != nil {
		return model.OrderResult{Success: false, Message: errors.Wrap(err, "submit order").Error()}
	}
	if resp.Status == "rejected" {
		msg := resp.Message
		if msg == "" {
			msg = "order rejected"
		}
		return model.OrderResult{Success: false, Message: msg, OrderID: resp.OrderID}
	}
	msg := resp.Message
	if msg == "" {
		msg = fmt.Sprintf("%s %s %.2f %s", resp.Status, side, volume, symbol)
	}
	return model.OrderResult{Success: true, Message: msg, OrderID: resp.OrderID, Price: resp.Price}
}

// Balance returns the account balance.
func (c *RESTClient) Balance(ctx context.Context) (float64, error) {
	var a accountResponse
	if err := c.doWithRetry(ctx, http.MethodGet, c.BaseURL+"/v1/account", nil, &a); err != nil {
		return 0, errors.Wrap(err, "fetch balance")
	}
	return a.Balance, nil
}

// doWithRetry retries transport errors and retryable statuses, waiting
// RetryDelay between attempts.
func (c *RESTClient) doWithRetry(ctx context.Context, method, endpoint string, in, out interface{}) error {
	var err error
	for i := 0; i < c.MaxRetries; i++ {
		err = c.do(ctx, method, endpoint, in, out)
		if err == nil {
			return nil
		}
		var se *StatusError
		if errors.As(err, &se) && !se.retryable() {
			return err
		}
		if ctx.Err() != nil || i == c.MaxRetries-1 {
			break
		}
		c.log.WithError(err).Warnf("request %s %s failed, retrying in %v...", method, endpoint, c.RetryDelay)
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "request cancelled")
		case <-time.After(c.RetryDelay):
		}
	}
	return errors.Wrapf(err, "after %d attempts", c.MaxRetries)
}

func (c *RESTClient) do(ctx context.Context, method, endpoint string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return errors.Wrap(err, "send request")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode, Body: string(data)}
	}
	if out == nil {
		return nil
	}
	return errors.Wrap(json.Unmarshal(data, out), "decode response")
}

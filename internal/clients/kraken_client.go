package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/krakendca/internal/domain"
	"github.com/vadiminshakov/krakendca/pkg/krakenauth"
)

const (
	// DefaultKrakenBaseURL production REST endpoint.
	DefaultKrakenBaseURL = "https://api.kraken.com"

	defaultPublicTimeout  = 15 * time.Second
	defaultPrivateTimeout = 30 * time.Second

	pathSystemStatus = "/0/public/SystemStatus"
	pathTicker       = "/0/public/Ticker"
	pathBalance      = "/0/private/Balance"
	pathAddOrder     = "/0/private/AddOrder"

	userAgent = "krakendca/1.0"

	// volumePrecision Kraken accepts up to 8 decimals for asset volumes.
	volumePrecision = 8

	maxErrorBodyLen = 300
)

// KrakenClient talks to Kraken's public and private REST API.
// It never retries: a failed call is reported and the caller decides what to do.
type KrakenClient struct {
	http           *resty.Client
	apiKey         string
	secret         []byte
	nonces         *krakenauth.NonceSource
	baseURL        string
	publicTimeout  time.Duration
	privateTimeout time.Duration
	l              *zap.Logger
}

// KrakenOption configures a KrakenClient.
type KrakenOption func(*KrakenClient)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(url string) KrakenOption {
	return func(c *KrakenClient) {
		if url != "" {
			c.baseURL = strings.TrimSuffix(url, "/")
		}
	}
}

// WithPublicTimeout sets the timeout of public calls.
func WithPublicTimeout(d time.Duration) KrakenOption {
	return func(c *KrakenClient) {
		c.publicTimeout = d
	}
}

// WithPrivateTimeout sets the timeout of signed calls.
func WithPrivateTimeout(d time.Duration) KrakenOption {
	return func(c *KrakenClient) {
		c.privateTimeout = d
	}
}

// WithNonceSource shares a nonce source between clients using the same key.
func WithNonceSource(src *krakenauth.NonceSource) KrakenOption {
	return func(c *KrakenClient) {
		c.nonces = src
	}
}

// WithLogger sets the logger used for transport diagnostics.
func WithLogger(l *zap.Logger) KrakenOption {
	return func(c *KrakenClient) {
		c.l = l
	}
}

// NewKrakenClient creates a client authenticated with creds.
func NewKrakenClient(creds domain.Credentials, opts ...KrakenOption) (*KrakenClient, error) {
	if creds.APIKey == "" {
		return nil, errors.New("kraken api key is empty")
	}
	secret, err := krakenauth.DecodeSecret(creds.APISecret)
	if err != nil {
		return nil, err
	}

	c := &KrakenClient{
		apiKey:         creds.APIKey,
		secret:         secret,
		nonces:         krakenauth.NewNonceSource(),
		baseURL:        DefaultKrakenBaseURL,
		publicTimeout:  defaultPublicTimeout,
		privateTimeout: defaultPrivateTimeout,
		l:              zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.http = resty.New().
		SetBaseURL(c.baseURL).
		SetRetryCount(0).
		SetHeader("User-Agent", userAgent).
		SetLogger(c.l.Sugar())

	return c, nil
}

// BaseURL returns the API endpoint in use.
func (c *KrakenClient) BaseURL() string {
	return c.baseURL
}

type krakenEnvelope struct {
	Error  []string        `json:"error"`
	Result json.RawMessage `json:"result"`
}

type systemStatusResult struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

type tickerEntry struct {
	// Ask [price, whole lot volume, lot volume]
	Ask []string `json:"a"`
}

type addOrderResult struct {
	Descr struct {
		Order string `json:"order"`
	} `json:"descr"`
	TxID []string `json:"txid"`
}

// SystemStatus returns the exchange status string, "online" when trading is open.
func (c *KrakenClient) SystemStatus(ctx context.Context) (string, error) {
	var res systemStatusResult
	if err := c.public(ctx, "SystemStatus", pathSystemStatus, nil, &res); err != nil {
		return "", err
	}
	if res.Status == "" {
		return "", &domain.DataError{Op: "SystemStatus", Reason: "status is missing"}
	}
	return res.Status, nil
}

// AskPrice returns the best ask for pair.
func (c *KrakenClient) AskPrice(ctx context.Context, pair string) (decimal.Decimal, error) {
	var res map[string]tickerEntry
	if err := c.public(ctx, "Ticker", pathTicker, map[string]string{"pair": pair}, &res); err != nil {
		return decimal.Zero, err
	}

	entry, ok := res[pair]
	if !ok {
		return decimal.Zero, &domain.DataError{Op: "Ticker", Reason: fmt.Sprintf("pair %s not in response", pair)}
	}
	if len(entry.Ask) == 0 {
		return decimal.Zero, &domain.DataError{Op: "Ticker", Reason: fmt.Sprintf("no ask price for %s", pair)}
	}

	price, err := decimal.NewFromString(entry.Ask[0])
	if err != nil {
		return decimal.Zero, &domain.DataError{Op: "Ticker", Reason: fmt.Sprintf("ask price %q for %s", entry.Ask[0], pair), Err: err}
	}
	return price, nil
}

// Balance returns all non-empty account balances keyed by Kraken asset code.
func (c *KrakenClient) Balance(ctx context.Context) (map[string]decimal.Decimal, error) {
	var res map[string]string
	if err := c.private(ctx, "Balance", pathBalance, nil, &res); err != nil {
		return nil, err
	}

	balances := make(map[string]decimal.Decimal, len(res))
	for asset, raw := range res {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, &domain.DataError{Op: "Balance", Reason: fmt.Sprintf("balance %q for %s", raw, asset), Err: err}
		}
		balances[asset] = amount
	}
	return balances, nil
}

// AddMarketBuyOrder submits a market buy of volume on pair.
//
// An error list in the response is not a Go error: it comes back as the ExchangeError
// variant of the result. The returned error covers transport and decoding failures only.
func (c *KrakenClient) AddMarketBuyOrder(ctx context.Context, pair string, volume decimal.Decimal) (domain.OrderResult, error) {
	form := krakenauth.Form{}.
		Add("ordertype", "market").
		Add("type", "buy").
		Add("volume", volume.StringFixed(volumePrecision)).
		Add("pair", pair)

	var res addOrderResult
	err := c.private(ctx, "AddOrder", pathAddOrder, form, &res)
	if err != nil {
		var exErr *domain.ExchangeError
		if errors.As(err, &exErr) {
			return domain.NewExchangeErrorResult(exErr.Messages), nil
		}
		return domain.OrderResult{}, err
	}

	return domain.NewSuccessResult(res.TxID, res.Descr.Order), nil
}

func (c *KrakenClient) public(ctx context.Context, op, path string, query map[string]string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.publicTimeout)
	defer cancel()

	req := c.http.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}

	resp, err := req.Get(path)
	if err != nil {
		return &domain.NetworkError{Op: op, Err: err}
	}
	return decodeEnvelope(op, resp, out)
}

func (c *KrakenClient) private(ctx context.Context, op, path string, form krakenauth.Form, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.privateTimeout)
	defer cancel()

	signed := krakenauth.NewSignedRequest(c.secret, path, c.nonces.Next(), form)

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("API-Key", c.apiKey).
		SetHeader("API-Sign", signed.Signature).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetBody(signed.Body).
		Post(path)
	if err != nil {
		return &domain.NetworkError{Op: op, Err: err}
	}
	return decodeEnvelope(op, resp, out)
}

// decodeEnvelope turns Kraken's {error, result} envelope into typed data or a typed error.
func decodeEnvelope(op string, resp *resty.Response, out any) error {
	body := resp.Body()

	var env krakenEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		if resp.IsError() {
			return &domain.NetworkError{Op: op, Err: fmt.Errorf("HTTP %d: %s", resp.StatusCode(), truncate(string(body)))}
		}
		return &domain.DataError{Op: op, Reason: "response is not JSON", Err: err}
	}

	if len(env.Error) > 0 {
		return &domain.ExchangeError{Op: op, Messages: env.Error}
	}
	if resp.IsError() {
		return &domain.NetworkError{Op: op, Err: fmt.Errorf("HTTP %d", resp.StatusCode())}
	}

	if out == nil {
		return nil
	}
	if len(env.Result) == 0 || string(env.Result) == "null" {
		return &domain.DataError{Op: op, Reason: "result is missing"}
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return &domain.DataError{Op: op, Reason: "unexpected result shape", Err: err}
	}
	return nil
}

func truncate(s string) string {
	if len(s) <= maxErrorBodyLen {
		return s
	}
	return s[:maxErrorBodyLen]
}

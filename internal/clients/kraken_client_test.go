package clients

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/krakendca/internal/domain"
	"github.com/vadiminshakov/krakendca/pkg/krakenauth"
)

const (
	testAPIKey = "test-key"
	// base64 of "super-secret-key-bytes"
	testSecret = "c3VwZXItc2VjcmV0LWtleS1ieXRlcw=="
)

// capturedRequest what the fake exchange saw for a private call.
type capturedRequest struct {
	path      string
	body      string
	apiKey    string
	signature string
	validSig  bool
}

type fakeKraken struct {
	t        *testing.T
	mu       sync.Mutex
	requests []capturedRequest
	routes   map[string]string
	status   map[string]int
}

func newFakeKraken(t *testing.T, routes map[string]string) (*fakeKraken, *httptest.Server) {
	f := &fakeKraken{t: t, routes: routes, status: map[string]int{}}
	srv := httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeKraken) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		raw, err := io.ReadAll(r.Body)
		assert.NoError(f.t, err)
		body := string(raw)

		values, err := url.ParseQuery(body)
		assert.NoError(f.t, err)
		secret, err := krakenauth.DecodeSecret(testSecret)
		assert.NoError(f.t, err)
		expected := krakenauth.Sign(secret, values.Get("nonce"), body, r.URL.Path)

		f.mu.Lock()
		f.requests = append(f.requests, capturedRequest{
			path:      r.URL.Path,
			body:      body,
			apiKey:    r.Header.Get("API-Key"),
			signature: r.Header.Get("API-Sign"),
			validSig:  expected == r.Header.Get("API-Sign"),
		})
		f.mu.Unlock()
	}

	key := r.URL.Path
	if q := r.URL.Query().Get("pair"); q != "" {
		key += "?pair=" + q
	}
	payload, ok := f.routes[key]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":["EGeneral:Unknown method"]}`))
		return
	}
	if code, ok := f.status[key]; ok {
		w.WriteHeader(code)
	}
	_, _ = w.Write([]byte(payload))
}

func (f *fakeKraken) captured() []capturedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]capturedRequest(nil), f.requests...)
}

func newTestClient(t *testing.T, baseURL string, opts ...KrakenOption) *KrakenClient {
	opts = append([]KrakenOption{WithBaseURL(baseURL)}, opts...)
	c, err := NewKrakenClient(domain.Credentials{APIKey: testAPIKey, APISecret: testSecret}, opts...)
	require.NoError(t, err)
	return c
}

func TestNewKrakenClient_InvalidCredentials(t *testing.T) {
	_, err := NewKrakenClient(domain.Credentials{APIKey: "", APISecret: testSecret})
	assert.Error(t, err)

	_, err = NewKrakenClient(domain.Credentials{APIKey: testAPIKey, APISecret: "%%%"})
	assert.Error(t, err)
}

func TestKrakenClient_SystemStatus(t *testing.T) {
	_, srv := newFakeKraken(t, map[string]string{
		pathSystemStatus: `{"error":[],"result":{"status":"online","timestamp":"2026-10-17T08:00:00Z"}}`,
	})
	c := newTestClient(t, srv.URL)

	status, err := c.SystemStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "online", status)
}

func TestKrakenClient_SystemStatus_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	c := newTestClient(t, baseURL)
	_, err := c.SystemStatus(context.Background())

	var netErr *domain.NetworkError
	require.True(t, errors.As(err, &netErr), "expected NetworkError, got %v", err)
	assert.Equal(t, "SystemStatus", netErr.Op)
}

func TestKrakenClient_AskPrice(t *testing.T) {
	_, srv := newFakeKraken(t, map[string]string{
		pathTicker + "?pair=XBTEUR": `{"error":[],"result":{"XBTEUR":{"a":["50000.10000","1","1.000"],"b":["49999.9","2","2.000"]}}}`,
	})
	c := newTestClient(t, srv.URL)

	price, err := c.AskPrice(context.Background(), "XBTEUR")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("50000.1")), "got %s", price)

	// stable backend, stable answer
	again, err := c.AskPrice(context.Background(), "XBTEUR")
	require.NoError(t, err)
	assert.True(t, price.Equal(again))
}

func TestKrakenClient_AskPrice_PairMissing(t *testing.T) {
	_, srv := newFakeKraken(t, map[string]string{
		pathTicker + "?pair=XBTEUR": `{"error":[],"result":{"XXBTZEUR":{"a":["50000.0","1","1.000"]}}}`,
	})
	c := newTestClient(t, srv.URL)

	_, err := c.AskPrice(context.Background(), "XBTEUR")
	var dataErr *domain.DataError
	require.True(t, errors.As(err, &dataErr), "expected DataError, got %v", err)
	assert.Contains(t, dataErr.Reason, "XBTEUR")
}

func TestKrakenClient_AskPrice_BadValues(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "empty ask list", payload: `{"error":[],"result":{"XBTEUR":{"a":[]}}}`},
		{name: "non numeric ask", payload: `{"error":[],"result":{"XBTEUR":{"a":["abc","1","1"]}}}`},
		{name: "result missing", payload: `{"error":[]}`},
		{name: "not json", payload: `<html>oops</html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, srv := newFakeKraken(t, map[string]string{pathTicker + "?pair=XBTEUR": tt.payload})
			c := newTestClient(t, srv.URL)

			_, err := c.AskPrice(context.Background(), "XBTEUR")
			var dataErr *domain.DataError
			assert.True(t, errors.As(err, &dataErr), "expected DataError, got %v", err)
		})
	}
}

func TestKrakenClient_AskPrice_UnknownPair(t *testing.T) {
	_, srv := newFakeKraken(t, map[string]string{
		pathTicker + "?pair=FOOBAR": `{"error":["EQuery:Unknown asset pair"]}`,
	})
	c := newTestClient(t, srv.URL)

	_, err := c.AskPrice(context.Background(), "FOOBAR")
	var exErr *domain.ExchangeError
	require.True(t, errors.As(err, &exErr))
	assert.Equal(t, []string{"EQuery:Unknown asset pair"}, exErr.Messages)
}

func TestKrakenClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL, WithPublicTimeout(50*time.Millisecond), WithPrivateTimeout(50*time.Millisecond))

	_, err := c.AskPrice(context.Background(), "XBTEUR")
	var netErr *domain.NetworkError
	require.True(t, errors.As(err, &netErr), "expected NetworkError, got %v", err)

	_, err = c.AddMarketBuyOrder(context.Background(), "XBTEUR", decimal.RequireFromString("0.002"))
	require.True(t, errors.As(err, &netErr), "expected NetworkError, got %v", err)
	assert.Equal(t, "AddOrder", netErr.Op)
}

func TestKrakenClient_HTTPErrorWithoutJSON(t *testing.T) {
	f, srv := newFakeKraken(t, map[string]string{pathSystemStatus: `<html>bad gateway</html>`})
	f.status[pathSystemStatus] = http.StatusBadGateway
	c := newTestClient(t, srv.URL)

	_, err := c.SystemStatus(context.Background())
	var netErr *domain.NetworkError
	require.True(t, errors.As(err, &netErr), "expected NetworkError, got %v", err)
	assert.Contains(t, err.Error(), "502")
}

func TestKrakenClient_Balance(t *testing.T) {
	f, srv := newFakeKraken(t, map[string]string{
		pathBalance: `{"error":[],"result":{"ZEUR":"1234.5678","XXBT":"0.01000000"}}`,
	})
	c := newTestClient(t, srv.URL)

	balances, err := c.Balance(context.Background())
	require.NoError(t, err)
	assert.True(t, balances["ZEUR"].Equal(decimal.RequireFromString("1234.5678")))
	assert.True(t, balances["XXBT"].Equal(decimal.RequireFromString("0.01")))

	reqs := f.captured()
	require.Len(t, reqs, 1)
	assert.Equal(t, pathBalance, reqs[0].path)
	assert.Equal(t, testAPIKey, reqs[0].apiKey)
	assert.True(t, reqs[0].validSig, "signature must verify on the server side")
	assert.Regexp(t, `^nonce=\d+$`, reqs[0].body)
}

func TestKrakenClient_Balance_AuthError(t *testing.T) {
	_, srv := newFakeKraken(t, map[string]string{
		pathBalance: `{"error":["EAPI:Invalid signature"]}`,
	})
	c := newTestClient(t, srv.URL)

	_, err := c.Balance(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAuth))
}

func TestKrakenClient_AddMarketBuyOrder(t *testing.T) {
	f, srv := newFakeKraken(t, map[string]string{
		pathAddOrder: `{"error":[],"result":{"descr":{"order":"buy 0.00200000 XBTEUR @ market"},"txid":["OUF4EM-FRGI2-MQMWZD"]}}`,
	})
	c := newTestClient(t, srv.URL)

	res, err := c.AddMarketBuyOrder(context.Background(), "XBTEUR", decimal.RequireFromString("0.002"))
	require.NoError(t, err)
	assert.Equal(t, domain.OrderKindSuccess, res.Kind)
	assert.Equal(t, []string{"OUF4EM-FRGI2-MQMWZD"}, res.TxIDs)
	assert.Equal(t, "buy 0.00200000 XBTEUR @ market", res.Description)

	reqs := f.captured()
	require.Len(t, reqs, 1)
	assert.True(t, reqs[0].validSig)
	assert.Regexp(t, `^nonce=\d+&ordertype=market&type=buy&volume=0\.00200000&pair=XBTEUR$`, reqs[0].body)
}

func TestKrakenClient_AddMarketBuyOrder_ExchangeError(t *testing.T) {
	_, srv := newFakeKraken(t, map[string]string{
		pathAddOrder: `{"error":["EOrder:Insufficient funds"]}`,
	})
	c := newTestClient(t, srv.URL)

	res, err := c.AddMarketBuyOrder(context.Background(), "XBTEUR", decimal.RequireFromString("0.002"))
	require.NoError(t, err)
	assert.Equal(t, domain.OrderKindExchangeError, res.Kind)
	assert.Equal(t, []string{"EOrder:Insufficient funds"}, res.Errors)
}

func TestKrakenClient_NoncesIncreaseAcrossCalls(t *testing.T) {
	f, srv := newFakeKraken(t, map[string]string{
		pathBalance: `{"error":[],"result":{"ZEUR":"1"}}`,
	})
	c := newTestClient(t, srv.URL)

	for i := 0; i < 5; i++ {
		_, err := c.Balance(context.Background())
		require.NoError(t, err)
	}

	var prev string
	for _, req := range f.captured() {
		values, err := url.ParseQuery(req.body)
		require.NoError(t, err)
		nonce := values.Get("nonce")
		if prev != "" {
			assert.True(t, decimal.RequireFromString(nonce).GreaterThan(decimal.RequireFromString(prev)),
				"nonce %s must be greater than %s", nonce, prev)
		}
		prev = nonce
	}
}

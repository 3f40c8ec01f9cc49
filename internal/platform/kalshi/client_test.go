package kalshi

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosslisted/arbscan/internal/domain"
)

func testKeyPEM(t *testing.T) (*rsa.PrivateKey, []byte) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
	return key, pemBytes
}

func TestSignedRequestHeaders(t *testing.T) {
	key, pemBytes := testKeyPEM(t)

	var got struct{ path, ts, sig, keyID string }
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.path = r.URL.Path + "?" + r.URL.RawQuery
		got.ts = r.Header.Get("KALSHI-ACCESS-TIMESTAMP")
		got.sig = r.Header.Get("KALSHI-ACCESS-SIGNATURE")
		got.keyID = r.Header.Get("KALSHI-ACCESS-KEY")
		w.Write([]byte(`{"markets":[],"cursor":""}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key-id-1")
	require.NoError(t, c.SetRSAPrivateKey(pemBytes))

	_, err := c.GetOpenMarkets(context.Background(), 100)
	require.NoError(t, err)

	assert.Equal(t, "key-id-1", got.keyID)
	require.NotEmpty(t, got.ts)
	require.NotEmpty(t, got.sig)

	message := got.ts + http.MethodGet + got.path
	hash := sha256.Sum256([]byte(message))
	sig, err := base64.StdEncoding.DecodeString(got.sig)
	require.NoError(t, err)
	require.NoError(t, rsa.VerifyPSS(&key.PublicKey, crypto.SHA256, hash[:], sig, &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
	}))
}

func TestGetOpenMarketsFollowsCursor(t *testing.T) {
	_, pemBytes := testKeyPEM(t)

	pages := []struct {
		cursor  string
		markets []KalshiMarket
	}{
		{cursor: "next", markets: []KalshiMarket{{Ticker: "A"}, {Ticker: "B"}}},
		{cursor: "", markets: []KalshiMarket{{Ticker: "C"}}},
	}
	var calls int
	var cursors []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cursors = append(cursors, r.URL.Query().Get("cursor"))
		assert.Equal(t, "open", r.URL.Query().Get("status"))
		page := pages[calls]
		calls++
		json.NewEncoder(w).Encode(map[string]any{
			"markets": page.markets,
			"cursor":  page.cursor,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key-id-1")
	require.NoError(t, c.SetRSAPrivateKey(pemBytes))

	markets, err := c.GetOpenMarkets(context.Background(), 200)
	require.NoError(t, err)
	require.Len(t, markets, 3)
	assert.Equal(t, []string{"", "next"}, cursors)
}

func TestGetOpenMarketsUnauthorized(t *testing.T) {
	_, pemBytes := testKeyPEM(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":"unauthorized","message":"bad signature"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key-id-1")
	require.NoError(t, c.SetRSAPrivateKey(pemBytes))

	_, err := c.GetOpenMarkets(context.Background(), 100)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestGetOpenMarketsCancelledContext(t *testing.T) {
	_, pemBytes := testKeyPEM(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"markets":[],"cursor":""}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key-id-1")
	require.NoError(t, c.SetRSAPrivateKey(pemBytes))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.GetOpenMarkets(ctx, 100)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrContextDone)
}

func TestSignRequestWithoutKey(t *testing.T) {
	c := NewClient("http://localhost", "key-id-1")
	_, err := c.GetOpenMarkets(context.Background(), 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "private key not configured")
}

func TestSourceNormalizesAndFilters(t *testing.T) {
	_, pemBytes := testKeyPEM(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"markets": []KalshiMarket{
				{
					Ticker:    "RAIN-SEA-26MAR06",
					Title:     "Rain in Seattle",
					Subtitle:  "on Friday",
					Status:    "open",
					YesAsk:    42,
					NoAsk:     60,
					CloseTime: "2026-03-03T00:00:00Z",
				},
				{
					Ticker:    "FAROUT-28",
					Title:     "Too far out",
					Status:    "open",
					YesAsk:    50,
					NoAsk:     52,
					CloseTime: "2026-06-01T00:00:00Z",
				},
				{
					Ticker:    "NOPRICES",
					Title:     "Quoteless",
					Status:    "open",
					CloseTime: "2026-03-02T00:00:00Z",
				},
				{
					Ticker:    "YESONLY",
					Title:     "One sided",
					Status:    "open",
					YesBid:    30,
					CloseTime: "2026-03-02T00:00:00Z",
				},
			},
			"cursor": "",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key-id-1")
	require.NoError(t, c.SetRSAPrivateKey(pemBytes))

	now := func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	src := NewSource(c, SourceOptions{
		PageLimit:         200,
		MaxResolutionDays: 3,
		FeeRate:           0.01,
	}, now, slog.New(slog.DiscardHandler))

	assert.Equal(t, domain.PlatformKalshi, src.Platform())

	markets, err := src.FetchOpenBinaryMarkets(context.Background())
	require.NoError(t, err)
	require.Len(t, markets, 2)

	m := markets[0]
	assert.Equal(t, "RAIN-SEA-26MAR06", m.ID)
	assert.Equal(t, "Rain in Seattle on Friday", m.Title)
	assert.InDelta(t, 0.42, m.YesPrice, 1e-9)
	assert.InDelta(t, 0.60, m.NoPrice, 1e-9)
	assert.InDelta(t, 0.01, m.FeeRate, 1e-9)
	require.NotNil(t, m.ResolutionDate)
	assert.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), m.ResolutionDate.UTC())
	assert.Equal(t, "https://kalshi.com/markets/RAIN-SEA-26MAR06", m.URL)

	oneSided := markets[1]
	assert.Equal(t, "YESONLY", oneSided.ID)
	assert.InDelta(t, 0.30, oneSided.YesPrice, 1e-9)
	assert.InDelta(t, 0.70, oneSided.NoPrice, 1e-9, "missing side inferred as complement")
}

func TestNormalizePrices(t *testing.T) {
	tests := []struct {
		name    string
		market  KalshiMarket
		wantYes float64
		wantNo  float64
		wantOK  bool
	}{
		{"both asks", KalshiMarket{YesAsk: 40, NoAsk: 62}, 0.40, 0.62, true},
		{"ask preferred over bid", KalshiMarket{YesAsk: 40, YesBid: 38, NoAsk: 62}, 0.40, 0.62, true},
		{"bid fallback", KalshiMarket{YesBid: 38, NoBid: 60}, 0.38, 0.60, true},
		{"no quotes", KalshiMarket{}, 0, 0, false},
		{"infer no from yes", KalshiMarket{YesAsk: 25}, 0.25, 0.75, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yes, no, ok := normalizePrices(&tt.market)
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.InDelta(t, tt.wantYes, yes, 1e-9)
				assert.InDelta(t, tt.wantNo, no, 1e-9)
			}
		})
	}
}

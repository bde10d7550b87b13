package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	s := NewService(zap.NewNop())
	s.baseURL = server.URL
	return s
}

func TestGetPrice(t *testing.T) {
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"schemaVersion": "1.0.0",
			"pairs": [
				{"priceUsd": "0.0042", "liquidity": {"usd": 120.5}},
				{"priceUsd": "0.0044", "liquidity": {"usd": 900.0}}
			]
		}`))
	})

	price, err := s.GetPrice(context.Background(), "So11111111111111111111111111111111111111112")
	require.NoError(t, err)
	// Deepest pair wins.
	assert.Equal(t, 0.0044, price)
}

func TestGetLiquidity(t *testing.T) {
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"pairs": [{"priceUsd": "1.0", "liquidity": {"usd": 75.25}}]}`))
	})

	liquidity, err := s.GetLiquidity(context.Background(), "mint")
	require.NoError(t, err)
	assert.Equal(t, 75.25, liquidity)
}

func TestGetPrice_NoPairs(t *testing.T) {
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"pairs": []}`))
	})

	_, err := s.GetPrice(context.Background(), "mint")
	assert.ErrorIs(t, err, ErrNoPairs)

	_, err = s.GetLiquidity(context.Background(), "mint")
	assert.ErrorIs(t, err, ErrNoPairs)
}

func TestGetPrice_BadPayloads(t *testing.T) {
	testCases := []struct {
		name string
		body string
		code int
	}{
		{name: "malformed json", body: `{"pairs": [`, code: http.StatusOK},
		{name: "unparsable price", body: `{"pairs": [{"priceUsd": "n/a", "liquidity": {"usd": 100}}]}`, code: http.StatusOK},
		{name: "zero price", body: `{"pairs": [{"priceUsd": "0", "liquidity": {"usd": 100}}]}`, code: http.StatusOK},
		{name: "server error", body: `oops`, code: http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.code)
				_, _ = w.Write([]byte(tc.body))
			})

			_, err := s.GetPrice(context.Background(), "mint")
			assert.Error(t, err)
		})
	}
}

func TestDoRequest_ContextCancelled(t *testing.T) {
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"pairs": []}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.GetPrice(ctx, "mint")
	assert.Error(t, err)
}

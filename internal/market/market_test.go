package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	t.Run("well-formed quote", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/query", r.URL.Path)
			assert.Equal(t, "GLOBAL_QUOTE", r.URL.Query().Get("function"))
			assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
			assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"Global Quote": {"01. symbol": "AAPL", "05. price": "187.4400"}}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "test-key")
		q, err := c.Lookup(context.Background(), "AAPL")
		require.NoError(t, err)
		assert.Equal(t, "AAPL", q.Symbol)
		assert.Equal(t, 187.44, q.Price)
	})

	t.Run("unknown symbol yields empty payload", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"Global Quote": {}}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "test-key")
		_, err := c.Lookup(context.Background(), "BOGUS")
		assert.ErrorIs(t, err, ErrQuoteNotFound)
	})

	t.Run("non-2xx collapses to not found", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "test-key")
		_, err := c.Lookup(context.Background(), "AAPL")
		assert.ErrorIs(t, err, ErrQuoteNotFound)
	})

	t.Run("transport failure collapses to not found", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close() // connection refused from here on

		c := NewClient(srv.URL, "test-key")
		_, err := c.Lookup(context.Background(), "AAPL")
		assert.ErrorIs(t, err, ErrQuoteNotFound)
	})

	t.Run("malformed price collapses to not found", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"Global Quote": {"01. symbol": "AAPL", "05. price": "n/a"}}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "test-key")
		_, err := c.Lookup(context.Background(), "AAPL")
		assert.ErrorIs(t, err, ErrQuoteNotFound)
	})
}

func TestHistory(t *testing.T) {
	t.Run("daily series newest first", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "TIME_SERIES_DAILY", r.URL.Query().Get("function"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"Time Series (Daily)": {
				"2026-08-25": {"4. close": "100.50"},
				"2026-08-27": {"4. close": "102.00"},
				"2026-08-26": {"4. close": "101.25"}
			}}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "test-key")
		prices, err := c.History(context.Background(), "AAPL")
		require.NoError(t, err)
		require.Len(t, prices, 3)
		assert.Equal(t, 102.00, prices[0].Close)
		assert.Equal(t, 101.25, prices[1].Close)
		assert.Equal(t, 100.50, prices[2].Close)
		assert.True(t, prices[0].Date.After(prices[1].Date))
	})

	t.Run("empty series collapses to not found", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "test-key")
		_, err := c.History(context.Background(), "BOGUS")
		assert.ErrorIs(t, err, ErrQuoteNotFound)
	})
}

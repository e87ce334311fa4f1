package rates_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SscSPs/personal_ledger_app/internal/clients/rates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchRates_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/USD", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"base":"USD","rates":{"EUR":0.85,"JPY":147.2}}`))
	}))
	defer server.Close()

	client := rates.NewClient(server.URL, 0)
	table, err := client.FetchRates(context.Background(), "usd")
	require.NoError(t, err)
	require.Len(t, table, 2)
	assert.Equal(t, "0.85", table["EUR"].String())
	assert.Equal(t, "147.2", table["JPY"].String())
}

func TestFetchRates_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := rates.NewClient(server.URL, 0)
	_, err := client.FetchRates(context.Background(), "USD")
	require.Error(t, err)

	var statusErr *rates.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Contains(t, err.Error(), "503")
}

func TestFetchRates_NonJSONContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	}))
	defer server.Close()

	client := rates.NewClient(server.URL, 0)
	_, err := client.FetchRates(context.Background(), "USD")
	require.Error(t, err)

	var ctErr *rates.ContentTypeError
	require.True(t, errors.As(err, &ctErr))
	assert.Contains(t, err.Error(), "text/html")
}

func TestFetchRates_EmptyTable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"base":"USD","rates":{}}`))
	}))
	defer server.Close()

	client := rates.NewClient(server.URL, 0)
	_, err := client.FetchRates(context.Background(), "USD")
	assert.Error(t, err)
}

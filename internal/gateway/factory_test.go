package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NivraSD/SignalDesk-sub005/internal/config"
)

func TestNew(t *testing.T) {
	t.Run("defaults to rest", func(t *testing.T) {
		gen, err := New(context.Background(), config.GatewayConfig{
			BaseURL: "http://localhost:3001",
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, "rest", gen.Name())
	})

	t.Run("gemini requires an API key", func(t *testing.T) {
		_, err := New(context.Background(), config.GatewayConfig{
			Provider: "gemini",
		}, nil)
		assert.Error(t, err)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := New(context.Background(), config.GatewayConfig{
			Provider: "carrier-pigeon",
		}, nil)
		assert.ErrorContains(t, err, "unknown gateway provider")
	})

	t.Run("invalid timeout", func(t *testing.T) {
		_, err := New(context.Background(), config.GatewayConfig{
			BaseURL: "http://localhost:3001",
			Timeout: "soon",
		}, nil)
		assert.ErrorContains(t, err, "invalid gateway timeout")
	})
}

func TestCheckProviders(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(healthy.Close)

	unhealthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(unhealthy.Close)

	good, err := NewRESTClient(Config{BaseURL: healthy.URL})
	require.NoError(t, err)
	bad, err := NewRESTClient(Config{BaseURL: unhealthy.URL})
	require.NoError(t, err)

	statuses := CheckProviders(context.Background(), []Generator{good, bad})
	require.Len(t, statuses, 2)
	assert.NoError(t, statuses[0].Err)
	assert.Error(t, statuses[1].Err)

	report := Describe(statuses)
	assert.Contains(t, report, "ok")
	assert.Contains(t, report, "unreachable")
}

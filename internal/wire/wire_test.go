package wire

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"z-book-agent/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "z-book-agent", Version: "test", Env: "test"},
		LLM: config.LLMConfig{Vendors: map[string]config.VendorConfig{
			"deepseek": {APIKey: "sk-test", BaseURL: "http://127.0.0.1:1/v1", Model: "deepseek-chat"},
		}},
		Observability: config.ObservabilityConfig{
			Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
		},
	}
}

func TestInitializeAppWithoutRedis(t *testing.T) {
	gin.SetMode(gin.TestMode)

	app, cleanup, err := InitializeApp(context.Background(), testConfig())
	require.NoError(t, err)
	defer cleanup()

	for path, want := range map[string]int{
		"/health":     http.StatusOK,
		"/live":       http.StatusOK,
		"/ready":      http.StatusOK,
		"/metrics":    http.StatusOK,
		"/v1/vendors": http.StatusOK,
	} {
		w := httptest.NewRecorder()
		app.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, w.Code, path)
	}

	w := httptest.NewRecorder()
	app.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/workflows/run-1/replay", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestOptionalProvidersReturnUntypedNil(t *testing.T) {
	assert.Nil(t, ProvideVendorLimiter(nil))
	assert.Nil(t, ProvideAPILimiter(nil))
	assert.Nil(t, ProvideOutlineCache(nil))
	assert.Nil(t, ProvideRunPublisher(nil, testConfig()))
}

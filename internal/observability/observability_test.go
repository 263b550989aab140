package observability

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/assetdesk/asset-service/internal/config"
)

func TestNewLoggerFallsBackOnUnknownLevel(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "chatty"}, config.AppConfig{Name: "asset-service", Env: "test"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
}

func TestRequestLoggerRecordsMetrics(t *testing.T) {
	metrics := NewMetrics()
	app := fiber.New()
	app.Use(RequestLogger(zap.NewNop(), metrics))
	app.Get("/assets/:id", func(c *fiber.Ctx) error {
		return c.SendString(RequestID(c))
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	req := httptest.NewRequest(fiber.MethodGet, "/assets/42", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "req-1", string(body))
	assert.Equal(t, "req-1", resp.Header.Get(RequestIDHeader))

	metrics.RecordWorkflow("deploy", nil)
	metrics.RecordWorkflow("deploy", errors.New("x"))
	metrics.RecordDepreciationBatch(3, 1, 0)
	metrics.RecordJob("depreciation", true, time.Second)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	scrape, _ := io.ReadAll(resp.Body)
	text := string(scrape)
	assert.True(t, strings.Contains(text, `asset_service_http_requests_total{method="GET",path="/assets/:id",status="200"} 1`), text)
	assert.Contains(t, text, `asset_service_lifecycle_operations_total{operation="deploy",outcome="failure"} 1`)
	assert.Contains(t, text, `asset_service_depreciation_assets_total{outcome="processed"} 3`)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", "GET", 200, time.Millisecond)
		m.RecordError("/", "GET", "X")
		m.RecordWorkflow("x", nil)
		m.RecordDepreciationBatch(1, 1, 1)
		m.RecordJob("x", false, 0)
	})
}

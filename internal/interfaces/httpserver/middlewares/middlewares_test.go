package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/image-mcp/internal/infrastructure/metrics"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(), CORS(), MetricsRecorder())
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/messages/", func(c *gin.Context) { c.Status(http.StatusAccepted) })
	return r
}

func TestCORSHeadersAndPreflight(t *testing.T) {
	r := newRouter()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/messages/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/messages/", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsRecorderUsesRoutePattern(t *testing.T) {
	r := newRouter()
	counter := metrics.RequestsTotal.WithLabelValues(http.MethodPost, "/messages/", "202")
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/messages/?session_id=abc", nil))
	require.Equal(t, http.StatusAccepted, rec.Code)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestMetricsRecorderSkipsHealthChecks(t *testing.T) {
	r := newRouter()
	counter := metrics.RequestsTotal.WithLabelValues(http.MethodGet, "/healthz", "200")
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, before, testutil.ToFloat64(counter))
}

func TestPrepareSSE(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	flusher, ok := PrepareSSE(c)
	require.True(t, ok)
	require.NotNil(t, flusher)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
}

package httpserver

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/image-mcp/internal/domain/imagegen"
	"github.com/janhq/image-mcp/internal/infrastructure/config"
	"github.com/janhq/image-mcp/internal/interfaces/httpserver/routes/mcp"
	"github.com/janhq/image-mcp/internal/interfaces/mcptools"
	"github.com/janhq/image-mcp/internal/interfaces/transport"
)

type staticGenerator struct{}

func (staticGenerator) Generate(context.Context, imagegen.Request) imagegen.Result {
	return imagegen.ImageResult([]byte("img"), "image/webp")
}

func newTestServer(t *testing.T) *HTTPServer {
	t.Helper()
	cfg := &config.Config{Port: 8000, Transport: config.TransportSSE}
	dispatcher := mcptools.NewDispatcher("test", mcptools.NewGenerateImageTool(imagegen.NewService(staticGenerator{})))
	sessions := transport.NewSessionRegistry()
	route := mcp.NewMCPRoute(mcptools.NewServer(dispatcher, "test"), sessions)
	return NewHTTPServer(cfg, route, sessions)
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "image-mcp", body["service"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `jan_image_mcp_requests_total{method="GET",path="unmatched",status="404"}`)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, mcp.MessagesPath, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMessagesWithoutSession(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, mcp.MessagesPath+"?session_id="+strings.Repeat("0", 32), strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeStopsOnCancel(t *testing.T) {
	s := newTestServer(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.serveListener(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("server did not stop")
	}
}

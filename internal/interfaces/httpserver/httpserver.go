package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/janhq/image-mcp/internal/infrastructure/config"
	"github.com/janhq/image-mcp/internal/interfaces/httpserver/middlewares"
	"github.com/janhq/image-mcp/internal/interfaces/httpserver/routes/mcp"
	"github.com/janhq/image-mcp/internal/interfaces/transport"
)

const shutdownTimeout = 5 * time.Second

type HTTPServer struct {
	router   *gin.Engine
	config   *config.Config
	mcpRoute *mcp.MCPRoute
	sessions *transport.SessionRegistry
}

func NewHTTPServer(
	cfg *config.Config,
	mcpRoute *mcp.MCPRoute,
	sessions *transport.SessionRegistry,
) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middlewares.RequestLogger())
	router.Use(middlewares.CORS())
	router.Use(middlewares.MetricsRecorder())

	s := &HTTPServer{
		router:   router,
		config:   cfg,
		mcpRoute: mcpRoute,
		sessions: sessions,
	}
	s.setupRoutes()
	return s
}

func (s *HTTPServer) setupRoutes() {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "image-mcp"})
	})

	s.router.GET("/readyz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready", "service": "image-mcp", "sessions": s.sessions.Len()})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.mcpRoute.RegisterRouter(s.router)
}

// Handler exposes the router, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

// Serve listens on the configured port until ctx is cancelled, then closes
// open SSE streams and drains in-flight requests.
func (s *HTTPServer) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return err
	}
	return s.serveListener(ctx, ln)
}

func (s *HTTPServer) serveListener(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ln.Addr().String()).Str("transport", transport.NameSSE).Msg("Serving MCP over HTTP+SSE")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.sessions.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("HTTP server did not shut down cleanly")
		return srv.Close()
	}
	log.Info().Msg("HTTP server stopped")
	return nil
}

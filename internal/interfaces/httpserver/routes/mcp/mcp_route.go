package mcp

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"github.com/janhq/image-mcp/internal/interfaces/httpserver/middlewares"
	"github.com/janhq/image-mcp/internal/interfaces/httpserver/responses"
	"github.com/janhq/image-mcp/internal/interfaces/transport"
	"github.com/janhq/image-mcp/utils/platformerrors"
)

const (
	SSEPath      = "/sse"
	MessagesPath = "/messages/"
)

// MCPRoute exposes the MCP server over the legacy HTTP+SSE transport: one
// long-lived GET stream per session plus a POST endpoint for client frames.
type MCPRoute struct {
	mcpServer *mcp.Server
	sessions  *transport.SessionRegistry
}

func NewMCPRoute(server *mcp.Server, sessions *transport.SessionRegistry) *MCPRoute {
	server.AddReceivingMiddleware(sessions.BindCallContext)
	return &MCPRoute{
		mcpServer: server,
		sessions:  sessions,
	}
}

func (route *MCPRoute) RegisterRouter(router gin.IRouter) {
	router.GET(SSEPath, route.stream)
	router.POST(MessagesPath, route.postMessage)
}

// stream opens an MCP session and relays server frames as SSE events.
// @Summary Open an MCP session
// @Description Emits an `endpoint` event naming the POST URL for this session, then one `message` event per JSON-RPC frame.
// @Tags MCP API
// @Produce text/event-stream
// @Success 200 {string} string "SSE stream"
// @Router /sse [get]
func (route *MCPRoute) stream(reqCtx *gin.Context) {
	flusher, ok := middlewares.PrepareSSE(reqCtx)
	if !ok {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeInternal, "streaming not supported", "4f0c2a7e-61d8-4b3a-9e15-c8a2b7d40e63")
		return
	}

	sess := route.sessions.Open()

	ctx := platformerrors.WithSessionID(reqCtx.Request.Context(), sess.ID())
	serverSession, err := route.mcpServer.Connect(ctx, sess, nil)
	if err != nil {
		route.sessions.Release(sess.ID())
		responses.HandleError(reqCtx, platformerrors.NewError(ctx, platformerrors.LayerTransport, platformerrors.ErrorTypeInternal,
			"failed to start MCP session", err, "0d93e6b1-27a4-4c85-b0f2-5e1a9c8d7f42"), "failed to start MCP session")
		return
	}
	// Release first: it cancels in-flight calls, which serverSession.Close
	// waits on.
	defer func() {
		route.sessions.Release(sess.ID())
		serverSession.Close()
	}()

	reqCtx.Status(http.StatusOK)
	writeEvent(reqCtx.Writer, "endpoint", []byte(MessagesPath+"?session_id="+sess.ID()))
	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sess.Done():
			return
		case msg := <-sess.Outgoing():
			data, err := jsonrpc.EncodeMessage(msg)
			if err != nil {
				log.Error().Err(err).Str("session_id", sess.ID()).Msg("encode MCP frame")
				continue
			}
			writeEvent(reqCtx.Writer, "message", data)
			flusher.Flush()
		}
	}
}

// postMessage accepts one JSON-RPC frame for an open session. The reply, if
// any, is delivered on that session's stream.
// @Summary Send an MCP frame
// @Tags MCP API
// @Accept json
// @Param session_id query string true "Session id from the endpoint event"
// @Success 202 {string} string "Accepted"
// @Failure 400 {object} responses.ErrorResponse "Missing or invalid session id, or malformed frame"
// @Failure 404 {object} responses.ErrorResponse "Unknown session"
// @Router /messages/ [post]
func (route *MCPRoute) postMessage(reqCtx *gin.Context) {
	sessionID := reqCtx.Query("session_id")
	if sessionID == "" {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "session_id is required", "7a1d5c93-0e4b-4f26-a8d7-3b6e9f1c2045")
		return
	}

	parsed, err := uuid.Parse(sessionID)
	if err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "Invalid session ID", "3e6a0d2f-8b71-4c95-a4e8-d1f7b2c9065a")
		return
	}
	sessionID = strings.ReplaceAll(parsed.String(), "-", "")

	sess, ok := route.sessions.Get(sessionID)
	if !ok {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeNotFound, "Could not find session", "c5e8b2f0-9a31-4d7e-8c64-1f0b3a7d5e29")
		return
	}

	ctx := platformerrors.WithSessionID(reqCtx.Request.Context(), sessionID)

	body, err := io.ReadAll(reqCtx.Request.Body)
	if err != nil {
		responses.HandleError(reqCtx, platformerrors.NewError(ctx, platformerrors.LayerRoute, platformerrors.ErrorTypeValidation,
			"Could not read body", err, "e2b7f4a6-3c0d-4918-b5e3-7d9a1c6f0b84"), "Could not read body")
		return
	}

	msg, err := jsonrpc.DecodeMessage(body)
	if err != nil {
		responses.HandleError(reqCtx, platformerrors.NewError(ctx, platformerrors.LayerRoute, platformerrors.ErrorTypeValidation,
			"Could not parse message", err, "91f3c6d8-5b2e-4a07-9d4c-a6e0b8f2c317"), "Could not parse message")
		return
	}

	if err := sess.Deliver(ctx, msg); err != nil {
		if errors.Is(err, transport.ErrSessionClosed) {
			responses.HandleNewError(reqCtx, platformerrors.ErrorTypeNotFound, "Could not find session", "c5e8b2f0-9a31-4d7e-8c64-1f0b3a7d5e29")
			return
		}
		// Client went away before the frame was taken.
		log.Debug().Err(err).Str("session_id", sessionID).Msg("MCP frame dropped")
		reqCtx.Abort()
		return
	}

	reqCtx.String(http.StatusAccepted, "Accepted")
}

func writeEvent(w io.Writer, name string, data []byte) {
	fmt.Fprintf(w, "event: %s\n", name)
	fmt.Fprintf(w, "data: %s\n\n", data)
}

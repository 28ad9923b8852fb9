package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/image-mcp/internal/domain/imagegen"
	"github.com/janhq/image-mcp/internal/interfaces/mcptools"
	"github.com/janhq/image-mcp/internal/interfaces/transport"
)

// gatedGenerator holds "slow" prompts until release is closed. started and
// cancelled, when set, report that a slow call began and that its context
// was cancelled.
type gatedGenerator struct {
	release   chan struct{}
	once      sync.Once
	started   chan struct{}
	cancelled chan struct{}
}

func (g *gatedGenerator) Generate(ctx context.Context, req imagegen.Request) imagegen.Result {
	if req.Prompt == "slow" {
		if g.started != nil {
			close(g.started)
		}
		select {
		case <-g.release:
		case <-ctx.Done():
			if g.cancelled != nil {
				close(g.cancelled)
			}
			return imagegen.ErrorResult("Unexpected error: %v", ctx.Err())
		}
	}
	return imagegen.ImageResult([]byte(req.Prompt), req.MIMEType())
}

func (g *gatedGenerator) open() {
	g.once.Do(func() { close(g.release) })
}

func newTestRoute(t *testing.T, gen imagegen.Generator) (*httptest.Server, *transport.SessionRegistry) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dispatcher := mcptools.NewDispatcher("test", mcptools.NewGenerateImageTool(imagegen.NewService(gen)))
	sessions := transport.NewSessionRegistry()
	route := NewMCPRoute(mcptools.NewServer(dispatcher, "test"), sessions)

	router := gin.New()
	route.RegisterRouter(router)

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		sessions.CloseAll()
		srv.Close()
	})
	return srv, sessions
}

type sseEvent struct {
	name string
	data string
}

func readEvent(t *testing.T, r *bufio.Reader) sseEvent {
	t.Helper()
	var evt sseEvent
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if evt.name != "" || evt.data != "" {
				return evt
			}
			continue
		}
		switch {
		case strings.HasPrefix(line, "event: "):
			evt.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			evt.data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func openStream(t *testing.T, srv *httptest.Server) (*bufio.Reader, string, func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+SSEPath, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	reader := bufio.NewReader(resp.Body)
	evt := readEvent(t, reader)
	require.Equal(t, "endpoint", evt.name)
	require.True(t, strings.HasPrefix(evt.data, "/messages/?session_id="), evt.data)

	return reader, evt.data, func() {
		cancel()
		resp.Body.Close()
	}
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestStreamAnnouncesEndpoint(t *testing.T) {
	srv, sessions := newTestRoute(t, &gatedGenerator{release: make(chan struct{})})

	_, endpoint, closeStream := openStream(t, srv)
	defer closeStream()

	id := strings.TrimPrefix(endpoint, "/messages/?session_id=")
	_, ok := sessions.Get(id)
	assert.True(t, ok)
}

func TestStreamReleasesSessionOnDisconnect(t *testing.T) {
	srv, sessions := newTestRoute(t, &gatedGenerator{release: make(chan struct{})})

	_, _, closeStream := openStream(t, srv)
	require.Equal(t, 1, sessions.Len())
	closeStream()

	assert.Eventually(t, func() bool { return sessions.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestPostMessageErrors(t *testing.T) {
	srv, _ := newTestRoute(t, &gatedGenerator{release: make(chan struct{})})
	_, endpoint, closeStream := openStream(t, srv)
	defer closeStream()

	ping := `{"jsonrpc":"2.0","id":1,"method":"ping"}`

	resp := post(t, srv.URL+MessagesPath, ping)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = post(t, srv.URL+MessagesPath+"?session_id=deadbeef", ping)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Invalid session ID", body["error"])

	resp = post(t, srv.URL+MessagesPath+"?session_id="+strings.Repeat("a", 32), ping)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body = nil
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Could not find session", body["error"])

	resp = post(t, srv.URL+endpoint, `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPostMessageReplyArrivesOnStream(t *testing.T) {
	srv, _ := newTestRoute(t, &gatedGenerator{release: make(chan struct{})})
	reader, endpoint, closeStream := openStream(t, srv)
	defer closeStream()

	resp := post(t, srv.URL+endpoint, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"raw","version":"0"}}}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	evt := readEvent(t, reader)
	assert.Equal(t, "message", evt.name)

	var reply struct {
		ID     int `json:"id"`
		Result struct {
			ServerInfo struct {
				Name string `json:"name"`
			} `json:"serverInfo"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(evt.data), &reply))
	assert.Equal(t, 1, reply.ID)
	assert.Equal(t, "image-mcp", reply.Result.ServerInfo.Name)
}

func TestPostMessageAcceptsDashedSessionID(t *testing.T) {
	srv, _ := newTestRoute(t, &gatedGenerator{release: make(chan struct{})})
	_, endpoint, closeStream := openStream(t, srv)
	defer closeStream()

	id := strings.TrimPrefix(endpoint, "/messages/?session_id=")
	dashed := id[0:8] + "-" + id[8:12] + "-" + id[12:16] + "-" + id[16:20] + "-" + id[20:]

	resp := post(t, srv.URL+MessagesPath+"?session_id="+dashed, `{"jsonrpc":"2.0","id":1,"method":"ping"}`)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestDisconnectCancelsInFlightCall(t *testing.T) {
	gen := &gatedGenerator{
		release:   make(chan struct{}),
		started:   make(chan struct{}),
		cancelled: make(chan struct{}),
	}
	defer gen.open()

	srv, sessions := newTestRoute(t, gen)
	reader, endpoint, closeStream := openStream(t, srv)
	defer closeStream()

	resp := post(t, srv.URL+endpoint, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"raw","version":"0"}}}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Equal(t, "message", readEvent(t, reader).name)

	resp = post(t, srv.URL+endpoint, `{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp = post(t, srv.URL+endpoint, `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"generate_image","arguments":{"prompt":"slow"}}}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	select {
	case <-gen.started:
	case <-time.After(5 * time.Second):
		t.Fatal("tool call never reached the generator")
	}

	closeStream()

	select {
	case <-gen.cancelled:
	case <-time.After(5 * time.Second):
		t.Fatal("disconnect did not cancel the in-flight call")
	}
	assert.Eventually(t, func() bool { return sessions.Len() == 0 }, 2*time.Second, 10*time.Millisecond)

	resp = post(t, srv.URL+endpoint, `{"jsonrpc":"2.0","id":3,"method":"ping"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func connectSDKClient(t *testing.T, srv *httptest.Server) *mcp.ClientSession {
	t.Helper()
	client := mcp.NewClient(&mcp.Implementation{Name: "sse-client", Version: "v0"}, nil)
	cs, err := client.Connect(context.Background(), &mcp.SSEClientTransport{Endpoint: srv.URL + SSEPath}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { cs.Close() })
	return cs
}

func TestSSEClientCallsTool(t *testing.T) {
	srv, _ := newTestRoute(t, &gatedGenerator{release: make(chan struct{})})
	cs := connectSDKClient(t, srv)

	tools, err := cs.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)
	require.Len(t, tools.Tools, 1)

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "generate_image",
		Arguments: map[string]any{"prompt": "fast", "output_format": "png"},
	})
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	img, ok := res.Content[0].(*mcp.ImageContent)
	require.True(t, ok)
	assert.Equal(t, "image/png", img.MIMEType)
	assert.Equal(t, []byte("fast"), img.Data)
}

func TestSessionsDoNotBlockEachOther(t *testing.T) {
	gen := &gatedGenerator{release: make(chan struct{})}
	defer gen.open()

	srv, sessions := newTestRoute(t, gen)
	slow := connectSDKClient(t, srv)
	fast := connectSDKClient(t, srv)
	require.Equal(t, 2, sessions.Len())

	slowDone := make(chan *mcp.CallToolResult, 1)
	go func() {
		res, err := slow.CallTool(context.Background(), &mcp.CallToolParams{
			Name:      "generate_image",
			Arguments: map[string]any{"prompt": "slow"},
		})
		assert.NoError(t, err)
		slowDone <- res
	}()

	res, err := fast.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "generate_image",
		Arguments: map[string]any{"prompt": "fast"},
	})
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	assert.Equal(t, []byte("fast"), res.Content[0].(*mcp.ImageContent).Data)

	select {
	case <-slowDone:
		t.Fatal("slow call finished before it was released")
	default:
	}

	gen.open()
	select {
	case res := <-slowDone:
		require.NotNil(t, res)
		require.Len(t, res.Content, 1)
		assert.Equal(t, []byte("slow"), res.Content[0].(*mcp.ImageContent).Data)
	case <-time.After(5 * time.Second):
		t.Fatal("slow call never completed")
	}
}

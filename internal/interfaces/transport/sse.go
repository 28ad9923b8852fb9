package transport

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"github.com/janhq/image-mcp/internal/infrastructure/metrics"
)

// SSESession is one client stream. Inbound frames arrive through Deliver
// (from POST /messages/) and outbound frames leave through Outgoing (drained
// by the GET /sse handler). It serves as both the mcp.Transport and the
// mcp.Connection for its session.
type SSESession struct {
	id       string
	incoming chan jsonrpc.Message
	outgoing chan jsonrpc.Message

	done      chan struct{}
	closeOnce sync.Once

	// ctx is cancelled on Close; in-flight tool calls derive from it.
	ctx    context.Context
	cancel context.CancelFunc
}

var (
	_ mcp.Transport  = (*SSESession)(nil)
	_ mcp.Connection = (*SSESession)(nil)
)

func newSSESession(id string) *SSESession {
	ctx, cancel := context.WithCancel(context.Background())
	return &SSESession{
		id:       id,
		incoming: make(chan jsonrpc.Message),
		outgoing: make(chan jsonrpc.Message),
		done:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// ID is the value clients pass back as ?session_id=.
func (s *SSESession) ID() string {
	return s.id
}

// Connect implements mcp.Transport.
func (s *SSESession) Connect(context.Context) (mcp.Connection, error) {
	return s, nil
}

// SessionID implements mcp.Connection.
func (s *SSESession) SessionID() string {
	return s.id
}

// Read implements mcp.Connection.
func (s *SSESession) Read(ctx context.Context) (jsonrpc.Message, error) {
	select {
	case msg := <-s.incoming:
		return msg, nil
	case <-s.done:
		return nil, ErrSessionClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Write implements mcp.Connection. It blocks until the stream handler has
// taken the frame.
func (s *SSESession) Write(ctx context.Context, msg jsonrpc.Message) error {
	select {
	case s.outgoing <- msg:
		return nil
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements mcp.Connection. Safe to call more than once.
func (s *SSESession) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		close(s.done)
	})
	return nil
}

// Deliver hands an inbound frame to the server side of the session.
func (s *SSESession) Deliver(ctx context.Context, msg jsonrpc.Message) error {
	select {
	case s.incoming <- msg:
		return nil
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Outgoing yields frames the server wants sent to the client.
func (s *SSESession) Outgoing() <-chan jsonrpc.Message {
	return s.outgoing
}

// Done is closed once the session has ended.
func (s *SSESession) Done() <-chan struct{} {
	return s.done
}

// SessionRegistry tracks open SSE sessions by id.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*SSESession
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]*SSESession)}
}

// Open allocates a session with a fresh id and registers it.
func (r *SessionRegistry) Open() *SSESession {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	sess := newSSESession(id)

	r.mu.Lock()
	r.sessions[id] = sess
	r.mu.Unlock()

	metrics.SessionOpened(NameSSE)
	log.Info().Str("transport", NameSSE).Str("session_id", id).Msg("SSE session opened")
	return sess
}

// Get returns the live session for id.
func (r *SessionRegistry) Get(id string) (*SSESession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[id]
	return sess, ok
}

// Release closes and forgets the session. Unknown ids are ignored.
func (r *SessionRegistry) Release(id string) {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return
	}
	sess.Close()
	metrics.SessionClosed(NameSSE)
	log.Info().Str("transport", NameSSE).Str("session_id", id).Msg("SSE session closed")
}

// BindCallContext is a receiving middleware for the MCP server. It cancels a
// request's context as soon as the SSE session that carried it closes, so a
// disconnect aborts that session's in-flight provider call and nothing else.
// Requests from sessions this registry does not own pass through unchanged.
func (r *SessionRegistry) BindCallContext(next mcp.MethodHandler) mcp.MethodHandler {
	return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
		session := req.GetSession()
		if session == nil {
			return next(ctx, method, req)
		}
		sess, ok := r.Get(session.ID())
		if !ok {
			return next(ctx, method, req)
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		stop := context.AfterFunc(sess.ctx, cancel)
		defer stop()

		return next(ctx, method, req)
	}
}

// Len reports how many sessions are open.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// CloseAll releases every open session, ending their streams.
func (r *SessionRegistry) CloseAll() {
	r.mu.RLock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	for _, id := range ids {
		r.Release(id)
	}
}

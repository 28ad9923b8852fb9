package transport

import (
	"context"
	"errors"
	"io"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"github.com/janhq/image-mcp/internal/infrastructure/metrics"
)

// StdioBinding runs a single session over the process's stdin and stdout.
// Logs go to stderr so they never interleave with frames.
type StdioBinding struct {
	server    *mcp.Server
	transport mcp.Transport
}

func NewStdioBinding(server *mcp.Server) *StdioBinding {
	return newStdioBinding(server, &mcp.StdioTransport{})
}

func newStdioBinding(server *mcp.Server, t mcp.Transport) *StdioBinding {
	return &StdioBinding{server: server, transport: t}
}

// Serve blocks until the client closes stdin or ctx is cancelled. Either is
// a normal shutdown.
func (b *StdioBinding) Serve(ctx context.Context) error {
	metrics.SessionOpened(NameStdio)
	defer metrics.SessionClosed(NameStdio)

	log.Info().Str("transport", NameStdio).Msg("Serving MCP over stdio")

	err := b.server.Run(ctx, b.transport)
	switch {
	case err == nil,
		errors.Is(err, io.EOF),
		errors.Is(err, context.Canceled):
		log.Info().Str("transport", NameStdio).Msg("stdio session ended")
		return nil
	default:
		return err
	}
}

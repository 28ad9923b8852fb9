package main

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/janhq/image-mcp/internal/infrastructure/config"
	"github.com/janhq/image-mcp/internal/interfaces/httpserver"
	"github.com/janhq/image-mcp/internal/interfaces/transport"
)

type Application struct {
	config     *config.Config
	stdio      *transport.StdioBinding
	httpServer *httpserver.HTTPServer
}

// binding picks the transport named by the launch options.
func (app *Application) binding() transport.Binding {
	if app.config.Transport == config.TransportSSE {
		return app.httpServer
	}
	return app.stdio
}

// @title Image MCP Server
// @version 1.0
// @description Model Context Protocol server exposing Flux 1.1 Pro image generation.
// @BasePath /
func (app *Application) Start(ctx context.Context) error {
	err := app.binding().Serve(ctx)
	if err != nil {
		log.Error().Err(err).Str("transport", string(app.config.Transport)).Msg("transport stopped with error")
		return err
	}
	log.Info().Msg("image MCP server stopped")
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/janhq/image-mcp/internal/infrastructure/config"
	"github.com/janhq/image-mcp/internal/infrastructure/logger"
)

var version = "1.0.0"

var (
	port          int
	transportName string
)

var rootCmd = &cobra.Command{
	Use:   "image-mcp",
	Short: "MCP server that generates images with Flux 1.1 Pro on Replicate",
	Long: `image-mcp exposes a single MCP tool, generate_image, which sends a
prompt to Replicate's Flux 1.1 Pro model and returns the resulting image.

The Replicate credential is read from REPLICATE_API_TOKEN. A .env file in
the working directory is loaded first when present.

Examples:
  # Serve one client over stdin/stdout
  image-mcp

  # Serve any number of clients over HTTP+SSE
  image-mcp --transport sse --port 8000`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE:          runServer,
}

func init() {
	// Stderr only: stdout carries MCP frames in stdio mode
	logger.Init("info", "console")

	rootCmd.Flags().IntVar(&port, "port", 8000, "Port to listen on for SSE")
	rootCmd.Flags().StringVar(&transportName, "transport", string(config.TransportStdio), "Transport type (stdio or sse)")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.Port = port
	cfg.Transport = config.Transport(transportName)
	cfg.Version = version
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Re-initialize logger with config settings
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("transport", string(cfg.Transport)).
		Int("port", cfg.Port).
		Str("version", version).
		Str("log_level", cfg.LogLevel).
		Msg("Starting image MCP server")
	if cfg.ReplicateAPIToken == "" {
		log.Warn().Msg("REPLICATE_API_TOKEN is not set; generate_image calls will fail until it is")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application := CreateApplication(cfg)
	return application.Start(ctx)
}

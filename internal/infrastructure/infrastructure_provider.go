package infrastructure

import (
	"github.com/google/wire"

	"github.com/janhq/image-mcp/internal/domain/imagegen"
	"github.com/janhq/image-mcp/internal/infrastructure/config"
	"github.com/janhq/image-mcp/internal/infrastructure/replicate"
)

// InfrastructureProvider provides all infrastructure dependencies
var InfrastructureProvider = wire.NewSet(
	// Replicate client, bound as the image generator
	ProvideReplicateClient,
	wire.Bind(new(imagegen.Generator), new(*replicate.Client)),
)

// ProvideReplicateClient provides the Replicate client. A missing token is
// not fatal here; every call reports it as text instead.
func ProvideReplicateClient(cfg *config.Config) *replicate.Client {
	return replicate.NewClient(replicate.ClientConfig{
		APIToken: cfg.ReplicateAPIToken,
		BaseURL:  cfg.ReplicateBaseURL,
		Timeout:  replicate.DefaultTimeout,
	})
}

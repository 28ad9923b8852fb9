//go:build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/janhq/image-mcp/internal/domain"
	"github.com/janhq/image-mcp/internal/infrastructure"
	"github.com/janhq/image-mcp/internal/infrastructure/config"
	"github.com/janhq/image-mcp/internal/interfaces"
	"github.com/janhq/image-mcp/internal/interfaces/httpserver/routes"
)

func CreateApplication(cfg *config.Config) *Application {
	wire.Build(
		domain.DomainProvider,
		infrastructure.InfrastructureProvider,
		routes.RoutesProvider,
		interfaces.InterfacesProvider,
		wire.Struct(new(Application), "*"),
	)
	return nil
}

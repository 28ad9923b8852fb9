package domain

import (
	"github.com/google/wire"

	"github.com/janhq/image-mcp/internal/domain/imagegen"
)

// DomainProvider provides all domain services
var DomainProvider = wire.NewSet(
	imagegen.NewService,
)

//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"swiftask/services/replicate-tools/internal/domain"
	"swiftask/services/replicate-tools/internal/infrastructure"
	"swiftask/services/replicate-tools/internal/interfaces"
	"swiftask/services/replicate-tools/internal/interfaces/httpserver/routes"
)

func CreateApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		domain.DomainProvider,
		infrastructure.InfrastructureProvider,
		routes.RoutesProvider,
		interfaces.InterfacesProvider,
		wire.Struct(new(Application), "*"),
	)
	return nil, nil
}

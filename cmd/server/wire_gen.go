// Code generated by Wire. DO NOT EDIT.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package main

import (
	"context"
	"swiftask/services/replicate-tools/internal/domain/codegen"
	"swiftask/services/replicate-tools/internal/domain/models"
	"swiftask/services/replicate-tools/internal/domain/predictions"
	"swiftask/services/replicate-tools/internal/infrastructure"
	"swiftask/services/replicate-tools/internal/interfaces/httpserver"
	"swiftask/services/replicate-tools/internal/interfaces/httpserver/routes"
	"swiftask/services/replicate-tools/internal/interfaces/httpserver/routes/mcp"
)

import (
	_ "swiftask/services/replicate-tools/internal/infrastructure/metrics"
)

// Injectors from wire.go:

func CreateApplication(ctx context.Context) (*Application, error) {
	config, err := infrastructure.ProvideConfig()
	if err != nil {
		return nil, err
	}
	client := infrastructure.ProvideReplicateClient(config)
	cache := infrastructure.ProvideModelCache(config)
	modelService := models.NewModelService(client, cache)
	registry, err := infrastructure.ProvideToolsetRegistry(config)
	if err != nil {
		return nil, err
	}
	modelsMCP := mcp.NewModelsMCP(modelService, registry)
	serviceConfig := infrastructure.ProvidePredictionServiceConfig(config)
	predictionService := predictions.NewPredictionService(client, serviceConfig)
	predictionsMCP := mcp.NewPredictionsMCP(predictionService, registry)
	codegenServiceConfig := infrastructure.ProvideCodeGenServiceConfig(config)
	codeGenService := codegen.NewCodeGenService(client, codegenServiceConfig)
	codeGenMCP := routes.ProvideCodeGenMCP(codeGenService, registry, config)
	mcpRoute := mcp.NewMCPRoute(modelsMCP, predictionsMCP, codeGenMCP, registry)
	validator, err := infrastructure.ProvideAuthValidator(ctx, config)
	if err != nil {
		return nil, err
	}
	httpServer := httpserver.NewHTTPServer(config, mcpRoute, validator, client)
	application := &Application{
		httpServer: httpServer,
		replicate:  client,
	}
	return application, nil
}

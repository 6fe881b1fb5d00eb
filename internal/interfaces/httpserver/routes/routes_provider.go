package routes

import (
	"github.com/google/wire"

	"swiftask/services/replicate-tools/internal/infrastructure/config"
	"swiftask/services/replicate-tools/internal/infrastructure/toolset"
	"swiftask/services/replicate-tools/internal/interfaces/httpserver/routes/mcp"

	domaincodegen "swiftask/services/replicate-tools/internal/domain/codegen"
)

// RoutesProvider provides all route dependencies
var RoutesProvider = wire.NewSet(
	mcp.NewModelsMCP,
	mcp.NewPredictionsMCP,
	ProvideCodeGenMCP,
	mcp.NewMCPRoute,
)

// ProvideCodeGenMCP creates the code generation tool handler with the
// configured default language.
func ProvideCodeGenMCP(
	service *domaincodegen.CodeGenService,
	registry *toolset.Registry,
	cfg *config.Config,
) *mcp.CodeGenMCP {
	return mcp.NewCodeGenMCP(service, registry, cfg.DefaultLanguage)
}

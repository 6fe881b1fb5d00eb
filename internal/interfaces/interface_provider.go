package interfaces

import (
	"github.com/google/wire"

	"swiftask/services/replicate-tools/internal/interfaces/httpserver"
)

// InterfacesProvider provides all interface layer dependencies
var InterfacesProvider = wire.NewSet(
	httpserver.NewHTTPServer,
)

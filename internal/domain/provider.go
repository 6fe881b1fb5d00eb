package domain

import (
	"github.com/google/wire"

	domaincodegen "swiftask/services/replicate-tools/internal/domain/codegen"
	domainmodels "swiftask/services/replicate-tools/internal/domain/models"
	domainpredictions "swiftask/services/replicate-tools/internal/domain/predictions"
)

// DomainProvider provides all domain services
var DomainProvider = wire.NewSet(
	domainmodels.NewModelService,
	domainpredictions.NewPredictionService,
	domaincodegen.NewCodeGenService,
)

package replicate

import (
	"fmt"
	"strings"

	domainreplicate "swiftask/services/replicate-tools/internal/domain/replicate"

	"github.com/rs/zerolog/log"
)

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
}

// ValidatePage checks that a paginated response is structurally usable.
// A nil results array is normalized to an empty slice; an empty page is
// valid (the catalog may legitimately have no entries past the cursor).
func ValidatePage[T any](page *domainreplicate.Page[T]) error {
	if page == nil {
		return ValidationError{Field: "response", Message: "response is nil"}
	}

	if page.Results == nil {
		log.Warn().Msg("paginated response has nil results array")
		page.Results = []T{}
	}

	return nil
}

// ValidateModel checks that a model response carries its identity fields.
func ValidateModel(model *domainreplicate.Model) error {
	if model == nil {
		return ValidationError{Field: "response", Message: "response is nil"}
	}

	if strings.TrimSpace(model.Owner) == "" || strings.TrimSpace(model.Name) == "" {
		log.Warn().
			Str("owner", model.Owner).
			Str("name", model.Name).
			Msg("model response missing identity fields")
	}

	return nil
}

// ValidatePrediction checks that a prediction response is usable for
// status tracking.
func ValidatePrediction(prediction *domainreplicate.Prediction) error {
	if prediction == nil {
		return ValidationError{Field: "response", Message: "response is nil"}
	}

	if strings.TrimSpace(prediction.ID) == "" {
		return ValidationError{Field: "id", Message: "prediction id is empty"}
	}

	if !knownStatus(prediction.Status) {
		log.Warn().
			Str("prediction_id", prediction.ID).
			Str("status", string(prediction.Status)).
			Msg("prediction has unrecognized status")
	}

	return nil
}

// ValidateVersion checks that a model version response carries its id.
func ValidateVersion(version *domainreplicate.ModelVersion) error {
	if version == nil {
		return ValidationError{Field: "response", Message: "response is nil"}
	}

	if strings.TrimSpace(version.ID) == "" {
		return ValidationError{Field: "id", Message: "version id is empty"}
	}

	return nil
}

func knownStatus(status domainreplicate.Status) bool {
	switch status {
	case domainreplicate.StatusStarting,
		domainreplicate.StatusProcessing,
		domainreplicate.StatusSucceeded,
		domainreplicate.StatusFailed,
		domainreplicate.StatusCanceled:
		return true
	default:
		return false
	}
}

package reports

import (
	"fmt"

	"museum-visits/internal/models"
)

// ErrInvalidParameter rejects a malformed bucketing request. It is a
// validation error so the HTTP layer answers 400.
var ErrInvalidParameter = fmt.Errorf("invalid parameter: %w", models.ErrValidation)

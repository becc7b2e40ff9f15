package impl

import (
	domainerrors "school/internal/domain/errors"
	"school/internal/domain/service"
)

// outcomeOf labels an operation result for metrics.
func outcomeOf(err error) string {
	if err == nil {
		return service.OutcomeSuccess
	}

	return domainerrors.KindOf(err).String()
}

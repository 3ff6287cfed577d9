package shared

import (
	"errors"

	"github.com/dealership/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// NotFound turns a bare repository miss into an error naming the resource
func NotFound(err error, resource string, id uuid.UUID) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewNotFoundError(resource, id)
	}
	return err
}

package service

import (
	"socialhub/internal/models"

	"github.com/google/uuid"
)

// ensureOwner is the second step of every owner-checked mutation. Callers load
// the resource first so a missing resource is NotFound before it is Forbidden.
func ensureOwner(ownerID, subjectID uuid.UUID, action string) error {
	if ownerID != subjectID {
		return models.NewForbiddenError("You can only " + action)
	}
	return nil
}

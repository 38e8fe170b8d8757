// Package service holds what the domain services share.
package service

import (
	"errors"

	"github.com/jwalitptl/clinic-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

// StoreError translates a repository error about resource into an AppError.
func StoreError(resource string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound(resource, err)
	case errors.Is(err, repository.ErrVersionConflict):
		return apperrors.ConcurrentModification(resource, err)
	case errors.Is(err, repository.ErrSlotTaken):
		return apperrors.SlotUnavailable(err)
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.Duplicate(resource+" already exists", err)
	case errors.Is(err, repository.ErrInUse):
		return apperrors.InUse(resource, err)
	case errors.Is(err, repository.ErrInvalidCriteria):
		return apperrors.BadRequest(err.Error(), err)
	default:
		return apperrors.Internal(err)
	}
}

// InvalidInput wraps a validator failure as a BadRequest.
func InvalidInput(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.BadRequest("invalid input: "+err.Error(), err)
}

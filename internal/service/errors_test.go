package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/clinic-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

func TestStoreError(t *testing.T) {
	tests := []struct {
		err  error
		code apperrors.ErrorCode
	}{
		{repository.ErrNotFound, apperrors.ErrNotFound},
		{fmt.Errorf("%w: egn", repository.ErrDuplicate), apperrors.ErrDuplicate},
		{repository.ErrVersionConflict, apperrors.ErrConcurrentModification},
		{repository.ErrSlotTaken, apperrors.ErrSlotUnavailable},
		{repository.ErrInUse, apperrors.ErrInUse},
		{repository.ErrInvalidCriteria, apperrors.ErrBadRequest},
		{repository.ErrTransient, apperrors.ErrInternal},
		{errors.New("connection reset"), apperrors.ErrInternal},
	}
	for _, tt := range tests {
		err := StoreError("visit", tt.err)
		assert.True(t, apperrors.Is(err, tt.code), "%v", tt.err)
		assert.ErrorIs(t, err, tt.err)
	}
	assert.NoError(t, StoreError("visit", nil))
	assert.NoError(t, InvalidInput(nil))
	assert.True(t, apperrors.Is(InvalidInput(errors.New("name failed")), apperrors.ErrBadRequest))
}

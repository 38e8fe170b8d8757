package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/clinic-api/internal/repository"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"no rows", sql.ErrNoRows, repository.ErrNotFound},
		{"slot index", &pq.Error{Code: codeUniqueViolation, Constraint: slotConstraint}, repository.ErrSlotTaken},
		{"other unique index", &pq.Error{Code: codeUniqueViolation, Constraint: "patients_active_egn_uidx"}, repository.ErrDuplicate},
		{"foreign key", &pq.Error{Code: codeForeignKeyViolation}, repository.ErrInUse},
		{"serialization", &pq.Error{Code: codeSerializationFailure}, repository.ErrTransient},
		{"deadlock", fmt.Errorf("exec: %w", &pq.Error{Code: codeDeadlockDetected}), repository.ErrTransient},
		{"malformed uuid filter", &pq.Error{Code: "22P02"}, repository.ErrInvalidCriteria},
		{"malformed date filter", &pq.Error{Code: "22007"}, repository.ErrInvalidCriteria},
		{"date out of range", &pq.Error{Code: "22008"}, repository.ErrInvalidCriteria},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.in)
			assert.ErrorIs(t, got, tt.want)
			if tt.in != sql.ErrNoRows {
				var pqErr *pq.Error
				assert.True(t, errors.As(got, &pqErr), "driver error stays in the chain")
			}
		})
	}

	assert.NoError(t, mapError(nil))
	other := errors.New("connection refused")
	assert.Same(t, other, mapError(other))
	assert.NotErrorIs(t, mapError(&pq.Error{Code: "22P02"}), repository.ErrDuplicate)
	assert.NotErrorIs(t, mapError(&pq.Error{Code: "42P01"}), repository.ErrInvalidCriteria)
}

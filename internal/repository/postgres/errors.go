package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/jwalitptl/clinic-api/internal/repository"
)

// SQLSTATE codes the repositories translate.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"

	// classDataException covers malformed filter values such as a bad uuid
	// (22P02) or an unparsable date (22007, 22008).
	classDataException = "22"
)

// slotConstraint is the partial unique index guarding doctor/date/time.
const slotConstraint = "visits_active_slot_uidx"

// mapError converts driver errors into repository sentinels, keeping the
// original error in the chain.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case codeUniqueViolation:
		if pqErr.Constraint == slotConstraint {
			return fmt.Errorf("%w: %w", repository.ErrSlotTaken, err)
		}
		return fmt.Errorf("%w: %w", repository.ErrDuplicate, err)
	case codeForeignKeyViolation:
		return fmt.Errorf("%w: %w", repository.ErrInUse, err)
	case codeSerializationFailure, codeDeadlockDetected:
		return fmt.Errorf("%w: %w", repository.ErrTransient, err)
	}
	if pqErr.Code.Class() == classDataException {
		return fmt.Errorf("%w: %w", repository.ErrInvalidCriteria, err)
	}
	return err
}

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
)

// Storage errors. Implementations wrap these so callers can use errors.Is.
var (
	ErrNotFound        = errors.New("record not found")
	ErrVersionConflict = errors.New("record was modified by another writer")
	ErrSlotTaken       = errors.New("time slot already booked")
	ErrDuplicate       = errors.New("record already exists")
	ErrTransient       = errors.New("transient storage conflict")
	ErrInvalidCriteria = errors.New("unsupported filter or sort field")
	ErrInUse           = errors.New("record is still referenced")
)

// Criteria narrows a listing. Filter keys are column names and match by equality.
// Each store rejects columns it does not expose with ErrInvalidCriteria.
type Criteria struct {
	Filters map[string]interface{}
	Sort    model.SortOrder
}

// SoftDeleteStore is the read/delete contract shared by every record type.
//
// Every read except FindAllDeleted excludes soft-deleted rows. Writes are
// compare-and-swap on the version counter: a stale version yields
// ErrVersionConflict and is never retried here.
type SoftDeleteStore[T any] interface {
	FindActive(ctx context.Context, id uuid.UUID) (*T, error)
	FindActivePage(ctx context.Context, criteria Criteria, page model.Pagination) (*model.Page[T], error)
	FindAllDeleted(ctx context.Context) ([]*T, error)
	// SoftDelete flags the record, stamps deleted_at and bumps the version in one write.
	SoftDelete(ctx context.Context, id uuid.UUID, expectedVersion int64) error
	// HardDelete physically removes the record. Administrative use only.
	HardDelete(ctx context.Context, id uuid.UUID) error
}

// All repository interfaces in one file.
//
// Create stamps the audit fields and sets Version to 1. Update writes only
// if the stored version equals the record's Version, and increments it on success.
type (
	PatientRepository interface {
		SoftDeleteStore[model.Patient]
		Create(ctx context.Context, patient *model.Patient) error
		Update(ctx context.Context, patient *model.Patient) error
		FindActiveByEGN(ctx context.Context, egn string) (*model.Patient, error)
	}

	DoctorRepository interface {
		SoftDeleteStore[model.Doctor]
		Create(ctx context.Context, doctor *model.Doctor) error
		Update(ctx context.Context, doctor *model.Doctor) error
		FindActiveByUIN(ctx context.Context, uin string) (*model.Doctor, error)
	}

	DiagnosisRepository interface {
		SoftDeleteStore[model.Diagnosis]
		Create(ctx context.Context, diagnosis *model.Diagnosis) error
	}

	VisitRepository interface {
		SoftDeleteStore[model.Visit]
		// CreateScheduled inserts a SCHEDULED visit. It fails with ErrSlotTaken when an
		// active, non-cancelled visit already holds the doctor/date/time, atomically.
		CreateScheduled(ctx context.Context, visit *model.Visit) error
		// Update writes the visit's own columns. Moving it onto a held slot fails with ErrSlotTaken.
		Update(ctx context.Context, visit *model.Visit) error
		// Document writes the visit together with its new treatment and sick leave as one unit.
		Document(ctx context.Context, visit *model.Visit) error
		ListActiveByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]*model.Visit, error)
	}
)

package model

import (
	"time"

	"github.com/google/uuid"
)

type VisitStatus string

const (
	VisitStatusScheduled VisitStatus = "SCHEDULED"
	VisitStatusCompleted VisitStatus = "COMPLETED"
	VisitStatusCancelled VisitStatus = "CANCELLED"
)

// IsTerminal reports whether no further transition is defined out of s.
func (s VisitStatus) IsTerminal() bool {
	return s == VisitStatusCompleted || s == VisitStatusCancelled
}

// CanTransition reports whether a visit in status s may move to next.
// Only SCHEDULED -> COMPLETED and SCHEDULED -> CANCELLED exist.
func (s VisitStatus) CanTransition(next VisitStatus) bool {
	if s != VisitStatusScheduled {
		return false
	}
	return next == VisitStatusCompleted || next == VisitStatusCancelled
}

// HoldsSlot reports whether a visit in this status occupies its (doctor, date, time) slot.
func (s VisitStatus) HoldsSlot() bool {
	return s != VisitStatusCancelled
}

type Visit struct {
	Base
	Date        time.Time   `db:"visit_date" json:"date"`
	Time        SlotTime    `db:"slot_minute" json:"time"`
	PatientID   uuid.UUID   `db:"patient_id" json:"patient_id"`
	DoctorID    uuid.UUID   `db:"doctor_id" json:"doctor_id"`
	DiagnosisID *uuid.UUID  `db:"diagnosis_id" json:"diagnosis_id,omitempty"`
	Status      VisitStatus `db:"status" json:"status"`
	Notes       string      `db:"notes" json:"notes,omitempty"`
	Treatment   *Treatment  `db:"-" json:"treatment,omitempty"`
	SickLeave   *SickLeave  `db:"-" json:"sick_leave,omitempty"`
}

// StartsAt is the instant the visit begins, in UTC.
func (v *Visit) StartsAt() time.Time {
	return v.Time.On(v.Date)
}

// Clone returns a deep copy including the owned treatment and sick leave.
func (v *Visit) Clone() *Visit {
	if v == nil {
		return nil
	}
	c := *v
	if v.DiagnosisID != nil {
		id := *v.DiagnosisID
		c.DiagnosisID = &id
	}
	if v.DeletedAt != nil {
		at := *v.DeletedAt
		c.DeletedAt = &at
	}
	if v.Treatment != nil {
		t := *v.Treatment
		t.Medicines = append([]Medicine(nil), v.Treatment.Medicines...)
		c.Treatment = &t
	}
	if v.SickLeave != nil {
		sl := *v.SickLeave
		c.SickLeave = &sl
	}
	return &c
}

type Medicine struct {
	Name      string `json:"name" validate:"notblank,max=200"`
	Dosage    string `json:"dosage" validate:"max=200"`
	Frequency string `json:"frequency" validate:"max=200"`
}

// Treatment is owned by a visit and only created when the visit is documented.
type Treatment struct {
	Base
	VisitID      uuid.UUID  `db:"visit_id" json:"visit_id"`
	Instructions string     `db:"instructions" json:"instructions"`
	Medicines    []Medicine `db:"-" json:"medicines"`
}

const (
	MinSickLeaveDays = 1
	MaxSickLeaveDays = 30
)

// SickLeave is owned by a visit and only created when the visit is documented.
type SickLeave struct {
	Base
	VisitID   uuid.UUID `db:"visit_id" json:"visit_id"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	Days      int       `db:"days" json:"days"`
}

// EndDate is the last day covered by the leave.
func (s *SickLeave) EndDate() time.Time {
	return s.StartDate.AddDate(0, 0, s.Days-1)
}

type CreateVisitRequest struct {
	PatientID   uuid.UUID  `json:"patient_id" validate:"required"`
	DoctorID    uuid.UUID  `json:"doctor_id" validate:"required"`
	DiagnosisID *uuid.UUID `json:"diagnosis_id"`
	Date        time.Time  `json:"date" validate:"required"`
	Time        SlotTime   `json:"time"`
	Notes       string     `json:"notes" validate:"max=2000"`
}

// UpdateVisitRequest changes a scheduled visit. Nil fields are left as they are.
type UpdateVisitRequest struct {
	DoctorID    *uuid.UUID `json:"doctor_id"`
	Date        *time.Time `json:"date"`
	Time        *SlotTime  `json:"time"`
	DiagnosisID *uuid.UUID `json:"diagnosis_id"`
	Notes       *string    `json:"notes" validate:"omitempty,max=2000"`
	Version     int64      `json:"version" validate:"required,min=1"`
}

type TreatmentInput struct {
	Instructions string     `json:"instructions" validate:"notblank,max=4000"`
	Medicines    []Medicine `json:"medicines" validate:"dive"`
}

type SickLeaveInput struct {
	// StartDate defaults to the visit date.
	StartDate *time.Time `json:"start_date"`
	Days      int        `json:"days"`
}

type DocumentVisitRequest struct {
	DiagnosisID uuid.UUID       `json:"diagnosis_id" validate:"required"`
	Notes       string          `json:"notes" validate:"max=4000"`
	Treatment   *TreatmentInput `json:"treatment"`
	SickLeave   *SickLeaveInput `json:"sick_leave"`
}

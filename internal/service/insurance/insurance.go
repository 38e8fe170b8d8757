// Package insurance decides whether a patient's health insurance covers a visit.
package insurance

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

// CoverageMonths is how long a single payment keeps the patient insured.
const CoverageMonths = 6

// Message is shown to the patient when booking is refused for missing coverage.
const Message = "Your health insurance is not valid: no contribution was paid in the last 6 months. Please pay your insurance before booking a visit."

// IsCovered reports whether lastPayment falls inside the coverage window ending at asOf.
// The window starts CoverageMonths calendar months before asOf and includes both
// that day and asOf itself. A payment dated after asOf does not cover it.
func IsCovered(lastPayment *time.Time, asOf time.Time) bool {
	if lastPayment == nil {
		return false
	}
	paid := model.DateOf(*lastPayment)
	return !paid.Before(windowStart(asOf)) && !paid.After(model.DateOf(asOf))
}

// windowStart subtracts CoverageMonths from asOf, clamping to the last day of
// the target month (31 Aug -> 28 or 29 Feb) instead of overflowing like AddDate.
func windowStart(asOf time.Time) time.Time {
	day := model.DateOf(asOf)
	y, m, d := day.Date()
	first := time.Date(y, m-CoverageMonths, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

type Gate struct {
	patients repository.PatientRepository
}

func NewGate(patients repository.PatientRepository) *Gate {
	return &Gate{patients: patients}
}

// CheckInsuranceValid loads the active patient and evaluates coverage on asOf.
func (g *Gate) CheckInsuranceValid(ctx context.Context, patientID uuid.UUID, asOf time.Time) (bool, error) {
	patient, err := g.patients.FindActive(ctx, patientID)
	if err != nil {
		return false, service.StoreError("patient", err)
	}
	return IsCovered(patient.LastInsurancePayment, asOf), nil
}

// Check returns an InsuranceInvalid error carrying Message when patient is not covered on asOf.
func (g *Gate) Check(patient *model.Patient, asOf time.Time) error {
	if !IsCovered(patient.LastInsurancePayment, asOf) {
		return apperrors.InsuranceInvalid(Message)
	}
	return nil
}

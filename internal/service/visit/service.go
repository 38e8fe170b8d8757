// Package visit drives a visit through its lifecycle after it has been booked.
package visit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

type Service struct {
	visits    repository.VisitRepository
	diagnoses repository.DiagnosisRepository
	validator validator.Validator
	metrics   *metrics.Metrics
	logger    *logger.Logger
}

func NewService(visits repository.VisitRepository, diagnoses repository.DiagnosisRepository, v validator.Validator, m *metrics.Metrics, log *logger.Logger) *Service {
	return &Service{
		visits:    visits,
		diagnoses: diagnoses,
		validator: v,
		metrics:   m,
		logger:    log,
	}
}

func (s *Service) GetVisit(ctx context.Context, id uuid.UUID) (*model.Visit, error) {
	visit, err := s.visits.FindActive(ctx, id)
	if err != nil {
		return nil, service.StoreError("visit", err)
	}
	return visit, nil
}

// ListVisitsForDoctor returns the doctor's active visits on date, cancelled ones included.
func (s *Service) ListVisitsForDoctor(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]*model.Visit, error) {
	visits, err := s.visits.ListActiveByDoctorAndDate(ctx, doctorID, date)
	if err != nil {
		return nil, service.StoreError("visit", err)
	}
	return visits, nil
}

// DocumentVisit completes a scheduled visit, recording the diagnosis and the
// optional treatment and sick leave together.
func (s *Service) DocumentVisit(ctx context.Context, id uuid.UUID, req *model.DocumentVisitRequest) (*model.Visit, error) {
	visit, err := s.visits.FindActive(ctx, id)
	if err != nil {
		return nil, service.StoreError("visit", err)
	}
	if !visit.Status.CanTransition(model.VisitStatusCompleted) {
		return nil, apperrors.InvalidTransition(string(visit.Status), string(model.VisitStatusCompleted))
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, service.InvalidInput(err)
	}
	if sl := req.SickLeave; sl != nil && (sl.Days < model.MinSickLeaveDays || sl.Days > model.MaxSickLeaveDays) {
		return nil, apperrors.BadRequest(
			fmt.Sprintf("sick leave must be between %d and %d days", model.MinSickLeaveDays, model.MaxSickLeaveDays), nil)
	}
	if _, err := s.diagnoses.FindActive(ctx, req.DiagnosisID); err != nil {
		return nil, service.StoreError("diagnosis", err)
	}

	diagnosisID := req.DiagnosisID
	visit.DiagnosisID = &diagnosisID
	visit.Status = model.VisitStatusCompleted
	if req.Notes != "" {
		visit.Notes = req.Notes
	}
	if t := req.Treatment; t != nil {
		visit.Treatment = &model.Treatment{
			Instructions: t.Instructions,
			Medicines:    append([]model.Medicine{}, t.Medicines...),
		}
	}
	if sl := req.SickLeave; sl != nil {
		start := visit.Date
		if sl.StartDate != nil {
			start = model.DateOf(*sl.StartDate)
		}
		visit.SickLeave = &model.SickLeave{StartDate: start, Days: sl.Days}
	}

	if err := s.visits.Document(ctx, visit); err != nil {
		return nil, service.StoreError("visit", err)
	}
	s.metrics.VisitTransition.WithLabelValues(string(model.VisitStatusCompleted)).Inc()
	s.logger.Info("visit documented", "visit_id", visit.ID.String(), "doctor_id", visit.DoctorID.String())
	return visit, nil
}

// CancelVisit moves a scheduled visit to CANCELLED, which frees its slot.
func (s *Service) CancelVisit(ctx context.Context, id uuid.UUID) (*model.Visit, error) {
	visit, err := s.visits.FindActive(ctx, id)
	if err != nil {
		return nil, service.StoreError("visit", err)
	}
	if !visit.Status.CanTransition(model.VisitStatusCancelled) {
		return nil, apperrors.InvalidTransition(string(visit.Status), string(model.VisitStatusCancelled))
	}

	visit.Status = model.VisitStatusCancelled
	if err := s.visits.Update(ctx, visit); err != nil {
		return nil, service.StoreError("visit", err)
	}
	s.metrics.VisitTransition.WithLabelValues(string(model.VisitStatusCancelled)).Inc()
	s.logger.Info("visit cancelled", "visit_id", visit.ID.String())
	return visit, nil
}

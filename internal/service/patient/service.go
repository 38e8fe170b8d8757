package patient

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service"
	"github.com/jwalitptl/clinic-api/pkg/egn"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

type PatientService interface {
	CreatePatient(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error)
	GetPatient(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	GetPatientByEGN(ctx context.Context, egn string) (*model.Patient, error)
	RecordInsurancePayment(ctx context.Context, id uuid.UUID, req *model.RecordInsurancePaymentRequest) (*model.Patient, error)
}

type Service struct {
	repo      repository.PatientRepository
	doctors   repository.DoctorRepository
	validator validator.Validator
	logger    *logger.Logger
	now       func() time.Time
}

var _ PatientService = (*Service)(nil)

type Option func(*Service)

// WithClock replaces time.Now; payments dated after the clock's day are rejected.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo repository.PatientRepository, doctors repository.DoctorRepository, v validator.Validator, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		doctors:   doctors,
		validator: v,
		logger:    log,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// paymentDate truncates paidOn to its day and rejects days after today.
func (s *Service) paymentDate(paidOn time.Time) (time.Time, error) {
	paid := model.DateOf(paidOn)
	if paid.After(model.DateOf(s.now())) {
		return time.Time{}, apperrors.BadRequest("insurance payment date cannot be in the future", nil)
	}
	return paid, nil
}

// CreatePatient registers a patient with a valid, unused EGN under an active GP.
func (s *Service) CreatePatient(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, service.InvalidInput(err)
	}
	if err := egn.Validate(req.EGN); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	gp, err := s.doctors.FindActive(ctx, req.GPID)
	if err != nil {
		return nil, service.StoreError("general practitioner", err)
	}
	if !gp.IsGP {
		return nil, apperrors.BadRequest("selected doctor is not a general practitioner", nil)
	}

	patient := &model.Patient{
		EGN:   req.EGN,
		Name:  strings.TrimSpace(req.Name),
		Email: req.Email,
		GPID:  gp.ID,
	}
	if req.LastInsurancePayment != nil {
		paid, err := s.paymentDate(*req.LastInsurancePayment)
		if err != nil {
			return nil, err
		}
		patient.LastInsurancePayment = &paid
	}

	if err := s.repo.Create(ctx, patient); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Duplicate("a patient with this EGN already exists", err)
		}
		return nil, service.StoreError("patient", err)
	}

	s.logger.Info("patient created", "patient_id", patient.ID.String(), "gp_id", gp.ID.String())
	return patient, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	patient, err := s.repo.FindActive(ctx, id)
	if err != nil {
		return nil, service.StoreError("patient", err)
	}
	return patient, nil
}

func (s *Service) GetPatientByEGN(ctx context.Context, number string) (*model.Patient, error) {
	patient, err := s.repo.FindActiveByEGN(ctx, number)
	if err != nil {
		return nil, service.StoreError("patient", err)
	}
	return patient, nil
}

// RecordInsurancePayment stores the date of the latest insurance contribution.
// The date may not be later than today. req.Version must match the stored patient.
func (s *Service) RecordInsurancePayment(ctx context.Context, id uuid.UUID, req *model.RecordInsurancePaymentRequest) (*model.Patient, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, service.InvalidInput(err)
	}
	paid, err := s.paymentDate(req.PaidOn)
	if err != nil {
		return nil, err
	}
	patient, err := s.repo.FindActive(ctx, id)
	if err != nil {
		return nil, service.StoreError("patient", err)
	}

	patient.LastInsurancePayment = &paid
	patient.Version = req.Version

	if err := s.repo.Update(ctx, patient); err != nil {
		return nil, service.StoreError("patient", err)
	}
	return patient, nil
}

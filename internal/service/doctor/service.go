package doctor

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

type Service struct {
	repo      repository.DoctorRepository
	validator validator.Validator
	logger    *logger.Logger
}

func NewService(repo repository.DoctorRepository, v validator.Validator, log *logger.Logger) *Service {
	return &Service{repo: repo, validator: v, logger: log}
}

func (s *Service) CreateDoctor(ctx context.Context, req *model.CreateDoctorRequest) (*model.Doctor, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, service.InvalidInput(err)
	}

	doctor := &model.Doctor{
		Name:        strings.TrimSpace(req.Name),
		UIN:         strings.TrimSpace(req.UIN),
		IsGP:        req.IsGP,
		Specialties: append([]string{}, req.Specialties...),
	}
	if err := s.repo.Create(ctx, doctor); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Duplicate("a doctor with this UIN already exists", err)
		}
		return nil, service.StoreError("doctor", err)
	}

	s.logger.Info("doctor created", "doctor_id", doctor.ID.String(), "is_gp", doctor.IsGP)
	return doctor, nil
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	doctor, err := s.repo.FindActive(ctx, id)
	if err != nil {
		return nil, service.StoreError("doctor", err)
	}
	return doctor, nil
}

func (s *Service) GetDoctorByUIN(ctx context.Context, uin string) (*model.Doctor, error) {
	doctor, err := s.repo.FindActiveByUIN(ctx, uin)
	if err != nil {
		return nil, service.StoreError("doctor", err)
	}
	return doctor, nil
}

package diagnosis

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

type Service struct {
	repo      repository.DiagnosisRepository
	validator validator.Validator
}

func NewService(repo repository.DiagnosisRepository, v validator.Validator) *Service {
	return &Service{repo: repo, validator: v}
}

func (s *Service) CreateDiagnosis(ctx context.Context, req *model.CreateDiagnosisRequest) (*model.Diagnosis, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, service.InvalidInput(err)
	}
	diagnosis := &model.Diagnosis{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
	}
	if err := s.repo.Create(ctx, diagnosis); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Duplicate("a diagnosis with this name already exists", err)
		}
		return nil, service.StoreError("diagnosis", err)
	}
	return diagnosis, nil
}

func (s *Service) GetDiagnosis(ctx context.Context, id uuid.UUID) (*model.Diagnosis, error) {
	diagnosis, err := s.repo.FindActive(ctx, id)
	if err != nil {
		return nil, service.StoreError("diagnosis", err)
	}
	return diagnosis, nil
}

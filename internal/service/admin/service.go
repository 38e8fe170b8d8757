// Package admin exposes the soft-delete store of every record type by name.
package admin

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/logger"
)

// Entity type names accepted by Service.
const (
	EntityPatient   = "patient"
	EntityDoctor    = "doctor"
	EntityDiagnosis = "diagnosis"
	EntityVisit     = "visit"
)

// entityStore erases the record type so one registry can hold every store.
type entityStore interface {
	findActive(ctx context.Context, id uuid.UUID) (model.Record, error)
	findActivePage(ctx context.Context, criteria repository.Criteria, page model.Pagination) (interface{}, error)
	findAllDeleted(ctx context.Context) (interface{}, error)
	softDelete(ctx context.Context, id uuid.UUID, expectedVersion int64) error
	hardDelete(ctx context.Context, id uuid.UUID) error
	purgeDeletedBefore(ctx context.Context, cutoff time.Time) (int, error)
}

type typedStore[T any, P interface {
	*T
	model.Record
}] struct {
	repo repository.SoftDeleteStore[T]
}

func (s typedStore[T, P]) findActive(ctx context.Context, id uuid.UUID) (model.Record, error) {
	rec, err := s.repo.FindActive(ctx, id)
	if err != nil {
		return nil, err
	}
	return P(rec), nil
}

func (s typedStore[T, P]) findActivePage(ctx context.Context, criteria repository.Criteria, page model.Pagination) (interface{}, error) {
	return s.repo.FindActivePage(ctx, criteria, page)
}

func (s typedStore[T, P]) findAllDeleted(ctx context.Context) (interface{}, error) {
	return s.repo.FindAllDeleted(ctx)
}

func (s typedStore[T, P]) softDelete(ctx context.Context, id uuid.UUID, expectedVersion int64) error {
	return s.repo.SoftDelete(ctx, id, expectedVersion)
}

func (s typedStore[T, P]) hardDelete(ctx context.Context, id uuid.UUID) error {
	return s.repo.HardDelete(ctx, id)
}

// purgeDeletedBefore hard-deletes rows soft-deleted before cutoff. Rows that are
// still referenced, or already gone, are skipped.
func (s typedStore[T, P]) purgeDeletedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	deleted, err := s.repo.FindAllDeleted(ctx)
	if err != nil {
		return 0, err
	}
	purged := 0
	for _, rec := range deleted {
		b := P(rec).Meta()
		if b.DeletedAt == nil || !b.DeletedAt.Before(cutoff) {
			continue
		}
		err := s.repo.HardDelete(ctx, b.ID)
		switch {
		case err == nil:
			purged++
		case errors.Is(err, repository.ErrInUse), errors.Is(err, repository.ErrNotFound):
		default:
			return purged, err
		}
	}
	return purged, nil
}

type Service struct {
	stores map[string]entityStore
	logger *logger.Logger
}

func NewService(
	patients repository.PatientRepository,
	doctors repository.DoctorRepository,
	diagnoses repository.DiagnosisRepository,
	visits repository.VisitRepository,
	log *logger.Logger,
) *Service {
	return &Service{
		stores: map[string]entityStore{
			EntityPatient:   typedStore[model.Patient, *model.Patient]{patients},
			EntityDoctor:    typedStore[model.Doctor, *model.Doctor]{doctors},
			EntityDiagnosis: typedStore[model.Diagnosis, *model.Diagnosis]{diagnoses},
			EntityVisit:     typedStore[model.Visit, *model.Visit]{visits},
		},
		logger: log,
	}
}

// Entities lists the accepted entity type names in order.
func (s *Service) Entities() []string {
	names := make([]string, 0, len(s.stores))
	for name := range s.stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Service) store(entity string) (entityStore, error) {
	st, ok := s.stores[entity]
	if !ok {
		return nil, apperrors.BadRequest(fmt.Sprintf("unknown entity type %q", entity), nil)
	}
	return st, nil
}

func (s *Service) FindActive(ctx context.Context, entity string, id uuid.UUID) (model.Record, error) {
	st, err := s.store(entity)
	if err != nil {
		return nil, err
	}
	rec, err := st.findActive(ctx, id)
	if err != nil {
		return nil, service.StoreError(entity, err)
	}
	return rec, nil
}

// FindActivePage returns a *model.Page of the entity's record type.
func (s *Service) FindActivePage(ctx context.Context, entity string, criteria repository.Criteria, page model.Pagination) (interface{}, error) {
	st, err := s.store(entity)
	if err != nil {
		return nil, err
	}
	result, err := st.findActivePage(ctx, criteria, page)
	if err != nil {
		return nil, service.StoreError(entity, err)
	}
	return result, nil
}

// FindAllDeleted returns a slice of the entity's soft-deleted records.
func (s *Service) FindAllDeleted(ctx context.Context, entity string) (interface{}, error) {
	st, err := s.store(entity)
	if err != nil {
		return nil, err
	}
	result, err := st.findAllDeleted(ctx)
	if err != nil {
		return nil, service.StoreError(entity, err)
	}
	return result, nil
}

// SoftDelete flags the record as deleted. With expectedVersion 0 the current
// version is read first; a write landing in between still fails the swap.
func (s *Service) SoftDelete(ctx context.Context, entity string, id uuid.UUID, expectedVersion int64) error {
	st, err := s.store(entity)
	if err != nil {
		return err
	}
	if expectedVersion == 0 {
		rec, err := st.findActive(ctx, id)
		if err != nil {
			return service.StoreError(entity, err)
		}
		expectedVersion = rec.Meta().Version
	}
	if err := st.softDelete(ctx, id, expectedVersion); err != nil {
		return service.StoreError(entity, err)
	}
	s.logger.Info("record soft deleted", "entity", entity, "id", id.String(), "actor", model.ActorName(ctx))
	return nil
}

// HardDelete removes the record physically. Rows still referenced elsewhere fail with InUse.
func (s *Service) HardDelete(ctx context.Context, entity string, id uuid.UUID) error {
	st, err := s.store(entity)
	if err != nil {
		return err
	}
	if err := st.hardDelete(ctx, id); err != nil {
		return service.StoreError(entity, err)
	}
	s.logger.Warn("record hard deleted", "entity", entity, "id", id.String(), "actor", model.ActorName(ctx))
	return nil
}

// PurgeDeleted hard-deletes every record of entity that was soft-deleted before cutoff.
func (s *Service) PurgeDeleted(ctx context.Context, entity string, cutoff time.Time) (int, error) {
	st, err := s.store(entity)
	if err != nil {
		return 0, err
	}
	purged, err := st.purgeDeletedBefore(ctx, cutoff)
	if err != nil {
		return purged, service.StoreError(entity, err)
	}
	if purged > 0 {
		s.logger.Info("purged soft deleted records", "entity", entity, "count", purged, "cutoff", cutoff)
	}
	return purged, nil
}

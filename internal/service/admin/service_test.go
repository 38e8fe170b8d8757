package admin

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/repository/memory"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/logger"
)

func setup(t *testing.T) (*Service, *memory.Store, context.Context) {
	t.Helper()
	store := memory.New()
	ctx := model.WithActor(context.Background(), model.Actor{Subject: "root", Role: model.RoleAdmin})
	return NewService(store.Patients, store.Doctors, store.Diagnoses, store.Visits, logger.Nop()), store, ctx
}

func TestEntities(t *testing.T) {
	svc, _, _ := setup(t)
	assert.Equal(t, []string{"diagnosis", "doctor", "patient", "visit"}, svc.Entities())
}

func TestSoftDeleteLifecycle(t *testing.T) {
	svc, store, ctx := setup(t)

	doctor := &model.Doctor{Name: "Dr Petrova", UIN: "1"}
	require.NoError(t, store.Doctors.Create(ctx, doctor))

	rec, err := svc.FindActive(ctx, EntityDoctor, doctor.ID)
	require.NoError(t, err)
	assert.Equal(t, doctor.ID, rec.Meta().ID)
	assert.IsType(t, &model.Doctor{}, rec)

	require.NoError(t, svc.SoftDelete(ctx, EntityDoctor, doctor.ID, 0))

	_, err = svc.FindActive(ctx, EntityDoctor, doctor.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	err = svc.SoftDelete(ctx, EntityDoctor, doctor.ID, 0)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound), "deleting twice")

	deleted, err := svc.FindAllDeleted(ctx, EntityDoctor)
	require.NoError(t, err)
	doctors := deleted.([]*model.Doctor)
	require.Len(t, doctors, 1)
	assert.True(t, doctors[0].Deleted)
	assert.Equal(t, "root", doctors[0].UpdatedBy)
	assert.Equal(t, int64(2), doctors[0].Version)

	page, err := svc.FindActivePage(ctx, EntityDoctor, repository.Criteria{}, model.Pagination{})
	require.NoError(t, err)
	assert.Zero(t, page.(*model.Page[model.Doctor]).Total)

	require.NoError(t, svc.HardDelete(ctx, EntityDoctor, doctor.ID))
	deleted, err = svc.FindAllDeleted(ctx, EntityDoctor)
	require.NoError(t, err)
	assert.Empty(t, deleted.([]*model.Doctor))
}

func TestSoftDeleteWithStaleVersion(t *testing.T) {
	svc, store, ctx := setup(t)

	patient := &model.Patient{EGN: "7602290011", Name: "Ivan"}
	require.NoError(t, store.Patients.Create(ctx, patient))
	patient.Name = "Ivan Ivanov"
	require.NoError(t, store.Patients.Update(ctx, patient))

	err := svc.SoftDelete(ctx, EntityPatient, patient.ID, 1)
	assert.True(t, apperrors.Is(err, apperrors.ErrConcurrentModification))
	require.NoError(t, svc.SoftDelete(ctx, EntityPatient, patient.ID, 2))
}

func TestSoftDeletedVisitReleasesSlot(t *testing.T) {
	svc, store, ctx := setup(t)

	visit := func() *model.Visit {
		return &model.Visit{
			Date:      time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
			Time:      model.NewSlotTime(9, 0),
			DoctorID:  uuid.MustParse("6f1c1f0e-6b7e-4f43-9a55-111111111111"),
			PatientID: uuid.New(),
			Status:    model.VisitStatusScheduled,
		}
	}
	first := visit()
	require.NoError(t, store.Visits.CreateScheduled(ctx, first))
	assert.ErrorIs(t, store.Visits.CreateScheduled(ctx, visit()), repository.ErrSlotTaken)

	require.NoError(t, svc.SoftDelete(ctx, EntityVisit, first.ID, 0))
	assert.NoError(t, store.Visits.CreateScheduled(ctx, visit()))
}

func TestUnknownEntityAndCriteria(t *testing.T) {
	svc, _, ctx := setup(t)

	_, err := svc.FindActive(ctx, "invoice", uuid.New())
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
	assert.True(t, apperrors.Is(svc.HardDelete(ctx, "invoice", uuid.New()), apperrors.ErrBadRequest))

	_, err = svc.FindActivePage(ctx, EntityPatient, repository.Criteria{Filters: map[string]interface{}{"is_deleted": true}}, model.Pagination{})
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))

	assert.True(t, apperrors.Is(svc.HardDelete(ctx, EntityVisit, uuid.New()), apperrors.ErrNotFound))
}

func TestPurgeDeletedHonoursCutoff(t *testing.T) {
	svc, store, ctx := setup(t)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return now })

	old := &model.Diagnosis{Name: "Influenza"}
	recent := &model.Diagnosis{Name: "Migraine"}
	kept := &model.Diagnosis{Name: "Asthma"}
	for _, d := range []*model.Diagnosis{old, recent, kept} {
		require.NoError(t, store.Diagnoses.Create(ctx, d))
	}
	require.NoError(t, svc.SoftDelete(ctx, EntityDiagnosis, old.ID, 0))
	now = now.Add(48 * time.Hour)
	require.NoError(t, svc.SoftDelete(ctx, EntityDiagnosis, recent.ID, 0))

	purged, err := svc.PurgeDeleted(ctx, EntityDiagnosis, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	deleted, err := svc.FindAllDeleted(ctx, EntityDiagnosis)
	require.NoError(t, err)
	remaining := deleted.([]*model.Diagnosis)
	require.Len(t, remaining, 1)
	assert.Equal(t, recent.ID, remaining[0].ID)

	_, err = svc.FindActive(ctx, EntityDiagnosis, kept.ID)
	assert.NoError(t, err)

	_, err = svc.PurgeDeleted(ctx, "invoice", now)
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}

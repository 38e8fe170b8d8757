package diagnosis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository/memory"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

func TestDiagnosisService(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewService(store.Diagnoses, validator.New())

	d, err := svc.CreateDiagnosis(ctx, &model.CreateDiagnosisRequest{Name: "J06.9", Description: "Acute upper respiratory infection"})
	require.NoError(t, err)

	got, err := svc.GetDiagnosis(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "J06.9", got.Name)

	_, err = svc.CreateDiagnosis(ctx, &model.CreateDiagnosisRequest{Name: "J06.9"})
	assert.True(t, apperrors.Is(err, apperrors.ErrDuplicate))

	_, err = svc.CreateDiagnosis(ctx, &model.CreateDiagnosisRequest{Name: ""})
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))

	require.NoError(t, store.Diagnoses.SoftDelete(ctx, d.ID, d.Version))
	_, err = svc.GetDiagnosis(ctx, d.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	again, err := svc.CreateDiagnosis(ctx, &model.CreateDiagnosisRequest{Name: "J06.9"})
	require.NoError(t, err, "a deleted diagnosis does not block its name")
	assert.NotEqual(t, d.ID, again.ID)
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

type diagnosisRepository struct {
	*softDeleteTable[model.Diagnosis, model.Diagnosis]
}

func NewDiagnosisRepository(db *sqlx.DB, m *metrics.Metrics) repository.DiagnosisRepository {
	return &diagnosisRepository{&softDeleteTable[model.Diagnosis, model.Diagnosis]{
		BaseRepository: NewBaseRepository(db, m),
		name:           "diagnoses",
		columns:        baseColumns + ", name, description",
		queryable:      queryable(repository.DiagnosisColumns...),
		toModel:        identity[model.Diagnosis],
	}}
}

func (r *diagnosisRepository) Create(ctx context.Context, diagnosis *model.Diagnosis) (err error) {
	defer func(start time.Time) { r.observe("diagnoses.create", start, err) }(time.Now())

	query := `
		INSERT INTO diagnoses (
			id, name, description,
			created_at, updated_at, created_by, updated_by, is_deleted, version
		) VALUES (
			:id, :name, :description,
			:created_at, :updated_at, :created_by, :updated_by, :is_deleted, :version
		)
	`
	diagnosis.Stamp(model.ActorName(ctx), now())

	if _, err := r.db.NamedExecContext(ctx, query, diagnosis); err != nil {
		return fmt.Errorf("failed to create diagnosis: %w", mapError(err))
	}
	return nil
}

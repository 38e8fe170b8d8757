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

type patientRepository struct {
	*softDeleteTable[model.Patient, model.Patient]
}

func NewPatientRepository(db *sqlx.DB, m *metrics.Metrics) repository.PatientRepository {
	return &patientRepository{&softDeleteTable[model.Patient, model.Patient]{
		BaseRepository: NewBaseRepository(db, m),
		name:           "patients",
		columns:        baseColumns + ", egn, name, email, last_insurance_payment, gp_id",
		queryable:      queryable(repository.PatientColumns...),
		toModel: func(p *model.Patient) *model.Patient {
			if p.LastInsurancePayment != nil {
				paid := model.DateOf(*p.LastInsurancePayment)
				p.LastInsurancePayment = &paid
			}
			return p
		},
	}}
}

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) (err error) {
	defer func(start time.Time) { r.observe("patients.create", start, err) }(time.Now())

	query := `
		INSERT INTO patients (
			id, egn, name, email, last_insurance_payment, gp_id,
			created_at, updated_at, created_by, updated_by, is_deleted, version
		) VALUES (
			:id, :egn, :name, :email, :last_insurance_payment, :gp_id,
			:created_at, :updated_at, :created_by, :updated_by, :is_deleted, :version
		)
	`
	patient.Stamp(model.ActorName(ctx), now())

	if _, err := r.db.NamedExecContext(ctx, query, patient); err != nil {
		return fmt.Errorf("failed to create patient: %w", mapError(err))
	}
	return nil
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) (err error) {
	defer func(start time.Time) { r.observe("patients.update", start, err) }(time.Now())

	query := `
		UPDATE patients
		SET egn = :egn, name = :name, email = :email,
			last_insurance_payment = :last_insurance_payment, gp_id = :gp_id,
			updated_at = :updated_at, updated_by = :updated_by, version = version + 1
		WHERE id = :id AND version = :version AND NOT is_deleted
	`
	patient.Touch(model.ActorName(ctx), now())

	result, err := r.db.NamedExecContext(ctx, query, patient)
	if err != nil {
		return fmt.Errorf("failed to update patient: %w", mapError(err))
	}
	if err := r.checkSwapped(ctx, r.db, result.RowsAffected, patient.ID); err != nil {
		return err
	}
	patient.Version++
	return nil
}

func (r *patientRepository) FindActiveByEGN(ctx context.Context, egn string) (*model.Patient, error) {
	return r.findActiveWhere(ctx, "egn", egn)
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

// doctorRow scans the text[] specialties column.
type doctorRow struct {
	model.Doctor
	Specialties pq.StringArray `db:"specialties"`
}

type doctorRepository struct {
	*softDeleteTable[model.Doctor, doctorRow]
}

func NewDoctorRepository(db *sqlx.DB, m *metrics.Metrics) repository.DoctorRepository {
	return &doctorRepository{&softDeleteTable[model.Doctor, doctorRow]{
		BaseRepository: NewBaseRepository(db, m),
		name:           "doctors",
		columns:        baseColumns + ", name, uin, is_gp, specialties",
		queryable:      queryable(repository.DoctorColumns...),
		toModel: func(r *doctorRow) *model.Doctor {
			d := r.Doctor
			d.Specialties = []string(r.Specialties)
			if d.Specialties == nil {
				d.Specialties = []string{}
			}
			return &d
		},
	}}
}

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor) (err error) {
	defer func(start time.Time) { r.observe("doctors.create", start, err) }(time.Now())

	query := `
		INSERT INTO doctors (
			id, name, uin, is_gp, specialties,
			created_at, updated_at, created_by, updated_by, is_deleted, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	doctor.Stamp(model.ActorName(ctx), now())

	_, err = r.db.ExecContext(ctx, query,
		doctor.ID,
		doctor.Name,
		doctor.UIN,
		doctor.IsGP,
		pq.Array(doctor.Specialties),
		doctor.CreatedAt,
		doctor.UpdatedAt,
		doctor.CreatedBy,
		doctor.UpdatedBy,
		doctor.Deleted,
		doctor.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to create doctor: %w", mapError(err))
	}
	return nil
}

func (r *doctorRepository) Update(ctx context.Context, doctor *model.Doctor) (err error) {
	defer func(start time.Time) { r.observe("doctors.update", start, err) }(time.Now())

	query := `
		UPDATE doctors
		SET name = $1, uin = $2, is_gp = $3, specialties = $4,
			updated_at = $5, updated_by = $6, version = version + 1
		WHERE id = $7 AND version = $8 AND NOT is_deleted
	`
	doctor.Touch(model.ActorName(ctx), now())

	result, err := r.db.ExecContext(ctx, query,
		doctor.Name,
		doctor.UIN,
		doctor.IsGP,
		pq.Array(doctor.Specialties),
		doctor.UpdatedAt,
		doctor.UpdatedBy,
		doctor.ID,
		doctor.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update doctor: %w", mapError(err))
	}
	if err := r.checkSwapped(ctx, r.db, result.RowsAffected, doctor.ID); err != nil {
		return err
	}
	doctor.Version++
	return nil
}

func (r *doctorRepository) FindActiveByUIN(ctx context.Context, uin string) (*model.Doctor, error) {
	return r.findActiveWhere(ctx, "uin", uin)
}

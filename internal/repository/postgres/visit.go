package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

// treatmentRow scans the jsonb medicines column.
type treatmentRow struct {
	model.Treatment
	MedicinesJSON []byte `db:"medicines"`
}

type visitRepository struct {
	*softDeleteTable[model.Visit, model.Visit]
}

func NewVisitRepository(db *sqlx.DB, m *metrics.Metrics) repository.VisitRepository {
	r := &visitRepository{&softDeleteTable[model.Visit, model.Visit]{
		BaseRepository: NewBaseRepository(db, m),
		name:           "visits",
		columns:        baseColumns + ", visit_date, slot_minute, patient_id, doctor_id, diagnosis_id, status, notes",
		queryable:      queryable(repository.VisitColumns...),
		toModel: func(v *model.Visit) *model.Visit {
			v.Date = model.DateOf(v.Date)
			return v
		},
	}}
	r.hydrate = r.loadChildren
	return r
}

func (r *visitRepository) CreateScheduled(ctx context.Context, visit *model.Visit) (err error) {
	defer func(start time.Time) { r.observe("visits.create_scheduled", start, err) }(time.Now())

	if visit.Status != model.VisitStatusScheduled {
		return fmt.Errorf("new visit must be %s, got %s", model.VisitStatusScheduled, visit.Status)
	}

	// The insert is the check: visits_active_slot_uidx rejects a second holder
	// of the slot, so concurrent bookings serialize in the index.
	query := `
		INSERT INTO visits (
			id, visit_date, slot_minute, patient_id, doctor_id, diagnosis_id, status, notes,
			created_at, updated_at, created_by, updated_by, is_deleted, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	visit.Stamp(model.ActorName(ctx), now())
	visit.Date = model.DateOf(visit.Date)

	_, err = r.db.ExecContext(ctx, query,
		visit.ID,
		visit.Date,
		visit.Time,
		visit.PatientID,
		visit.DoctorID,
		visit.DiagnosisID,
		visit.Status,
		visit.Notes,
		visit.CreatedAt,
		visit.UpdatedAt,
		visit.CreatedBy,
		visit.UpdatedBy,
		visit.Deleted,
		visit.Version,
	)
	return mapError(err)
}

func (r *visitRepository) Update(ctx context.Context, visit *model.Visit) (err error) {
	defer func(start time.Time) { r.observe("visits.update", start, err) }(time.Now())

	return r.updateVisit(ctx, r.db, visit)
}

// updateVisit is the compare-and-swap write of the visit row alone.
func (r *visitRepository) updateVisit(ctx context.Context, q sqlx.ExtContext, visit *model.Visit) error {
	query := `
		UPDATE visits
		SET visit_date = $1, slot_minute = $2, doctor_id = $3, diagnosis_id = $4, status = $5, notes = $6,
			updated_at = $7, updated_by = $8, version = version + 1
		WHERE id = $9 AND version = $10 AND NOT is_deleted
	`
	visit.Touch(model.ActorName(ctx), now())
	visit.Date = model.DateOf(visit.Date)

	result, err := q.ExecContext(ctx, query,
		visit.Date,
		visit.Time,
		visit.DoctorID,
		visit.DiagnosisID,
		visit.Status,
		visit.Notes,
		visit.UpdatedAt,
		visit.UpdatedBy,
		visit.ID,
		visit.Version,
	)
	if err != nil {
		return mapError(err)
	}
	if err := r.checkSwapped(ctx, q, result.RowsAffected, visit.ID); err != nil {
		return err
	}
	visit.Version++
	return nil
}

// Document runs the visit update and the child inserts in one transaction.
// A lost version race rolls back the children too.
func (r *visitRepository) Document(ctx context.Context, visit *model.Visit) (err error) {
	defer func(start time.Time) { r.observe("visits.document", start, err) }(time.Now())

	version := visit.Version
	err = r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := r.updateVisit(ctx, tx, visit); err != nil {
			return err
		}
		actor, stamp := model.ActorName(ctx), now()

		if t := visit.Treatment; t != nil {
			t.Stamp(actor, stamp)
			t.VisitID = visit.ID
			if t.Medicines == nil {
				t.Medicines = []model.Medicine{}
			}
			medicines, err := json.Marshal(t.Medicines)
			if err != nil {
				return fmt.Errorf("failed to encode medicines: %w", err)
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO treatments (
					id, visit_id, instructions, medicines,
					created_at, updated_at, created_by, updated_by, is_deleted, version
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			`, t.ID, t.VisitID, t.Instructions, medicines,
				t.CreatedAt, t.UpdatedAt, t.CreatedBy, t.UpdatedBy, t.Deleted, t.Version)
			if err != nil {
				return mapError(err)
			}
		}

		if sl := visit.SickLeave; sl != nil {
			sl.Stamp(actor, stamp)
			sl.VisitID = visit.ID
			sl.StartDate = model.DateOf(sl.StartDate)
			_, err := tx.ExecContext(ctx, `
				INSERT INTO sick_leaves (
					id, visit_id, start_date, days,
					created_at, updated_at, created_by, updated_by, is_deleted, version
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			`, sl.ID, sl.VisitID, sl.StartDate, sl.Days,
				sl.CreatedAt, sl.UpdatedAt, sl.CreatedBy, sl.UpdatedBy, sl.Deleted, sl.Version)
			if err != nil {
				return mapError(err)
			}
		}
		return nil
	})
	if err != nil {
		visit.Version = version
	}
	return err
}

func (r *visitRepository) ListActiveByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, date time.Time) (visits []*model.Visit, err error) {
	defer func(start time.Time) { r.observe("visits.list_by_doctor_date", start, err) }(time.Now())

	query := fmt.Sprintf(`
		SELECT %s FROM visits
		WHERE doctor_id = $1 AND visit_date = $2 AND NOT is_deleted
		ORDER BY slot_minute, created_at
	`, r.columns)
	return r.load(ctx, r.db, query, doctorID, model.DateOf(date))
}

// loadChildren attaches the active treatment and sick leave of each visit.
func (r *visitRepository) loadChildren(ctx context.Context, q sqlx.QueryerContext, visits []*model.Visit) error {
	ids := make(pq.StringArray, 0, len(visits))
	byID := make(map[uuid.UUID]*model.Visit, len(visits))
	for _, v := range visits {
		ids = append(ids, v.ID.String())
		byID[v.ID] = v
	}

	var treatments []treatmentRow
	err := sqlx.SelectContext(ctx, q, &treatments, `
		SELECT `+baseColumns+`, visit_id, instructions, medicines
		FROM treatments WHERE visit_id = ANY($1::uuid[]) AND NOT is_deleted
	`, ids)
	if err != nil {
		return mapError(err)
	}
	for i := range treatments {
		t := treatments[i].Treatment
		if err := json.Unmarshal(treatments[i].MedicinesJSON, &t.Medicines); err != nil {
			return fmt.Errorf("failed to decode medicines of treatment %s: %w", t.ID, err)
		}
		if v, ok := byID[t.VisitID]; ok {
			v.Treatment = &t
		}
	}

	var leaves []model.SickLeave
	err = sqlx.SelectContext(ctx, q, &leaves, `
		SELECT `+baseColumns+`, visit_id, start_date, days
		FROM sick_leaves WHERE visit_id = ANY($1::uuid[]) AND NOT is_deleted
	`, ids)
	if err != nil {
		return mapError(err)
	}
	for i := range leaves {
		sl := leaves[i]
		sl.StartDate = model.DateOf(sl.StartDate)
		if v, ok := byID[sl.VisitID]; ok {
			v.SickLeave = &sl
		}
	}
	return nil
}

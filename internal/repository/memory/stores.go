package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

// Store bundles one repository per record type.
type Store struct {
	Patients  *PatientStore
	Doctors   *DoctorStore
	Diagnoses *DiagnosisStore
	Visits    *VisitStore
}

func New() *Store {
	return &Store{
		Patients:  NewPatientStore(),
		Doctors:   NewDoctorStore(),
		Diagnoses: NewDiagnosisStore(),
		Visits:    NewVisitStore(),
	}
}

// SetClock replaces the timestamp source of every table.
func (s *Store) SetClock(now func() time.Time) {
	s.Patients.now = now
	s.Doctors.now = now
	s.Diagnoses.now = now
	s.Visits.now = now
}

type PatientStore struct {
	*table[model.Patient, *model.Patient]
}

var _ repository.PatientRepository = (*PatientStore)(nil)

func NewPatientStore() *PatientStore {
	return &PatientStore{newTable[model.Patient, *model.Patient](
		clonePatient,
		map[string]func(*model.Patient) interface{}{
			"id":         func(p *model.Patient) interface{} { return p.ID },
			"created_at": func(p *model.Patient) interface{} { return p.CreatedAt },
			"updated_at": func(p *model.Patient) interface{} { return p.UpdatedAt },
			"name":       func(p *model.Patient) interface{} { return p.Name },
			"egn":        func(p *model.Patient) interface{} { return p.EGN },
			"email":      func(p *model.Patient) interface{} { return p.Email },
			"gp_id":      func(p *model.Patient) interface{} { return p.GPID },
			"last_insurance_payment": func(p *model.Patient) interface{} { return p.LastInsurancePayment },
		},
		uniqueIndex[model.Patient]{
			err: fmt.Errorf("%w: egn", repository.ErrDuplicate),
			key: func(p *model.Patient) (string, bool) { return p.EGN, !p.Deleted },
		},
	)}
}

func clonePatient(p *model.Patient) *model.Patient {
	c := *p
	if p.LastInsurancePayment != nil {
		paid := *p.LastInsurancePayment
		c.LastInsurancePayment = &paid
	}
	return &c
}

func (s *PatientStore) Create(ctx context.Context, patient *model.Patient) error {
	return s.insert(ctx, patient)
}

func (s *PatientStore) Update(ctx context.Context, patient *model.Patient) error {
	return s.update(ctx, patient)
}

func (s *PatientStore) FindActiveByEGN(_ context.Context, egn string) (*model.Patient, error) {
	return s.findActiveBy(func(p *model.Patient) bool { return p.EGN == egn })
}

type DoctorStore struct {
	*table[model.Doctor, *model.Doctor]
}

var _ repository.DoctorRepository = (*DoctorStore)(nil)

func NewDoctorStore() *DoctorStore {
	return &DoctorStore{newTable[model.Doctor, *model.Doctor](
		func(d *model.Doctor) *model.Doctor {
			c := *d
			c.Specialties = append([]string(nil), d.Specialties...)
			return &c
		},
		map[string]func(*model.Doctor) interface{}{
			"id":         func(d *model.Doctor) interface{} { return d.ID },
			"created_at": func(d *model.Doctor) interface{} { return d.CreatedAt },
			"updated_at": func(d *model.Doctor) interface{} { return d.UpdatedAt },
			"name":       func(d *model.Doctor) interface{} { return d.Name },
			"uin":        func(d *model.Doctor) interface{} { return d.UIN },
			"is_gp":      func(d *model.Doctor) interface{} { return d.IsGP },
		},
		uniqueIndex[model.Doctor]{
			err: fmt.Errorf("%w: uin", repository.ErrDuplicate),
			key: func(d *model.Doctor) (string, bool) { return d.UIN, !d.Deleted },
		},
	)}
}

func (s *DoctorStore) Create(ctx context.Context, doctor *model.Doctor) error {
	return s.insert(ctx, doctor)
}

func (s *DoctorStore) Update(ctx context.Context, doctor *model.Doctor) error {
	return s.update(ctx, doctor)
}

func (s *DoctorStore) FindActiveByUIN(_ context.Context, uin string) (*model.Doctor, error) {
	return s.findActiveBy(func(d *model.Doctor) bool { return d.UIN == uin })
}

type DiagnosisStore struct {
	*table[model.Diagnosis, *model.Diagnosis]
}

var _ repository.DiagnosisRepository = (*DiagnosisStore)(nil)

func NewDiagnosisStore() *DiagnosisStore {
	return &DiagnosisStore{newTable[model.Diagnosis, *model.Diagnosis](
		func(d *model.Diagnosis) *model.Diagnosis { c := *d; return &c },
		map[string]func(*model.Diagnosis) interface{}{
			"id":         func(d *model.Diagnosis) interface{} { return d.ID },
			"created_at": func(d *model.Diagnosis) interface{} { return d.CreatedAt },
			"updated_at": func(d *model.Diagnosis) interface{} { return d.UpdatedAt },
			"name":       func(d *model.Diagnosis) interface{} { return d.Name },
		},
		uniqueIndex[model.Diagnosis]{
			err: fmt.Errorf("%w: diagnosis name", repository.ErrDuplicate),
			key: func(d *model.Diagnosis) (string, bool) { return d.Name, !d.Deleted },
		},
	)}
}

func (s *DiagnosisStore) Create(ctx context.Context, diagnosis *model.Diagnosis) error {
	return s.insert(ctx, diagnosis)
}

type VisitStore struct {
	*table[model.Visit, *model.Visit]
}

var _ repository.VisitRepository = (*VisitStore)(nil)

func NewVisitStore() *VisitStore {
	return &VisitStore{newTable[model.Visit, *model.Visit](
		(*model.Visit).Clone,
		map[string]func(*model.Visit) interface{}{
			"id":         func(v *model.Visit) interface{} { return v.ID },
			"created_at": func(v *model.Visit) interface{} { return v.CreatedAt },
			"updated_at": func(v *model.Visit) interface{} { return v.UpdatedAt },
			"visit_date": func(v *model.Visit) interface{} { return v.Date },
			"slot_minute":  func(v *model.Visit) interface{} { return int64(v.Time) },
			"patient_id":   func(v *model.Visit) interface{} { return v.PatientID },
			"doctor_id":    func(v *model.Visit) interface{} { return v.DoctorID },
			"diagnosis_id": func(v *model.Visit) interface{} { return v.DiagnosisID },
			"status":       func(v *model.Visit) interface{} { return v.Status },
		},
		uniqueIndex[model.Visit]{
			err: repository.ErrSlotTaken,
			key: func(v *model.Visit) (string, bool) {
				return fmt.Sprintf("%s|%s|%d", v.DoctorID, v.Date.Format("2006-01-02"), v.Time),
					!v.Deleted && v.Status.HoldsSlot()
			},
		},
	)}
}

func (s *VisitStore) CreateScheduled(ctx context.Context, visit *model.Visit) error {
	if visit.Status != model.VisitStatusScheduled {
		return fmt.Errorf("new visit must be %s, got %s", model.VisitStatusScheduled, visit.Status)
	}
	visit.Date = model.DateOf(visit.Date)
	return s.insert(ctx, visit)
}

// Update keeps the stored treatment and sick leave; those are only written by Document.
func (s *VisitStore) Update(ctx context.Context, visit *model.Visit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.rows[visit.ID]; ok {
		visit.Treatment = current.Clone().Treatment
		visit.SickLeave = current.Clone().SickLeave
	}
	visit.Date = model.DateOf(visit.Date)
	return s.updateLocked(ctx, visit)
}

// Document stamps the owned children and writes the whole aggregate in one critical section.
func (s *VisitStore) Document(ctx context.Context, visit *model.Visit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.casTargetLocked(visit.ID, visit.Version); err != nil {
		return err
	}
	actor, now := model.ActorName(ctx), s.now()
	if visit.Treatment != nil && visit.Treatment.ID == uuid.Nil {
		visit.Treatment.Stamp(actor, now)
		visit.Treatment.VisitID = visit.ID
	}
	if visit.SickLeave != nil && visit.SickLeave.ID == uuid.Nil {
		visit.SickLeave.Stamp(actor, now)
		visit.SickLeave.VisitID = visit.ID
	}
	return s.updateLocked(ctx, visit)
}

func (s *VisitStore) ListActiveByDoctorAndDate(_ context.Context, doctorID uuid.UUID, date time.Time) ([]*model.Visit, error) {
	day := model.DateOf(date)
	visits := s.listActive(func(v *model.Visit) bool {
		return v.DoctorID == doctorID && v.Date.Equal(day)
	})
	sort.Slice(visits, func(i, j int) bool { return visits[i].Time < visits[j].Time })
	return visits, nil
}

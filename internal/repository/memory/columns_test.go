package memory

import (
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

func keys[T any](columns map[string]func(*T) interface{}) []string {
	out := make([]string, 0, len(columns))
	for k := range columns {
		out = append(out, k)
	}
	return out
}

func withBase(cols []string) []string {
	return append(append([]string(nil), repository.BaseColumns...), cols...)
}

func (s *StoreSuite) TestColumnsMatchSharedList() {
	s.ElementsMatch(withBase(repository.PatientColumns), keys(s.store.Patients.columns))
	s.ElementsMatch(withBase(repository.DoctorColumns), keys(s.store.Doctors.columns))
	s.ElementsMatch(withBase(repository.DiagnosisColumns), keys(s.store.Diagnoses.columns))
	s.ElementsMatch(withBase(repository.VisitColumns), keys(s.store.Visits.columns))
}

func (s *StoreSuite) TestEverySharedColumnFiltersAndSorts() {
	paid := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	patient := &model.Patient{EGN: "7602290011", Name: "Ivan", Email: "ivan@example.com", GPID: uuid.New(), LastInsurancePayment: &paid}
	s.Require().NoError(s.store.Patients.Create(s.ctx, patient))

	doctor := s.newDoctor("UIN-COL")
	diagnosis := &model.Diagnosis{Name: "flu"}
	s.Require().NoError(s.store.Diagnoses.Create(s.ctx, diagnosis))

	visit := s.newVisit(doctor.ID, model.NewSlotTime(9, 0))
	visit.PatientID = patient.ID
	visit.DiagnosisID = &diagnosis.ID
	s.Require().NoError(s.store.Visits.CreateScheduled(s.ctx, visit))

	// Values as they arrive from a query string.
	patientFilters := map[string]string{
		"id":                     patient.ID.String(),
		"egn":                    "7602290011",
		"name":                   "Ivan",
		"email":                  "ivan@example.com",
		"gp_id":                  patient.GPID.String(),
		"last_insurance_payment": "2025-03-01",
	}
	visitFilters := map[string]string{
		"id":           visit.ID.String(),
		"visit_date":   "2025-03-12",
		"slot_minute":  "540",
		"patient_id":   patient.ID.String(),
		"doctor_id":    doctor.ID.String(),
		"diagnosis_id": diagnosis.ID.String(),
		"status":       string(model.VisitStatusScheduled),
	}
	doctorFilters := map[string]string{"name": doctor.Name, "uin": "UIN-COL", "is_gp": "true"}

	for _, col := range withBase(repository.PatientColumns) {
		_, err := s.store.Patients.FindActivePage(s.ctx, repository.Criteria{Sort: model.SortOrder{Field: col}}, model.Pagination{})
		s.NoError(err, "sort %s", col)
		value, ok := patientFilters[col]
		if !ok {
			continue
		}
		page, err := s.store.Patients.FindActivePage(s.ctx, repository.Criteria{Filters: map[string]interface{}{col: value}}, model.Pagination{})
		s.Require().NoError(err, "filter %s", col)
		s.Equal(1, page.Total, "filter %s=%s", col, value)
	}

	for _, col := range withBase(repository.VisitColumns) {
		_, err := s.store.Visits.FindActivePage(s.ctx, repository.Criteria{Sort: model.SortOrder{Field: col, Dir: "desc"}}, model.Pagination{})
		s.NoError(err, "sort %s", col)
		value, ok := visitFilters[col]
		if !ok {
			continue
		}
		page, err := s.store.Visits.FindActivePage(s.ctx, repository.Criteria{Filters: map[string]interface{}{col: value}}, model.Pagination{})
		s.Require().NoError(err, "filter %s", col)
		s.Equal(1, page.Total, "filter %s=%s", col, value)
	}

	for _, col := range withBase(repository.DoctorColumns) {
		_, err := s.store.Doctors.FindActivePage(s.ctx, repository.Criteria{Sort: model.SortOrder{Field: col}}, model.Pagination{})
		s.NoError(err, "sort %s", col)
		if value, ok := doctorFilters[col]; ok {
			page, err := s.store.Doctors.FindActivePage(s.ctx, repository.Criteria{Filters: map[string]interface{}{col: value}}, model.Pagination{})
			s.Require().NoError(err, "filter %s", col)
			s.Equal(1, page.Total, "filter %s=%s", col, value)
		}
	}

	for _, col := range withBase(repository.DiagnosisColumns) {
		_, err := s.store.Diagnoses.FindActivePage(s.ctx, repository.Criteria{Sort: model.SortOrder{Field: col}}, model.Pagination{})
		s.NoError(err, "sort %s", col)
	}

	page, err := s.store.Visits.FindActivePage(s.ctx, repository.Criteria{Filters: map[string]interface{}{"slot_minute": "600"}}, model.Pagination{})
	s.Require().NoError(err)
	s.Zero(page.Total)
}

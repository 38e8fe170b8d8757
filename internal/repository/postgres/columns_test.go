package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/clinic-api/internal/repository"
)

func TestQueryableColumnsMatchSharedList(t *testing.T) {
	tests := []struct {
		name      string
		queryable map[string]bool
		selected  string
		want      []string
	}{
		{"patients", NewPatientRepository(nil, nil).(*patientRepository).queryable, NewPatientRepository(nil, nil).(*patientRepository).columns, repository.PatientColumns},
		{"doctors", NewDoctorRepository(nil, nil).(*doctorRepository).queryable, NewDoctorRepository(nil, nil).(*doctorRepository).columns, repository.DoctorColumns},
		{"diagnoses", NewDiagnosisRepository(nil, nil).(*diagnosisRepository).queryable, NewDiagnosisRepository(nil, nil).(*diagnosisRepository).columns, repository.DiagnosisColumns},
		{"visits", NewVisitRepository(nil, nil).(*visitRepository).queryable, NewVisitRepository(nil, nil).(*visitRepository).columns, repository.VisitColumns},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := append(append([]string(nil), repository.BaseColumns...), tt.want...)
			got := make([]string, 0, len(tt.queryable))
			for col := range tt.queryable {
				got = append(got, col)
			}
			assert.ElementsMatch(t, want, got)

			selected := strings.Split(tt.selected, ", ")
			for _, col := range want {
				assert.Contains(t, selected, col, "queryable column must exist on %s", tt.name)
			}
		})
	}
}

package repository

// Columns every record type exposes for filtering and sorting.
var BaseColumns = []string{"id", "created_at", "updated_at"}

// Record specific filter and sort columns. Both stores accept exactly
// BaseColumns plus these names, and compare values in their column form:
// dates as YYYY-MM-DD, slot_minute as minutes after midnight, ids as uuid text.
var (
	PatientColumns   = []string{"egn", "name", "email", "gp_id", "last_insurance_payment"}
	DoctorColumns    = []string{"name", "uin", "is_gp"}
	DiagnosisColumns = []string{"name"}
	VisitColumns     = []string{"visit_date", "slot_minute", "patient_id", "doctor_id", "diagnosis_id", "status"}
)

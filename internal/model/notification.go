package model

import (
	"time"

	"github.com/google/uuid"
)

// VisitBooked is published after a visit has been committed.
type VisitBooked struct {
	VisitID   uuid.UUID `json:"visit_id"`
	PatientID uuid.UUID `json:"patient_id"`
	DoctorID  uuid.UUID `json:"doctor_id"`
	Date      string    `json:"date"`
	Time      SlotTime  `json:"time"`
	Recipient string    `json:"recipient,omitempty"`
	BookedAt  time.Time `json:"booked_at"`
}

func NewVisitBooked(v *Visit, recipient string) VisitBooked {
	return VisitBooked{
		VisitID:   v.ID,
		PatientID: v.PatientID,
		DoctorID:  v.DoctorID,
		Date:      v.Date.Format("2006-01-02"),
		Time:      v.Time,
		Recipient: recipient,
		BookedAt:  v.CreatedAt,
	}
}

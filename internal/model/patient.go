package model

import (
	"time"

	"github.com/google/uuid"
)

type Patient struct {
	Base
	EGN                  string     `db:"egn" json:"egn"`
	Name                 string     `db:"name" json:"name"`
	Email                string     `db:"email" json:"email,omitempty"`
	LastInsurancePayment *time.Time `db:"last_insurance_payment" json:"last_insurance_payment,omitempty"`
	GPID                 uuid.UUID  `db:"gp_id" json:"gp_id"`
}

type CreatePatientRequest struct {
	Name                 string     `json:"name" validate:"notblank,max=200"`
	EGN                  string     `json:"egn" validate:"required"`
	Email                string     `json:"email" validate:"omitempty,email"`
	GPID                 uuid.UUID  `json:"gp_id" validate:"required"`
	LastInsurancePayment *time.Time `json:"last_insurance_payment"`
}

type RecordInsurancePaymentRequest struct {
	PaidOn  time.Time `json:"paid_on" validate:"required"`
	Version int64     `json:"version" validate:"required,min=1"`
}

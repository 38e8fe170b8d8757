package model

type Doctor struct {
	Base
	Name        string   `db:"name" json:"name"`
	UIN         string   `db:"uin" json:"uin"`
	IsGP        bool     `db:"is_gp" json:"is_gp"`
	Specialties []string `db:"-" json:"specialties"`
}

type CreateDoctorRequest struct {
	Name        string   `json:"name" validate:"notblank,max=200"`
	UIN         string   `json:"uin" validate:"notblank,max=20"`
	IsGP        bool     `json:"is_gp"`
	Specialties []string `json:"specialties" validate:"dive,notblank"`
}

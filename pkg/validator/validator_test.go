package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type patientForm struct {
	Name string `json:"name" validate:"notblank"`
	EGN  string `json:"egn" validate:"required,egn"`
	Days int    `json:"days" validate:"omitempty,min=1,max=30"`
}

func TestValidate(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(patientForm{Name: "Ivan", EGN: "7602290011"}))

	err := v.Validate(&patientForm{Name: "  ", EGN: "7602290014", Days: 31})
	require.Error(t, err)

	var errs Errors
	require.ErrorAs(t, err, &errs)
	assert.ElementsMatch(t, Errors{
		{Field: "name", Rule: "notblank"},
		{Field: "egn", Rule: "egn"},
		{Field: "days", Rule: "max"},
	}, errs)
}

func TestValidateField(t *testing.T) {
	v := New()

	assert.NoError(t, v.ValidateField("egn", "7612123454", "egn"))

	err := v.ValidateField("egn", "12", "required", "egn")
	var errs Errors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, "egn", errs[0].Field)
	assert.Equal(t, "egn", errs[0].Rule)
}

package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisitStatusTransitions(t *testing.T) {
	all := []VisitStatus{VisitStatusScheduled, VisitStatusCompleted, VisitStatusCancelled}
	allowed := map[[2]VisitStatus]bool{
		{VisitStatusScheduled, VisitStatusCompleted}: true,
		{VisitStatusScheduled, VisitStatusCancelled}: true,
	}

	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]VisitStatus{from, to}], from.CanTransition(to), "%s -> %s", from, to)
		}
	}

	assert.False(t, VisitStatusScheduled.IsTerminal())
	assert.True(t, VisitStatusCompleted.IsTerminal())
	assert.True(t, VisitStatusCancelled.IsTerminal())
	assert.False(t, VisitStatusCancelled.HoldsSlot())
	assert.True(t, VisitStatusCompleted.HoldsSlot())
}

func TestSlotTimeJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		T SlotTime `json:"t"`
	}{NewSlotTime(9, 30)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"t":"09:30"}`, string(b))

	var got SlotTime
	require.NoError(t, json.Unmarshal([]byte(`"16:30"`), &got))
	assert.Equal(t, NewSlotTime(16, 30), got)

	assert.Error(t, json.Unmarshal([]byte(`"25:00"`), &got))
	assert.Error(t, json.Unmarshal([]byte(`930`), &got))
}

func TestVisitCloneIsDeep(t *testing.T) {
	diag := uuid.New()
	v := &Visit{
		Date:        time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC),
		Time:        NewSlotTime(10, 0),
		DiagnosisID: &diag,
		Treatment:   &Treatment{Instructions: "rest", Medicines: []Medicine{{Name: "ibuprofen"}}},
		SickLeave:   &SickLeave{Days: 3},
	}

	c := v.Clone()
	c.Treatment.Medicines[0].Name = "changed"
	c.SickLeave.Days = 10
	*c.DiagnosisID = uuid.New()

	assert.Equal(t, "ibuprofen", v.Treatment.Medicines[0].Name)
	assert.Equal(t, 3, v.SickLeave.Days)
	assert.Equal(t, diag, *v.DiagnosisID)
	assert.Equal(t, time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC), v.StartsAt())
}

func TestPaginationNormalize(t *testing.T) {
	assert.Equal(t, Pagination{Page: 1, PageSize: DefaultPageSize}, Pagination{}.Normalize())
	assert.Equal(t, Pagination{Page: 3, PageSize: MaxPageSize}, Pagination{Page: 3, PageSize: 1000}.Normalize())
	assert.Equal(t, 40, Pagination{Page: 3, PageSize: 20}.Offset())
}

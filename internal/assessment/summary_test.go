package assessment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rskariadi-dev/manrura/internal/domain"
)

func TestSummarize(t *testing.T) {
	wards := []domain.Ward{{ID: "w1", Name: "Melati"}, {ID: "w2", Name: "Mawar"}}
	all := domain.AllAssessments{
		"w1": {
			"p1": {WardStaff: scored(10), Assessor: scored(5)},
			"p2": {WardStaff: scored(5), Assessor: scored(0)},
			"p3": {WardStaff: &domain.AssessmentScore{Notes: "belum"}},
			"gone": {Assessor: scored(10)},
		},
	}

	rows := Summarize([]string{"p1", "p2", "p3"}, wards, all)
	require.Len(t, rows, 2)

	w1 := rows[0]
	assert.Equal(t, "Melati", w1.WardName)
	assert.Equal(t, 3, w1.Points)
	assert.Equal(t, 2, w1.StaffScored)
	assert.Equal(t, 2, w1.Validated)
	assert.Equal(t, 15, w1.StaffTotal)
	assert.Equal(t, 5, w1.AssessorTotal)
	assert.InDelta(t, 16.67, w1.Achievement, 0.01)

	assert.Equal(t, WardSummary{WardID: "w2", WardName: "Mawar", Points: 3}, rows[1])
}

package assessment

import "github.com/rskariadi-dev/manrura/internal/domain"

// WardSummary is one row of the administrator's aggregate view.
type WardSummary struct {
	WardID        string  `json:"wardId"`
	WardName      string  `json:"wardName"`
	Points        int     `json:"points"`
	StaffScored   int     `json:"staffScored"`
	Validated     int     `json:"validated"`
	StaffTotal    int     `json:"staffTotal"`
	AssessorTotal int     `json:"assessorTotal"`
	Achievement   float64 `json:"achievement"` // validated score as a percentage of the maximum
}

func Summarize(pointIDs []string, wards []domain.Ward, all domain.AllAssessments) []WardSummary {
	maxScore := domain.ScoreValues[len(domain.ScoreValues)-1]

	out := make([]WardSummary, 0, len(wards))
	for _, w := range wards {
		row := WardSummary{WardID: w.ID, WardName: w.Name, Points: len(pointIDs)}
		data := all[w.ID]
		for _, id := range pointIDs {
			ps, ok := data[id]
			if !ok {
				continue
			}
			if ps.WardStaff.Scored() {
				row.StaffScored++
				row.StaffTotal += *ps.WardStaff.Score
			}
			if ps.Assessor.Scored() {
				row.Validated++
				row.AssessorTotal += *ps.Assessor.Score
			}
		}
		if row.Points > 0 {
			row.Achievement = float64(row.AssessorTotal) * 100 / float64(row.Points*maxScore)
		}
		out = append(out, row)
	}
	return out
}

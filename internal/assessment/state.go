package assessment

import "github.com/rskariadi-dev/manrura/internal/domain"

// PointState is the lifecycle of one checklist point within one ward.
type PointState int

const (
	Unassessed PointState = iota
	StaffScored
	Validated
)

func (s PointState) String() string {
	switch s {
	case Unassessed:
		return "unassessed"
	case StaffScored:
		return "staff-scored"
	case Validated:
		return "validated"
	}
	return "unknown"
}

// StateOf derives the state from the two scores. Any assessor score, 0 included, validates
// the point regardless of what ward staff recorded.
func StateOf(p domain.PointScores) PointState {
	switch {
	case p.Assessor.Scored():
		return Validated
	case p.WardStaff.Scored():
		return StaffScored
	default:
		return Unassessed
	}
}

// LockedForStaff reports whether ward staff edits are frozen for good.
func LockedForStaff(p domain.PointScores) bool {
	return StateOf(p) == Validated
}

package assessment

import (
	"errors"

	"github.com/rskariadi-dev/manrura/internal/domain"
)

var (
	ErrNotAuthenticated = errors.New("not signed in")
	ErrReadOnly         = errors.New("administrators have a read-only view of scores")
	ErrSlotNotAllowed   = errors.New("this role may not write that score")
	ErrWrongWard        = errors.New("ward staff may only score their own ward")
	ErrPeriodInactive   = errors.New("no assessment period is active, changes cannot be saved")
	ErrPointLocked      = errors.New("point has been validated by an assessor and can no longer be changed")
	ErrNotAdmin         = errors.New("only administrators can manage users, wards and periods")
)

// AuthorizationError is returned when the local policy refuses an action. It never reaches
// the network.
type AuthorizationError struct {
	Reason error
}

func (e *AuthorizationError) Error() string {
	return "not permitted: " + e.Reason.Error()
}

func (e *AuthorizationError) Unwrap() error {
	return e.Reason
}

// Warning reports whether the refusal is expected to be shown as a warning rather than as a
// failure.
func (e *AuthorizationError) Warning() bool {
	return errors.Is(e.Reason, ErrPeriodInactive) || errors.Is(e.Reason, ErrPointLocked)
}

func deny(reason error) error {
	return &AuthorizationError{Reason: reason}
}

// Authorize decides whether user may write the given score slot of a point in wardID.
// assessor is the point's current assessor score, nil when none exists.
func Authorize(user *domain.User, wardID string, slot domain.ScoreSlot, periodActive bool, assessor *domain.AssessmentScore) error {
	if user == nil {
		return deny(ErrNotAuthenticated)
	}

	switch user.Role {
	case domain.RoleAdmin:
		return deny(ErrReadOnly)
	case domain.RoleWardStaff:
		if slot != domain.SlotWardStaff {
			return deny(ErrSlotNotAllowed)
		}
		if user.WardID == "" || wardID != user.WardID {
			return deny(ErrWrongWard)
		}
		if assessor.Scored() {
			return deny(ErrPointLocked)
		}
		if !periodActive {
			return deny(ErrPeriodInactive)
		}
		return nil
	case domain.RoleAssessor:
		if slot != domain.SlotAssessor {
			return deny(ErrSlotNotAllowed)
		}
		if !periodActive {
			return deny(ErrPeriodInactive)
		}
		return nil
	default:
		return deny(ErrSlotNotAllowed)
	}
}

func CanWrite(user *domain.User, wardID string, slot domain.ScoreSlot, periodActive bool, assessor *domain.AssessmentScore) bool {
	return Authorize(user, wardID, slot, periodActive, assessor) == nil
}

// AuthorizeManage gates creation of users, wards and periods. Period state is irrelevant.
func AuthorizeManage(user *domain.User) error {
	if user == nil {
		return deny(ErrNotAuthenticated)
	}
	if user.Role != domain.RoleAdmin {
		return deny(ErrNotAdmin)
	}
	return nil
}

// Capabilities is the role decision resolved once, handed to views instead of the role.
type Capabilities struct {
	Role         domain.Role
	ScoreSlot    domain.ScoreSlot // empty means read-only
	HomeWardID   string
	ViewAllWards bool
	CanManage    bool
}

func CapabilitiesFor(user *domain.User) Capabilities {
	if user == nil {
		return Capabilities{}
	}
	c := Capabilities{Role: user.Role}
	switch user.Role {
	case domain.RoleAdmin:
		c.ViewAllWards = true
		c.CanManage = true
	case domain.RoleAssessor:
		c.ViewAllWards = true
		c.ScoreSlot = domain.SlotAssessor
	case domain.RoleWardStaff:
		c.ScoreSlot = domain.SlotWardStaff
		c.HomeWardID = user.WardID
	}
	return c
}

func (c Capabilities) CanView(wardID string) bool {
	return c.ViewAllWards || (c.HomeWardID != "" && c.HomeWardID == wardID)
}

// CanUpload reports whether evidence files may be attached. Only the roles that own a score
// slot upload.
func (c Capabilities) CanUpload() bool {
	return c.ScoreSlot != ""
}

// CanFetchEvidence reports whether user may download a file whose scores live in wardIDs. A
// file no score references yet stays with its uploader and administrators.
func CanFetchEvidence(user *domain.User, uploadedBy string, wardIDs []string) bool {
	if user == nil {
		return false
	}
	if user.ID == uploadedBy || user.Role == domain.RoleAdmin {
		return true
	}
	caps := CapabilitiesFor(user)
	for _, id := range wardIDs {
		if caps.CanView(id) {
			return true
		}
	}
	return false
}

// FilterVisible drops the wards user is not allowed to see.
func FilterVisible(user *domain.User, all domain.AllAssessments) domain.AllAssessments {
	caps := CapabilitiesFor(user)
	out := make(domain.AllAssessments)
	for wardID, data := range all {
		if caps.CanView(wardID) {
			out[wardID] = data
		}
	}
	return out
}

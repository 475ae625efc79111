package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// ScoreSlot names which of the two independent scores of a point is addressed.
type ScoreSlot string

const (
	SlotWardStaff ScoreSlot = "wardStaff"
	SlotAssessor  ScoreSlot = "assessor"
)

func (s ScoreSlot) Valid() bool {
	return s == SlotWardStaff || s == SlotAssessor
}

// ScoreValues are the only numeric scores a point can receive.
var ScoreValues = []int{0, 5, 10}

func ValidScore(v int) bool {
	return slices.Contains(ScoreValues, v)
}

var (
	ErrInvalidScore = errors.New("score must be one of 0, 5 or 10")
	ErrEmptyUpdate  = errors.New("update carries no field")
)

type Evidence struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Type   string `json:"type"`
	FileID string `json:"fileId"`
}

type AssessmentScore struct {
	Score      *int      `json:"score"`
	Notes      string    `json:"notes"`
	Evidence   *Evidence `json:"evidence"`
	AssessorID string    `json:"assessorId,omitempty"`
}

// Scored reports whether a numeric score is present. A score of 0 counts.
func (s *AssessmentScore) Scored() bool {
	return s != nil && s.Score != nil
}

// Merge applies u field by field, last write wins. The receiver is left untouched.
func (s AssessmentScore) Merge(u ScoreUpdate) AssessmentScore {
	if u.Score != nil {
		v := *u.Score
		s.Score = &v
	} else if s.Score != nil {
		v := *s.Score
		s.Score = &v
	}
	if u.Notes != nil {
		s.Notes = *u.Notes
	}
	switch {
	case u.ClearEvidence:
		s.Evidence = nil
	case u.Evidence != nil:
		ev := *u.Evidence
		s.Evidence = &ev
	case s.Evidence != nil:
		ev := *s.Evidence
		s.Evidence = &ev
	}
	if u.AssessorID != "" {
		s.AssessorID = u.AssessorID
	}
	return s
}

type PointScores struct {
	WardStaff *AssessmentScore `json:"wardStaff,omitempty"`
	Assessor  *AssessmentScore `json:"assessor,omitempty"`
}

func (p PointScores) Slot(slot ScoreSlot) *AssessmentScore {
	if slot == SlotAssessor {
		return p.Assessor
	}
	return p.WardStaff
}

func (p *PointScores) SetSlot(slot ScoreSlot, s *AssessmentScore) {
	if slot == SlotAssessor {
		p.Assessor = s
		return
	}
	p.WardStaff = s
}

// AssessmentData is keyed by point ID.
type AssessmentData map[string]PointScores

// AllAssessments is keyed by ward ID.
type AllAssessments map[string]AssessmentData

// Clone returns a deep copy so callers never share score pointers with the owner.
func (a AllAssessments) Clone() AllAssessments {
	out := make(AllAssessments, len(a))
	for wardID, data := range a {
		out[wardID] = data.Clone()
	}
	return out
}

func (d AssessmentData) Clone() AssessmentData {
	out := make(AssessmentData, len(d))
	for pointID, ps := range d {
		out[pointID] = ps.Clone()
	}
	return out
}

func (p PointScores) Clone() PointScores {
	return PointScores{
		WardStaff: cloneScore(p.WardStaff),
		Assessor:  cloneScore(p.Assessor),
	}
}

func cloneScore(s *AssessmentScore) *AssessmentScore {
	if s == nil {
		return nil
	}
	c := s.Merge(ScoreUpdate{})
	return &c
}

// ScoreUpdate is a partial update of one score. Evidence is tri-state: untouched, replaced,
// or cleared (`"evidence": null` on the wire).
type ScoreUpdate struct {
	Score         *int
	Notes         *string
	Evidence      *Evidence
	ClearEvidence bool
	AssessorID    string
}

func (u ScoreUpdate) Empty() bool {
	return u.Score == nil && u.Notes == nil && u.Evidence == nil && !u.ClearEvidence
}

func (u ScoreUpdate) Validate() error {
	if u.Empty() {
		return ErrEmptyUpdate
	}
	if u.Score != nil && !ValidScore(*u.Score) {
		return ErrInvalidScore
	}
	return nil
}

func (u ScoreUpdate) MarshalJSON() ([]byte, error) {
	m := map[string]any{}
	if u.Score != nil {
		m["score"] = *u.Score
	}
	if u.Notes != nil {
		m["notes"] = *u.Notes
	}
	if u.ClearEvidence {
		m["evidence"] = nil
	} else if u.Evidence != nil {
		m["evidence"] = u.Evidence
	}
	if u.AssessorID != "" {
		m["assessorId"] = u.AssessorID
	}
	return json.Marshal(m)
}

func (u *ScoreUpdate) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = ScoreUpdate{}

	isNull := func(b json.RawMessage) bool {
		return bytes.Equal(bytes.TrimSpace(b), []byte("null"))
	}

	if b, ok := raw["score"]; ok && !isNull(b) {
		var v int
		if err := json.Unmarshal(b, &v); err != nil {
			return fmt.Errorf("score: %w", err)
		}
		u.Score = &v
	}
	if b, ok := raw["notes"]; ok && !isNull(b) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return fmt.Errorf("notes: %w", err)
		}
		u.Notes = &v
	}
	if b, ok := raw["evidence"]; ok {
		if isNull(b) {
			u.ClearEvidence = true
		} else {
			var ev Evidence
			if err := json.Unmarshal(b, &ev); err != nil {
				return fmt.Errorf("evidence: %w", err)
			}
			u.Evidence = &ev
		}
	}
	if b, ok := raw["assessorId"]; ok && !isNull(b) {
		if err := json.Unmarshal(b, &u.AssessorID); err != nil {
			return fmt.Errorf("assessorId: %w", err)
		}
	}
	return nil
}

// Snapshot is the fetch-all payload.
type Snapshot struct {
	Users             []User             `json:"users"`
	Wards             []Ward             `json:"wards"`
	AllAssessments    AllAssessments     `json:"allAssessments"`
	AssessmentPeriods []AssessmentPeriod `json:"assessmentPeriods"`
}

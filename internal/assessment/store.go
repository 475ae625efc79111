package assessment

import (
	"slices"
	"sync"

	"github.com/rskariadi-dev/manrura/internal/domain"
)

// Store is the client's local copy of everything fetch-all returns. Scores are only mutated
// through Merge, which the engine calls; reads always hand out copies.
type Store struct {
	mu      sync.RWMutex
	users   []domain.User
	wards   []domain.Ward
	periods []domain.AssessmentPeriod
	all     domain.AllAssessments
}

func NewStore() *Store {
	return &Store{all: make(domain.AllAssessments)}
}

// Load replaces the whole state with a fresh snapshot.
func (s *Store) Load(snap domain.Snapshot) {
	users := make([]domain.User, 0, len(snap.Users))
	for _, u := range snap.Users {
		users = append(users, u.Sanitized())
	}
	periods := slices.Clone(snap.AssessmentPeriods)
	SortPeriods(periods)

	all := snap.AllAssessments.Clone()
	if all == nil {
		all = make(domain.AllAssessments)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = users
	s.wards = slices.Clone(snap.Wards)
	s.periods = periods
	s.all = all
}

func (s *Store) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Snapshot{
		Users:             slices.Clone(s.users),
		Wards:             slices.Clone(s.wards),
		AllAssessments:    s.all.Clone(),
		AssessmentPeriods: slices.Clone(s.periods),
	}
}

func (s *Store) Users() []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.users)
}

func (s *Store) User(id string) (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, true
		}
	}
	return domain.User{}, false
}

func (s *Store) Wards() []domain.Ward {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.wards)
}

func (s *Store) Ward(id string) (domain.Ward, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, w := range s.wards {
		if w.ID == id {
			return w, true
		}
	}
	return domain.Ward{}, false
}

func (s *Store) Periods() []domain.AssessmentPeriod {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.periods)
}

func (s *Store) All() domain.AllAssessments {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.all.Clone()
}

func (s *Store) WardAssessments(wardID string) domain.AssessmentData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.all[wardID]
	if !ok {
		return domain.AssessmentData{}
	}
	return data.Clone()
}

func (s *Store) Point(wardID, pointID string) domain.PointScores {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.all[wardID][pointID].Clone()
}

// Merge applies u to the (ward, point, slot) score, creating the zero score first when the
// triple has never been written. It returns the merged score.
func (s *Store) Merge(wardID, pointID string, slot domain.ScoreSlot, u domain.ScoreUpdate) domain.AssessmentScore {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.all[wardID]
	if !ok {
		data = make(domain.AssessmentData)
		s.all[wardID] = data
	}
	ps := data[pointID]

	current := domain.AssessmentScore{}
	if existing := ps.Slot(slot); existing != nil {
		current = *existing
	}
	merged := current.Merge(u)
	stored := merged
	ps.SetSlot(slot, &stored)
	data[pointID] = ps

	return merged.Merge(domain.ScoreUpdate{})
}

func (s *Store) AddWard(w domain.Ward) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wards = append(s.wards, w)
}

func (s *Store) RemoveWard(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wards = slices.DeleteFunc(s.wards, func(w domain.Ward) bool { return w.ID == id })
}

func (s *Store) AddUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, u.Sanitized())
}

func (s *Store) RemoveUser(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = slices.DeleteFunc(s.users, func(u domain.User) bool { return u.ID == id })
}

func (s *Store) AddPeriod(p domain.AssessmentPeriod) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.periods = append(s.periods, p)
	SortPeriods(s.periods)
}

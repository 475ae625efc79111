package assessment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rskariadi-dev/manrura/internal/domain"
)

func TestStore_MergeCreatesZeroScore(t *testing.T) {
	s := NewStore()

	got := s.Merge("w1", "p1", domain.SlotWardStaff, domain.ScoreUpdate{Notes: strPtr("draft")})
	assert.Nil(t, got.Score)
	assert.Nil(t, got.Evidence)
	assert.Equal(t, "draft", got.Notes)
	assert.Nil(t, s.Point("w1", "p1").Assessor)
}

func TestStore_MergeIsIdempotent(t *testing.T) {
	u := domain.ScoreUpdate{
		Score:    intPtr(5),
		Notes:    strPtr("ok"),
		Evidence: &domain.Evidence{Name: "a.pdf", FileID: "f1"},
	}

	once := NewStore()
	once.Merge("w1", "p1", domain.SlotWardStaff, u)

	twice := NewStore()
	twice.Merge("w1", "p1", domain.SlotWardStaff, u)
	twice.Merge("w1", "p1", domain.SlotWardStaff, u)

	assert.Equal(t, once.All(), twice.All())
}

func TestStore_MergeLastWriteWinsPerField(t *testing.T) {
	s := NewStore()
	s.Merge("w1", "p1", domain.SlotWardStaff, domain.ScoreUpdate{Score: intPtr(10), Notes: strPtr("first")})
	s.Merge("w1", "p1", domain.SlotWardStaff, domain.ScoreUpdate{Notes: strPtr("second")})

	got := s.Point("w1", "p1").WardStaff
	require.NotNil(t, got)
	assert.Equal(t, 10, *got.Score)
	assert.Equal(t, "second", got.Notes)
}

func TestStore_ReadsAreCopies(t *testing.T) {
	s := NewStore()
	s.Merge("w1", "p1", domain.SlotWardStaff, domain.ScoreUpdate{Score: intPtr(5)})

	ps := s.Point("w1", "p1")
	*ps.WardStaff.Score = 0

	all := s.All()
	all["w1"]["p1"] = domain.PointScores{}

	assert.Equal(t, 5, *s.Point("w1", "p1").WardStaff.Score)
}

func TestStore_LoadSanitizesAndSorts(t *testing.T) {
	s := NewStore()
	s.Load(domain.Snapshot{
		Users: []domain.User{{ID: "u1", Password: "secret", PasswordHash: "hash", Role: domain.RoleAdmin}},
		AssessmentPeriods: []domain.AssessmentPeriod{
			{ID: "old", StartDate: date(2023, 1, 1)},
			{ID: "new", StartDate: date(2024, 1, 1)},
		},
	})

	u, ok := s.User("u1")
	require.True(t, ok)
	assert.Empty(t, u.Password)
	assert.Empty(t, u.PasswordHash)
	assert.Equal(t, "new", s.Periods()[0].ID)
	assert.NotNil(t, s.All())
}

func TestStore_AddRemove(t *testing.T) {
	s := NewStore()
	s.AddWard(domain.Ward{ID: "w1", Name: "Melati"})
	s.AddUser(domain.User{ID: "u1", Password: "x"})

	u, ok := s.User("u1")
	require.True(t, ok)
	assert.Empty(t, u.Password)

	s.RemoveWard("w1")
	s.RemoveUser("u1")
	assert.Empty(t, s.Wards())
	assert.Empty(t, s.Users())
}

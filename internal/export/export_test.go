package export

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rskariadi-dev/manrura/internal/domain"
)

type MockSource struct {
	mock.Mock
}

func (m *MockSource) GetAllWards() ([]domain.Ward, error) {
	args := m.Called()
	return args.Get(0).([]domain.Ward), args.Error(1)
}

func (m *MockSource) GetAllAssessments() (domain.AllAssessments, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.AllAssessments), args.Error(1)
}

func (m *MockSource) GetAllAssessmentPeriods() ([]domain.AssessmentPeriod, error) {
	args := m.Called()
	return args.Get(0).([]domain.AssessmentPeriod), args.Error(1)
}

type MockWriter struct {
	mock.Mock
}

func (m *MockWriter) Write(ctx context.Context, sheetRange string, rows [][]interface{}) error {
	args := m.Called(ctx, sheetRange, rows)
	return args.Error(0)
}

type points []string

func (p points) PointIDs() []string {
	return p
}

func score(v int) *domain.AssessmentScore {
	return &domain.AssessmentScore{Score: &v}
}

var (
	testWards = []domain.Ward{{ID: "mawar", Name: "Ruang Mawar"}, {ID: "icu", Name: "Ruang ICU"}}
	testAll   = domain.AllAssessments{
		"mawar": {
			"p1": {WardStaff: score(10), Assessor: score(10)},
			"p2": {WardStaff: score(5)},
		},
	}
	testPeriods = []domain.AssessmentPeriod{{
		Name:      "Januari",
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	}}
)

func TestBuildRows(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	rows := BuildRows([]string{"p1", "p2"}, testWards, testAll, testPeriods, now)

	require.Len(t, rows, 4)
	assert.Equal(t, "Updated 15 January 2024 10:30", rows[0][0])
	assert.Equal(t, "Active period: Januari (2024-01-01 to 2024-01-31)", rows[0][1])
	assert.Equal(t, header, rows[1])
	assert.Equal(t, []interface{}{"mawar", "Ruang Mawar", 2, 2, 1, 15, 10, "50.0"}, rows[2])
	assert.Equal(t, []interface{}{"icu", "Ruang ICU", 2, 0, 0, 0, 0, "0.0"}, rows[3])
}

func TestBuildRowsWithoutActivePeriod(t *testing.T) {
	rows := BuildRows(nil, nil, nil, testPeriods, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.Len(t, rows, 2)
	assert.Equal(t, "No active assessment period", rows[0][1])
}

func TestExporterWritesSheet(t *testing.T) {
	src := &MockSource{}
	src.On("GetAllWards").Return(testWards, nil)
	src.On("GetAllAssessments").Return(testAll, nil)
	src.On("GetAllAssessmentPeriods").Return(testPeriods, nil)

	w := &MockWriter{}
	w.On("Write", mock.Anything, "Rekap!A1", mock.MatchedBy(func(rows [][]interface{}) bool {
		return len(rows) == 4
	})).Return(nil)

	e := NewExporter(src, w, points{"p1", "p2"}, "Rekap", nil)
	require.NoError(t, e.Export(context.Background()))
	w.AssertExpectations(t)
}

func TestExporterStopsOnSourceError(t *testing.T) {
	src := &MockSource{}
	src.On("GetAllWards").Return([]domain.Ward{}, errors.New("db down"))

	w := &MockWriter{}
	e := NewExporter(src, w, points{}, "Rekap", nil)
	assert.EqualError(t, e.Export(context.Background()), "db down")
	w.AssertNotCalled(t, "Write", mock.Anything, mock.Anything, mock.Anything)
}

func TestScheduleRejectsBadCron(t *testing.T) {
	e := NewExporter(&MockSource{}, &MockWriter{}, points{}, "Rekap", nil)
	_, err := Schedule(e, "not a cron", time.Second)
	assert.Error(t, err)
}

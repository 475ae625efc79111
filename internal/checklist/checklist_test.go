package checklist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultChecklist(t *testing.T) {
	c := Default()

	require.NotEmpty(t, c.Standards())
	assert.Equal(t, "bab1", c.Standards()[0].ID)
	assert.Equal(t, len(c.PointIDs()), c.Len())

	p, ok := c.Point("bab1-e1-p1")
	require.True(t, ok)
	assert.NotEmpty(t, p.Text)
	assert.NotEmpty(t, p.EvidenceExpectation)

	assert.False(t, c.HasPoint("nope"))
}

func TestParseRejectsDuplicatePoints(t *testing.T) {
	doc := []byte(`
standards:
  - id: s1
    elements:
      - id: e1
        points:
          - id: p1
          - id: p1
`)
	_, err := Parse(doc)
	assert.ErrorContains(t, err, "duplicate point id p1")
}

func TestParseRejectsEmptyDocument(t *testing.T) {
	_, err := Parse([]byte("standards: []"))
	assert.Error(t, err)
}

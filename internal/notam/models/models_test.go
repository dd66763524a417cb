package models

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ModelsSuite struct {
	suite.Suite
}

func TestModelsSuite(t *testing.T) {
	suite.Run(t, new(ModelsSuite))
}

func intPtr(v int) *int { return &v }

func (s *ModelsSuite) TestQCodeSegments() {
	s.Run("splits subject and condition", func() {
		n := Notam{QCode: "QMRLC"}
		s.Equal("MR", n.QCodeSubject())
		s.Equal("LC", n.QCodeCondition())
	})

	s.Run("normalises lowercase codes", func() {
		n := Notam{QCode: "qobce"}
		s.Equal("OB", n.QCodeSubject())
		s.Equal("CE", n.QCodeCondition())
	})

	s.Run("absent code has empty segments", func() {
		n := Notam{}
		s.Empty(n.QCodeSubject())
		s.Empty(n.QCodeCondition())
	})

	s.Run("short code has empty segments", func() {
		n := Notam{QCode: "QMR"}
		s.Empty(n.QCodeSubject())
		s.Empty(n.QCodeCondition())
	})
}

func (s *ModelsSuite) TestHasTag() {
	n := Notam{CustomTags: []string{" Closed ", "night"}}
	s.True(n.HasTag(TagClosed))
	s.True(n.HasTag("NIGHT"))
	s.False(n.HasTag("runway"))
	s.False(Notam{}.HasTag(TagClosed))
}

func (s *ModelsSuite) TestVerticalRange() {
	s.Run("requires both limits", func() {
		_, _, ok := Notam{LowerLimit: intPtr(0)}.VerticalRange()
		s.False(ok)
	})

	s.Run("returns published limits", func() {
		lower, upper, ok := Notam{LowerLimit: intPtr(1000), UpperLimit: intPtr(5000)}.VerticalRange()
		s.True(ok)
		s.Equal(1000, lower)
		s.Equal(5000, upper)
	})
}

func (s *ModelsSuite) TestIsSurfaceToUnlimited() {
	s.True(Notam{LowerLimit: intPtr(0), UpperLimit: intPtr(99900)}.IsSurfaceToUnlimited())
	s.True(Notam{LowerLimit: intPtr(0), UpperLimit: intPtr(99999)}.IsSurfaceToUnlimited())
	s.False(Notam{LowerLimit: intPtr(0), UpperLimit: intPtr(5000)}.IsSurfaceToUnlimited())
	s.False(Notam{LowerLimit: intPtr(1000), UpperLimit: intPtr(99900)}.IsSurfaceToUnlimited())
	s.False(Notam{}.IsSurfaceToUnlimited())
}

func (s *ModelsSuite) TestIsActiveDuring() {
	from := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	to := from.Add(6 * time.Hour)
	end := from.Add(-time.Hour)

	s.True(Notam{EffectiveFrom: from.Add(-24 * time.Hour)}.IsActiveDuring(from, to))
	s.False(Notam{EffectiveFrom: to.Add(time.Minute)}.IsActiveDuring(from, to))
	s.False(Notam{EffectiveFrom: from.Add(-48 * time.Hour), EffectiveTo: &end}.IsActiveDuring(from, to))
	s.True(Notam{EffectiveFrom: from.Add(-48 * time.Hour), EffectiveTo: &end, IsPermanent: true}.IsActiveDuring(from, to))
}

func TestPriorityOrdering(t *testing.T) {
	assert.True(t, PriorityLow.Less(PriorityNormal))
	assert.True(t, PriorityNormal.Less(PriorityHigh))
	assert.True(t, PriorityLow.Less(PriorityHigh))
	assert.False(t, PriorityHigh.Less(PriorityNormal))
	assert.False(t, PriorityNormal.Less(PriorityNormal))
}

func TestPriorityText(t *testing.T) {
	for _, p := range []Priority{PriorityLow, PriorityNormal, PriorityHigh} {
		parsed, err := ParsePriority(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, parsed)
	}

	_, err := ParsePriority("urgent")
	assert.Error(t, err)

	assert.NotEmpty(t, PriorityHigh.Icon())
	assert.NotEmpty(t, PriorityLow.Icon())
	assert.Empty(t, PriorityNormal.Icon())
}

func TestPriorityJSON(t *testing.T) {
	body, err := json.Marshal(map[string]Priority{"p": PriorityHigh})
	require.NoError(t, err)
	assert.JSONEq(t, `{"p":"high"}`, string(body))

	var out map[string]Priority
	require.NoError(t, json.Unmarshal([]byte(`{"p":"low"}`), &out))
	assert.Equal(t, PriorityLow, out["p"])
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus(" Important ")
	require.NoError(t, err)
	assert.Equal(t, StatusImportant, st)

	_, err = ParseStatus("archived")
	assert.Error(t, err)
	assert.False(t, Status("").IsValid())
}

func TestCoordinateValid(t *testing.T) {
	assert.True(t, Coordinate{Latitude: 49.0097, Longitude: 2.5479}.Valid())
	assert.True(t, Coordinate{Latitude: -90, Longitude: 180}.Valid())
	assert.False(t, Coordinate{Latitude: 90.5, Longitude: 0}.Valid())
	assert.False(t, Coordinate{Latitude: 0, Longitude: -180.1}.Valid())
	assert.False(t, Coordinate{Latitude: 0, Longitude: math.Inf(-1)}.Valid())
	assert.False(t, Coordinate{Latitude: math.NaN(), Longitude: 0}.Valid())
}

func TestNotamJSONOmitsUnsetParsedAt(t *testing.T) {
	n := Notam{ID: "A1", Location: "LFPG", EffectiveFrom: time.Date(2024, 3, 15, 6, 0, 0, 0, time.UTC)}
	raw, err := json.Marshal(n)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "parsed_at")

	n.ParsedAt = time.Date(2024, 3, 15, 5, 0, 0, 0, time.UTC)
	raw, err = json.Marshal(n)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"parsed_at":"2024-03-15T05:00:00Z"`)
}

package priority

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"notamcore/internal/flight"
	"notamcore/internal/notam/models"
	"notamcore/pkg/testutil"
)

type EvaluatorSuite struct {
	suite.Suite
	evaluator *Evaluator
	ctx       flight.Context
	effective time.Time
}

func TestEvaluatorSuite(t *testing.T) {
	suite.Run(t, new(EvaluatorSuite))
}

func (s *EvaluatorSuite) SetupTest() {
	s.evaluator = New()
	s.ctx = flight.New("LFPG", "EGLL", flight.WithCruiseAltitude(35000))
	s.effective = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
}

func (s *EvaluatorSuite) notam(location, qcode string, tags ...string) models.Notam {
	return models.Notam{
		ID:            "A1234/24",
		Location:      location,
		QCode:         qcode,
		EffectiveFrom: s.effective,
		CustomTags:    tags,
	}
}

func withLimits(n models.Notam, lower, upper int) models.Notam {
	n.LowerLimit = testutil.Ptr(lower)
	n.UpperLimit = testutil.Ptr(upper)
	return n
}

func (s *EvaluatorSuite) TestEndToEndRunwayClosure() {
	n := s.notam("LFPG", "QMRLC", "closed")
	fc := flight.New("LFPG", "")

	s.Equal(models.PriorityHigh, Default.Evaluate(n, nil, fc))
}

func (s *EvaluatorSuite) TestLowercaseLocationMatchesFlightAirports() {
	closure := s.notam("lfpg", "QMRLC", "closed")
	s.Equal(models.PriorityHigh, Default.Evaluate(closure, nil, flight.New("LFPG", "")))

	obstacle := s.notam("egll", "QOBCE")
	s.Equal(models.PriorityNormal, Default.Evaluate(obstacle, nil, s.ctx))
}

func (s *EvaluatorSuite) TestRunwayClosureAtAirport() {
	rule := RunwayClosureAtAirport{}

	s.Run("destination airport", func() {
		p, ok := rule.Evaluate(s.notam("EGLL", "QMRLC", "closed"), nil, s.ctx)
		s.True(ok)
		s.Equal(models.PriorityHigh, p)
	})

	s.Run("abstains at another airport", func() {
		_, ok := rule.Evaluate(s.notam("LFPO", "QMRLC", "closed"), nil, s.ctx)
		s.False(ok)
	})

	s.Run("abstains at an alternate", func() {
		fc := flight.New("LFPG", "EGLL", flight.WithAlternates("LFPO"))
		_, ok := rule.Evaluate(s.notam("LFPO", "QMRLC", "closed"), nil, fc)
		s.False(ok)
	})

	s.Run("abstains without the closed tag", func() {
		_, ok := rule.Evaluate(s.notam("LFPG", "QMRLC"), nil, s.ctx)
		s.False(ok)
	})

	s.Run("abstains when the qcode is not a closure", func() {
		_, ok := rule.Evaluate(s.notam("LFPG", "QMRXX", "closed"), nil, s.ctx)
		s.False(ok)
	})

	s.Run("abstains when the subject is not the runway", func() {
		_, ok := rule.Evaluate(s.notam("LFPG", "QFALC", "closed"), nil, s.ctx)
		s.False(ok)
	})

	s.Run("abstains without a qcode", func() {
		_, ok := rule.Evaluate(s.notam("LFPG", "", "closed"), nil, s.ctx)
		s.False(ok)
	})

	s.Run("abstains with the empty context", func() {
		_, ok := rule.Evaluate(s.notam("LFPG", "QMRLC", "closed"), nil, flight.Empty)
		s.False(ok)
	})
}

func (s *EvaluatorSuite) TestCloseAndRelevantAltitude() {
	rule := CloseAndRelevantAltitude{ProximityNM: DefaultProximityNM, ToleranceFeet: DefaultAltitudeToleranceFt}
	base := withLimits(s.notam("LFFF", "QRTCA"), 30000, 34000)

	s.Run("close and overlapping", func() {
		p, ok := rule.Evaluate(base, testutil.Ptr(5.0), s.ctx)
		s.True(ok)
		s.Equal(models.PriorityHigh, p)
	})

	s.Run("threshold is inclusive", func() {
		_, ok := rule.Evaluate(base, testutil.Ptr(10.0), s.ctx)
		s.True(ok)
	})

	s.Run("abstains just beyond the threshold", func() {
		_, ok := rule.Evaluate(base, testutil.Ptr(10.01), s.ctx)
		s.False(ok)
	})

	s.Run("abstains without a distance", func() {
		_, ok := rule.Evaluate(base, nil, s.ctx)
		s.False(ok)
	})

	s.Run("abstains without a cruise altitude", func() {
		_, ok := rule.Evaluate(base, testutil.Ptr(1.0), flight.New("LFPG", "EGLL"))
		s.False(ok)
	})

	s.Run("abstains when the extent is below the band", func() {
		_, ok := rule.Evaluate(withLimits(base, 0, 32999), testutil.Ptr(1.0), s.ctx)
		s.False(ok)
	})

	s.Run("touching the band counts", func() {
		_, ok := rule.Evaluate(withLimits(base, 0, 33000), testutil.Ptr(1.0), s.ctx)
		s.True(ok)
	})

	s.Run("abstains without vertical limits", func() {
		n := base
		n.LowerLimit, n.UpperLimit = nil, nil
		_, ok := rule.Evaluate(n, testutil.Ptr(1.0), s.ctx)
		s.False(ok)
	})

	s.Run("surface to unlimited never matches", func() {
		_, ok := rule.Evaluate(withLimits(base, 0, 99900), testutil.Ptr(5.0), s.ctx)
		s.False(ok)
	})
}

func (s *EvaluatorSuite) TestSurfaceToUnlimitedNeverHigh() {
	n := withLimits(s.notam("LFFF", "QRDCA"), models.SurfaceFeet, models.UnlimitedFeet)

	got := s.evaluator.Explain(n, testutil.Ptr(5.0), s.ctx)

	s.NotEqual(models.PriorityHigh, got.Priority)
	s.NotEqual(CloseAndRelevantAltitude{}.Name(), got.Rule)
}

func (s *EvaluatorSuite) TestHelicopterNotams() {
	rule := HelicopterNotams{}

	for _, code := range []string{"QFHAW", "QFPLC"} {
		p, ok := rule.Evaluate(s.notam("LFPG", code), nil, s.ctx)
		s.True(ok, code)
		s.Equal(models.PriorityLow, p, code)
	}

	_, ok := rule.Evaluate(s.notam("LFPG", "QMRLC"), nil, s.ctx)
	s.False(ok)
}

func (s *EvaluatorSuite) TestObstaclesFarFromAirports() {
	rule := ObstaclesFarFromAirports{}

	s.Run("obstacle elsewhere is low", func() {
		p, ok := rule.Evaluate(s.notam("LFPO", "QOBCE"), nil, s.ctx)
		s.True(ok)
		s.Equal(models.PriorityLow, p)
	})

	s.Run("obstacle at departure abstains", func() {
		_, ok := rule.Evaluate(s.notam("LFPG", "QOBCE"), nil, s.ctx)
		s.False(ok)
	})

	s.Run("obstacle at destination abstains", func() {
		_, ok := rule.Evaluate(s.notam("EGLL", "QOBCE"), nil, s.ctx)
		s.False(ok)
	})

	s.Run("non-obstacle abstains", func() {
		_, ok := rule.Evaluate(s.notam("LFPO", "QMRLC"), nil, s.ctx)
		s.False(ok)
	})
}

func (s *EvaluatorSuite) TestClosureAbstainsThenHelicopterFires() {
	// Heliport closure at the departure airport: closed tag and LC
	// condition are present but the subject is not the runway.
	n := s.notam("LFPG", "QFHLC", "closed")

	got := s.evaluator.Explain(n, nil, s.ctx)

	s.Equal(models.PriorityLow, got.Priority)
	s.Equal(HelicopterNotams{}.Name(), got.Rule)
}

func (s *EvaluatorSuite) TestDefaultFallback() {
	n := withLimits(s.notam("LFPO", "QMXLC"), 0, 5000)

	got := s.evaluator.Explain(n, testutil.Ptr(80.0), s.ctx)

	s.Equal(models.PriorityNormal, got.Priority)
	s.Equal(RuleDefault, got.Rule)
	s.Equal(models.PriorityNormal, s.evaluator.Evaluate(s.notam("LFPO", ""), nil, flight.Empty))
}

func (s *EvaluatorSuite) TestRuleOrder() {
	s.Equal([]string{
		"runway_closure_at_airport",
		"close_and_relevant_altitude",
		"helicopter_notams",
		"obstacles_far_from_airports",
	}, s.evaluator.RuleNames())
	s.Len(s.evaluator.Rules(), 4)
}

func (s *EvaluatorSuite) TestReorderingChangesOutcome() {
	// An obstacle away from the airports, close to the route and inside
	// the cruise band is claimed by both rule 2 (high) and rule 4 (low).
	n := withLimits(s.notam("LFFF", "QOBCE"), 30000, 36000)
	distance := testutil.Ptr(3.0)

	s.Equal(models.PriorityHigh, s.evaluator.Evaluate(n, distance, s.ctx))

	reordered := New(WithRules(
		ObstaclesFarFromAirports{},
		CloseAndRelevantAltitude{ProximityNM: DefaultProximityNM, ToleranceFeet: DefaultAltitudeToleranceFt},
	))
	s.Equal(models.PriorityLow, reordered.Evaluate(n, distance, s.ctx))
}

func (s *EvaluatorSuite) TestOptions() {
	n := withLimits(s.notam("LFFF", "QRTCA"), 30000, 34000)
	distance := testutil.Ptr(15.0)

	s.Equal(models.PriorityNormal, s.evaluator.Evaluate(n, distance, s.ctx))
	s.Equal(models.PriorityHigh, New(WithProximityNM(20)).Evaluate(n, distance, s.ctx))

	narrow := New(WithAltitudeToleranceFt(500))
	s.Equal(models.PriorityNormal, narrow.Evaluate(n, testutil.Ptr(1.0), s.ctx))
}

func TestEvaluateAll(t *testing.T) {
	fc := flight.New("LFPG", "EGLL")
	effective := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	var inputs []Input
	for i := 0; i < 50; i++ {
		qcode := "QMXLC"
		switch i % 3 {
		case 1:
			qcode = "QFHAW"
		case 2:
			qcode = "QOBCE"
		}
		inputs = append(inputs, Input{Notam: models.Notam{
			ID:            fmt.Sprintf("A%04d/24", i),
			Location:      "LFPO",
			QCode:         qcode,
			EffectiveFrom: effective,
		}})
	}

	t.Run("preserves input order", func(t *testing.T) {
		results, err := New(WithConcurrency(4)).EvaluateAll(context.Background(), inputs, fc)
		require.NoError(t, err)
		require.Len(t, results, len(inputs))
		for i, r := range results {
			want := Default.Explain(inputs[i].Notam, inputs[i].DistanceNM, fc)
			assert.Equal(t, want, r, "input %d", i)
		}
	})

	t.Run("empty batch", func(t *testing.T) {
		results, err := Default.EvaluateAll(context.Background(), nil, fc)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Default.EvaluateAll(ctx, inputs, fc)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

package decision

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// replaySample reproduces the reconciler's sampling order with an
// identically seeded generator so fallback values can be asserted exactly.
func replaySample(seed int64, bands BandPolicy, w Weights) Scores {
	rng := rand.New(rand.NewSource(seed))
	tech := bands.TechnicalDepth.Min + rng.Intn(bands.TechnicalDepth.Max-bands.TechnicalDepth.Min+1)
	comm := bands.Communication.Min + rng.Intn(bands.Communication.Max-bands.Communication.Min+1)
	prob := bands.ProblemSolving.Min + rng.Intn(bands.ProblemSolving.Max-bands.ProblemSolving.Min+1)
	return Scores{TechnicalDepth: tech, Communication: comm, ProblemSolving: prob, Total: w.Total(tech, comm, prob)}
}

func TestReconcileKeepsConsistentScores(t *testing.T) {
	rec := NewReconciler(DefaultConfig(), nil, zap.NewNop())

	got := rec.Reconcile(StatusHired, &RawScores{TechnicalDepth: 80, Communication: 70, ProblemSolving: 75, Total: 76})

	assert.Equal(t, Scores{TechnicalDepth: 80, Communication: 70, ProblemSolving: 75, Total: 76}, got)
}

func TestReconcileOverridesMismatchedTotal(t *testing.T) {
	rec := NewReconciler(DefaultConfig(), nil, zap.NewNop())

	got := rec.Reconcile(StatusHired, &RawScores{TechnicalDepth: 80, Communication: 70, ProblemSolving: 75, Total: 95})

	assert.Equal(t, 75.5, got.Total, "computed total must win over the reported one")
	assert.Equal(t, 80, got.TechnicalDepth)
}

func TestReconcileToleratesSmallDrift(t *testing.T) {
	rec := NewReconciler(DefaultConfig(), nil, zap.NewNop())

	// Computed total is 75.5; a reported 75 is within the tolerance and kept.
	got := rec.Reconcile(StatusHired, &RawScores{TechnicalDepth: 80, Communication: 70, ProblemSolving: 75, Total: 75})

	assert.Equal(t, 75.0, got.Total)
}

func TestReconcileWeightedTotalsAreExact(t *testing.T) {
	rec := NewReconciler(DefaultConfig(), nil, zap.NewNop())
	w := DefaultConfig().Weights

	for tech := 0; tech <= 100; tech += 17 {
		for comm := 0; comm <= 100; comm += 19 {
			for prob := 0; prob <= 100; prob += 23 {
				got := rec.Reconcile(StatusHired, &RawScores{TechnicalDepth: tech, Communication: comm, ProblemSolving: prob, Total: 0})
				want := w.Total(tech, comm, prob)
				if want <= 1.0 {
					// A reported zero may legitimately survive within tolerance.
					continue
				}
				require.Equal(t, want, got.Total, "tech=%d comm=%d prob=%d", tech, comm, prob)
			}
		}
	}
}

func TestReconcileInvalidScoresRegenerated(t *testing.T) {
	cases := []struct {
		name string
		raw  RawScores
	}{
		{"component above range", RawScores{TechnicalDepth: 120, Communication: 70, ProblemSolving: 70, Total: 90}},
		{"negative component", RawScores{TechnicalDepth: 70, Communication: -5, ProblemSolving: 70, Total: 50}},
		{"total above range", RawScores{TechnicalDepth: 70, Communication: 70, ProblemSolving: 70, Total: 300}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			const seed = 42
			rec := NewReconciler(DefaultConfig(), rand.New(rand.NewSource(seed)).Intn, zap.NewNop())

			got := rec.Reconcile(StatusNotHired, &tc.raw)
			want := replaySample(seed, DefaultConfig().NotHiredBands, DefaultConfig().Weights)

			assert.Equal(t, want, got, "all four values must be regenerated together")
		})
	}
}

func TestReconcileFallbackBands(t *testing.T) {
	cfg := DefaultConfig()

	for seed := int64(0); seed < 25; seed++ {
		rec := NewReconciler(cfg, rand.New(rand.NewSource(seed)).Intn, zap.NewNop())

		hired := rec.Reconcile(StatusHired, nil)
		assert.GreaterOrEqual(t, hired.TechnicalDepth, 60)
		assert.LessOrEqual(t, hired.TechnicalDepth, 85)
		assert.GreaterOrEqual(t, hired.Communication, 65)
		assert.LessOrEqual(t, hired.Communication, 90)
		assert.GreaterOrEqual(t, hired.ProblemSolving, 60)
		assert.LessOrEqual(t, hired.ProblemSolving, 85)
		assert.Equal(t, cfg.Weights.Total(hired.TechnicalDepth, hired.Communication, hired.ProblemSolving), hired.Total)

		rec = NewReconciler(cfg, rand.New(rand.NewSource(seed)).Intn, zap.NewNop())
		rejected := rec.Reconcile(StatusNotHired, nil)
		assert.GreaterOrEqual(t, rejected.TechnicalDepth, 40)
		assert.LessOrEqual(t, rejected.TechnicalDepth, 65)
		assert.GreaterOrEqual(t, rejected.Communication, 45)
		assert.LessOrEqual(t, rejected.Communication, 70)
		assert.GreaterOrEqual(t, rejected.ProblemSolving, 40)
		assert.LessOrEqual(t, rejected.ProblemSolving, 65)
		assert.Equal(t, cfg.Weights.Total(rejected.TechnicalDepth, rejected.Communication, rejected.ProblemSolving), rejected.Total)
	}
}

func TestReconcileIdempotent(t *testing.T) {
	rec := NewReconciler(DefaultConfig(), nil, zap.NewNop())

	first := rec.Reconcile(StatusHired, &RawScores{TechnicalDepth: 80, Communication: 70, ProblemSolving: 75, Total: 76})
	second := rec.Reconcile(StatusHired, &RawScores{
		TechnicalDepth: first.TechnicalDepth,
		Communication:  first.Communication,
		ProblemSolving: first.ProblemSolving,
		Total:          int(first.Total),
	})

	assert.Equal(t, first, second)
}

package decision

import (
	"math"
	"math/rand"

	"go.uber.org/zap"
)

// IntnFunc returns a non-negative pseudo-random int below n. It is the
// injection point for the fallback sampler; tests pass a seeded generator
// to pin exact fallback values.
type IntnFunc func(n int) int

// Reconciler validates extracted scores against the configured policy,
// recomputes the weighted total, and synthesizes band-keyed fallback scores
// when extraction yields nothing usable. It is pure except for the
// explicitly injected randomness and safe for concurrent use as long as
// the supplied IntnFunc is.
type Reconciler struct {
	cfg    Config
	intn   IntnFunc
	logger *zap.Logger
}

// NewReconciler builds a reconciler with the given policy. A nil intn
// defaults to the process-wide locked source; a nil logger is replaced
// with a no-op one.
func NewReconciler(cfg Config, intn IntnFunc, logger *zap.Logger) *Reconciler {
	if intn == nil {
		intn = rand.Intn
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{cfg: cfg, intn: intn, logger: logger}
}

// Reconcile produces validated scores for the given status. A nil raw
// means the scores block was absent and all three components are sampled
// from the status bands. Extraction wins on valid components; computation
// wins on the total.
func (r *Reconciler) Reconcile(status Status, raw *RawScores) Scores {
	if raw == nil {
		return r.fallback(status)
	}

	if !inRange(raw.TechnicalDepth) || !inRange(raw.Communication) || !inRange(raw.ProblemSolving) || !inRange(raw.Total) {
		r.logger.Warn("invalid score values detected, generating fallback scores",
			zap.Int("technical_depth", raw.TechnicalDepth),
			zap.Int("communication", raw.Communication),
			zap.Int("problem_solving", raw.ProblemSolving),
			zap.Int("total", raw.Total),
		)
		return r.fallback(status)
	}

	computed := r.cfg.Weights.Total(raw.TechnicalDepth, raw.Communication, raw.ProblemSolving)
	total := float64(raw.Total)
	if math.Abs(computed-total) > r.cfg.Tolerance {
		r.logger.Warn("total score mismatch",
			zap.Int("reported", raw.Total),
			zap.Float64("calculated", computed),
		)
		total = computed
	}

	return Scores{
		TechnicalDepth: raw.TechnicalDepth,
		Communication:  raw.Communication,
		ProblemSolving: raw.ProblemSolving,
		Total:          total,
	}
}

// fallback samples all three components from the band policy for the
// status. The total is always derived from the sampled values, never
// sampled on its own.
func (r *Reconciler) fallback(status Status) Scores {
	bands := r.cfg.NotHiredBands
	if status == StatusHired {
		bands = r.cfg.HiredBands
	}

	tech := r.sample(bands.TechnicalDepth)
	comm := r.sample(bands.Communication)
	prob := r.sample(bands.ProblemSolving)

	return Scores{
		TechnicalDepth: tech,
		Communication:  comm,
		ProblemSolving: prob,
		Total:          r.cfg.Weights.Total(tech, comm, prob),
	}
}

// sample picks an int from the inclusive band.
func (r *Reconciler) sample(b Band) int {
	if b.Max <= b.Min {
		return b.Min
	}
	return b.Min + r.intn(b.Max-b.Min+1)
}

func inRange(v int) bool {
	return v >= 0 && v <= 100
}

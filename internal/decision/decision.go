// Package decision turns free-text interviewer output into a validated
// hiring decision. Extraction and score reconciliation are split into
// independent stages so each recovery path can be exercised on its own.
package decision

import "math"

// Status is the hiring verdict carried by a decision.
type Status string

const (
	StatusHired    Status = "hired"
	StatusNotHired Status = "not_hired"
)

const (
	// PlaceholderReasons is substituted when no rationale can be extracted.
	PlaceholderReasons = "No specific reasons provided."
	// MalformedReasons is used on the ultimate fallback path when the
	// verdict text cannot be parsed at all.
	MalformedReasons = "Unable to parse decision due to malformed response."
)

// RawScores holds the four integers lifted verbatim from the verdict text,
// before any validation.
type RawScores struct {
	TechnicalDepth int
	Communication  int
	ProblemSolving int
	Total          int
}

// Scores is the validated scoring block of a decision. Components are
// integers in [0,100]; Total is the weighted value rounded to two decimals.
type Scores struct {
	TechnicalDepth int     `json:"technical_depth"`
	Communication  int     `json:"communication"`
	ProblemSolving int     `json:"problem_solving"`
	Total          float64 `json:"total"`
}

// Decision is the structured outcome of an interview session.
type Decision struct {
	Status  Status `json:"status"`
	Reasons string `json:"reasons"`
	Scores  Scores `json:"scores"`
}

// Weights define the contribution of each component to the total score.
type Weights struct {
	TechnicalDepth float64
	Communication  float64
	ProblemSolving float64
}

// Band is an inclusive range used when fallback scores are sampled.
type Band struct {
	Min int
	Max int
}

// BandPolicy holds the sampling band for each score component.
type BandPolicy struct {
	TechnicalDepth Band
	Communication  Band
	ProblemSolving Band
}

// Config carries the numeric policy of the reconciler. Lifting these out of
// the code keeps the reconciler pure and lets tests pin them.
type Config struct {
	Weights       Weights
	HiredBands    BandPolicy
	NotHiredBands BandPolicy
	// Tolerance is the maximum accepted drift between a reported total and
	// the recomputed one before the reported value is discarded.
	Tolerance float64
}

// DefaultConfig returns the scoring policy used in production: 40/30/30
// weighting, a one-point tolerance, and status-keyed fallback bands.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			TechnicalDepth: 0.4,
			Communication:  0.3,
			ProblemSolving: 0.3,
		},
		HiredBands: BandPolicy{
			TechnicalDepth: Band{Min: 60, Max: 85},
			Communication:  Band{Min: 65, Max: 90},
			ProblemSolving: Band{Min: 60, Max: 85},
		},
		NotHiredBands: BandPolicy{
			TechnicalDepth: Band{Min: 40, Max: 65},
			Communication:  Band{Min: 45, Max: 70},
			ProblemSolving: Band{Min: 40, Max: 65},
		},
		Tolerance: 1.0,
	}
}

// Total computes the weighted total for the given components, rounded to
// two decimals.
func (w Weights) Total(tech, comm, prob int) float64 {
	total := w.TechnicalDepth*float64(tech) + w.Communication*float64(comm) + w.ProblemSolving*float64(prob)
	return math.Round(total*100) / 100
}

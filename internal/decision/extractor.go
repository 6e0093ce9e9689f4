package decision

import (
	"regexp"
	"strconv"
	"strings"
)

// EndInterviewPhrase is the control phrase that forces decision extraction
// regardless of the verdict text.
const EndInterviewPhrase = "end interview"

// Outcome reports how much of the documented verdict format was found.
type Outcome int

const (
	// OutcomeNone means the text carried no decision trigger at all.
	OutcomeNone Outcome = iota
	// OutcomeFull means the labeled scores block parsed completely.
	OutcomeFull
	// OutcomePartial means a verdict was found but the scores block was
	// absent; the reconciler must synthesize scores.
	OutcomePartial
	// OutcomeMalformed means a numeric field could not be parsed; only the
	// ultimate fallback decision is possible.
	OutcomeMalformed
)

// Extraction is the merged result of the status, reasons and scores
// extractors. Scores is nil unless Outcome is OutcomeFull.
type Extraction struct {
	Status  Status
	Reasons string
	Scores  *RawScores
	Outcome Outcome
}

var (
	statusRe  = regexp.MustCompile(`(?i)Decision:\s*(Hired|Not\s*Hired)\.`)
	reasonsRe = regexp.MustCompile(`(?s)Reasons:\s*(.*?)(?:\. Score:|$)`)
	scoresRe  = regexp.MustCompile(`(?i)Technical Depth:\s*(\d+)/100,\s*Communication:\s*(\d+)/100,\s*Problem-Solving:\s*(\d+)/100,\s*Total:\s*(\d+)/100`)
)

// Extractor scans raw verdict text. It never validates or recomputes
// numbers; that belongs to the Reconciler.
type Extractor struct{}

// Extract runs the trigger check and the three field extractors over the
// text, merging their results into a single Extraction. The triggering
// question is the user utterance that produced the text; the literal
// control phrase "end interview" forces extraction even when the text
// carries no verdict token.
func (Extractor) Extract(text, question string) Extraction {
	if !triggered(text, question) {
		return Extraction{Outcome: OutcomeNone}
	}

	status := extractStatus(text)
	reasons := extractReasons(text)
	scores, malformed := extractScores(text)

	out := Extraction{Status: status, Reasons: reasons, Scores: scores}
	switch {
	case malformed:
		out.Outcome = OutcomeMalformed
	case scores != nil:
		out.Outcome = OutcomeFull
	default:
		out.Outcome = OutcomePartial
	}

	return out
}

func triggered(text, question string) bool {
	if strings.Contains(strings.ToLower(text), "hired") {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(question), EndInterviewPhrase)
}

// extractStatus prefers the literal "Decision: ..." pattern. When it is
// absent the bare "hired"/"not hired" tokens decide instead. That fallback
// is lossy on purpose: the model frequently drops the label while still
// stating a verdict, and a near-miss verdict beats none.
func extractStatus(text string) Status {
	lower := strings.ToLower(text)

	if m := statusRe.FindStringSubmatch(text); m != nil {
		norm := strings.ToLower(strings.Join(strings.Fields(m[1]), ""))
		if norm == "nothired" {
			return StatusNotHired
		}
		return StatusHired
	}

	if strings.Contains(lower, "not hired") {
		return StatusNotHired
	}
	return StatusHired
}

func extractReasons(text string) string {
	if m := reasonsRe.FindStringSubmatch(text); m != nil {
		if reasons := strings.TrimSpace(m[1]); reasons != "" {
			return reasons
		}
	}
	return PlaceholderReasons
}

// extractScores parses the labeled scores block. The second return value is
// true when digits were present but did not fit an int, which routes the
// whole decision to the ultimate fallback.
func extractScores(text string) (*RawScores, bool) {
	m := scoresRe.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}

	values := make([]int, 4)
	for i := range values {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return nil, true
		}
		values[i] = n
	}

	return &RawScores{
		TechnicalDepth: values[0],
		Communication:  values[1],
		ProblemSolving: values[2],
		Total:          values[3],
	}, false
}

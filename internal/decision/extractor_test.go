package decision

import "testing"

const fullVerdict = "Decision: Hired. Reasons: Strong system design skills. Score: Technical Depth: 80/100, Communication: 70/100, Problem-Solving: 75/100, Total: 76/100."

func TestExtractFullVerdict(t *testing.T) {
	ext := Extractor{}.Extract(fullVerdict, "tell me about your last project")

	if ext.Outcome != OutcomeFull {
		t.Fatalf("expected full outcome, got %v", ext.Outcome)
	}
	if ext.Status != StatusHired {
		t.Fatalf("expected hired, got %s", ext.Status)
	}
	if ext.Reasons != "Strong system design skills" {
		t.Fatalf("unexpected reasons: %q", ext.Reasons)
	}
	if ext.Scores == nil {
		t.Fatalf("expected scores to be extracted")
	}
	want := RawScores{TechnicalDepth: 80, Communication: 70, ProblemSolving: 75, Total: 76}
	if *ext.Scores != want {
		t.Fatalf("unexpected scores: %+v", *ext.Scores)
	}
}

func TestExtractNotHiredVariants(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{"labeled", "Decision: Not Hired. Reasons: Weak fundamentals."},
		{"labeled no space", "Decision: NotHired. Reasons: Weak fundamentals."},
		{"bare token", "Overall the candidate is not hired, the answers lacked depth."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ext := Extractor{}.Extract(tc.text, "")
			if ext.Outcome != OutcomePartial {
				t.Fatalf("expected partial outcome, got %v", ext.Outcome)
			}
			if ext.Status != StatusNotHired {
				t.Fatalf("expected not_hired, got %s", ext.Status)
			}
		})
	}
}

func TestExtractNoTrigger(t *testing.T) {
	ext := Extractor{}.Extract("That's interesting! Tell me about a hard bug you fixed.", "I worked on payments")
	if ext.Outcome != OutcomeNone {
		t.Fatalf("expected no decision, got %v", ext.Outcome)
	}
}

func TestExtractEndInterviewForcesDecision(t *testing.T) {
	ext := Extractor{}.Extract("Thanks for your time today.", "End Interview")
	if ext.Outcome != OutcomePartial {
		t.Fatalf("expected partial outcome, got %v", ext.Outcome)
	}
	// No verdict token anywhere, so the lossy default applies.
	if ext.Status != StatusHired {
		t.Fatalf("expected default hired, got %s", ext.Status)
	}
	if ext.Reasons != PlaceholderReasons {
		t.Fatalf("expected placeholder reasons, got %q", ext.Reasons)
	}
}

func TestExtractReasonsSpanNewlines(t *testing.T) {
	text := "Decision: Hired. Reasons: Solid API design.\nClear communication under pressure. Score: Technical Depth: 70/100, Communication: 80/100, Problem-Solving: 70/100, Total: 73/100."
	ext := Extractor{}.Extract(text, "")
	if ext.Reasons != "Solid API design.\nClear communication under pressure" {
		t.Fatalf("unexpected reasons: %q", ext.Reasons)
	}
}

func TestExtractMalformedNumbers(t *testing.T) {
	text := "Decision: Hired. Reasons: ok. Score: Technical Depth: 99999999999999999999/100, Communication: 70/100, Problem-Solving: 70/100, Total: 80/100."
	ext := Extractor{}.Extract(text, "")
	if ext.Outcome != OutcomeMalformed {
		t.Fatalf("expected malformed outcome, got %v", ext.Outcome)
	}
}

func TestExtractScoresAbsent(t *testing.T) {
	ext := Extractor{}.Extract("Decision: Hired. Reasons: Great depth overall.", "")
	if ext.Outcome != OutcomePartial {
		t.Fatalf("expected partial outcome, got %v", ext.Outcome)
	}
	if ext.Scores != nil {
		t.Fatalf("expected absent scores, got %+v", ext.Scores)
	}
}

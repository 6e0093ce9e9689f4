package decision

import "go.uber.org/zap"

// Parser composes the extractor and the reconciler into the single entry
// point the rest of the system uses. It never returns an error: malformed
// input degrades to a fallback decision and a missing trigger is reported
// as a nil decision, which callers must treat as "no decision yet" rather
// than a rejection.
type Parser struct {
	extractor  Extractor
	reconciler *Reconciler
	logger     *zap.Logger
}

// NewParser builds a parser with the given reconciliation policy. See
// NewReconciler for the intn and logger defaults.
func NewParser(cfg Config, intn IntnFunc, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{
		reconciler: NewReconciler(cfg, intn, logger),
		logger:     logger,
	}
}

// Parse scans the verdict text produced in response to the triggering
// question. It returns nil when no decision trigger is present, and a
// fully reconciled decision otherwise.
func (p *Parser) Parse(text, question string) *Decision {
	ext := p.extractor.Extract(text, question)

	switch ext.Outcome {
	case OutcomeNone:
		return nil
	case OutcomeMalformed:
		p.logger.Error("failed to parse hiring decision, using ultimate fallback")
		return p.Fallback(MalformedReasons)
	}

	return &Decision{
		Status:  ext.Status,
		Reasons: ext.Reasons,
		Scores:  p.reconciler.Reconcile(ext.Status, ext.Scores),
	}
}

// Fallback manufactures the terminal not-hired decision used when no
// verdict can be recovered at all, e.g. a malformed response or a summary
// request the model could not answer.
func (p *Parser) Fallback(reasons string) *Decision {
	if reasons == "" {
		reasons = MalformedReasons
	}
	return &Decision{
		Status:  StatusNotHired,
		Reasons: reasons,
		Scores:  p.reconciler.Reconcile(StatusNotHired, nil),
	}
}

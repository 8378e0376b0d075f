// Package matching implements the docket match decision engine
package matching

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/normalizers"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

// ActionKind is the reconciliation action chosen for one IDB row
type ActionKind string

const (
	// ActionCreate creates a new docket from the IDB row
	ActionCreate ActionKind = "create_from_idb"
	// ActionMerge merges the IDB row into an existing docket
	ActionMerge ActionKind = "merge_with_docket"
)

// Decision is the engine's verdict for one IDB row against its candidates.
// Exactly one action is chosen per row per driver pass.
type Decision struct {
	Action    ActionKind
	DocketID  int64   // target docket, set when Action is ActionMerge
	Ratio     float64 // best case-name similarity, set when Heuristic
	Heuristic bool    // true when the action came from case-name scoring
}

// EngineConfig contains the match policy parameters
type EngineConfig struct {
	MatchRatioThreshold   float64 // Minimum case-name similarity to accept a heuristic match
	CaptionTruncateLength int     // Per-party truncation length for caption comparison
}

// DefaultConfig returns default engine configuration
func DefaultConfig() EngineConfig {
	return EngineConfig{
		MatchRatioThreshold:   0.65,
		CaptionTruncateLength: 30,
	}
}

// Engine decides whether an IDB row merges into an existing docket or
// becomes a new one. It is stateless; all persistence happens downstream.
type Engine struct {
	logger ectologger.Logger
	scorer *Scorer
	config EngineConfig
}

// NewEngine creates a new match decision engine
func NewEngine(logger ectologger.Logger, config EngineConfig) *Engine {
	if config.MatchRatioThreshold <= 0 {
		config.MatchRatioThreshold = DefaultConfig().MatchRatioThreshold
	}
	if config.CaptionTruncateLength <= 0 {
		config.CaptionTruncateLength = DefaultConfig().CaptionTruncateLength
	}
	return &Engine{
		logger: logger,
		scorer: NewScorer(),
		config: config,
	}
}

// Decide picks the action for one IDB row given the candidate dockets that
// share its court and docket number core. Candidates must already have the
// sealed/suppressed/criminal exclusions applied.
//
// No candidates means the docket does not exist yet. A single candidate is
// unambiguous (the court + docket number filter already disambiguated).
// Multiple candidates sharing one docket number core are an upstream data
// inconsistency; the engine falls back to case-name similarity.
func (e *Engine) Decide(ctx context.Context, row *models.IDBRecord, dockets []models.Docket) Decision {
	ctx, span := tracing.StartSpan(ctx, "matching.Engine.Decide")
	defer span.End()

	log := e.logger.WithContext(ctx).WithFields(map[string]any{
		"idb_id":        row.ID,
		"court_id":      row.District,
		"docket_number": row.DocketNumber,
	})

	switch len(dockets) {
	case 0:
		return Decision{Action: ActionCreate}
	case 1:
		return Decision{Action: ActionMerge, DocketID: dockets[0].ID}
	}

	captions := make([]string, len(dockets))
	for i := range dockets {
		captions[i] = normalizers.CaptionForComparison(dockets[i].CaseName, e.config.CaptionTruncateLength)
	}
	target := normalizers.CaptionForComparison(row.CaseName(), e.config.CaptionTruncateLength)

	best := e.scorer.FindBestMatch(captions, target, false)
	if best.Ratio > e.config.MatchRatioThreshold {
		log.WithFields(map[string]any{
			"docket_id": dockets[best.MatchIndex].ID,
			"case_name": best.MatchStr,
			"ratio":     best.Ratio,
		}).Info("Found good match by case name")
		return Decision{
			Action:    ActionMerge,
			DocketID:  dockets[best.MatchIndex].ID,
			Ratio:     best.Ratio,
			Heuristic: true,
		}
	}

	// Several dockets share the docket number core but none is a confident
	// case-name match. Likely duplicate dockets needing manual review.
	log.WithFields(map[string]any{
		"candidate_count": len(dockets),
		"best_ratio":      best.Ratio,
	}).Warn("No good match among multiple candidates, creating new docket")
	return Decision{Action: ActionCreate, Ratio: best.Ratio, Heuristic: true}
}

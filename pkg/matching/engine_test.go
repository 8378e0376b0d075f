package matching

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/laurel/pkg/logging"
	"github.com/Ramsey-B/laurel/pkg/models"
)

func testRow() *models.IDBRecord {
	return &models.IDBRecord{
		ID:           42,
		District:     "nysd",
		DocketNumber: "1:17-cv-00101",
		Plaintiff:    "Smith",
		Defendant:    "Acme Corporation",
	}
}

func TestEngine_Decide(t *testing.T) {
	engine := NewEngine(logging.NewNop(), DefaultConfig())
	ctx := context.Background()

	t.Run("no candidates creates a new docket", func(t *testing.T) {
		decision := engine.Decide(ctx, testRow(), nil)
		assert.Equal(t, ActionCreate, decision.Action)
		assert.False(t, decision.Heuristic)
	})

	t.Run("single candidate merges without scoring", func(t *testing.T) {
		dockets := []models.Docket{
			{ID: 7, CaseName: "Totally Unrelated v. Caption"},
		}
		decision := engine.Decide(ctx, testRow(), dockets)
		assert.Equal(t, ActionMerge, decision.Action)
		assert.Equal(t, int64(7), decision.DocketID)
		assert.False(t, decision.Heuristic)
	})

	t.Run("multiple candidates merge with the best case name", func(t *testing.T) {
		dockets := []models.Docket{
			{ID: 1, CaseName: "Brown v. Board of Education"},
			{ID: 2, CaseName: "Smith v. Acme Corp."},
		}
		decision := engine.Decide(ctx, testRow(), dockets)
		assert.Equal(t, ActionMerge, decision.Action)
		assert.Equal(t, int64(2), decision.DocketID)
		assert.True(t, decision.Heuristic)
		assert.Greater(t, decision.Ratio, 0.65)
	})

	t.Run("harmonization bridges caption variants", func(t *testing.T) {
		row := testRow()
		row.Plaintiff = "United States of America"
		row.Defendant = "Acme Corporation, et al."
		dockets := []models.Docket{
			{ID: 1, CaseName: "Doe v. Roe"},
			{ID: 2, CaseName: "USA vs Acme Corporation"},
		}
		decision := engine.Decide(ctx, row, dockets)
		assert.Equal(t, ActionMerge, decision.Action)
		assert.Equal(t, int64(2), decision.DocketID)
	})

	t.Run("no confident match creates a new docket", func(t *testing.T) {
		dockets := []models.Docket{
			{ID: 1, CaseName: "Brown v. Board of Education"},
			{ID: 2, CaseName: "Doe v. Roe"},
		}
		decision := engine.Decide(ctx, testRow(), dockets)
		assert.Equal(t, ActionCreate, decision.Action)
		assert.True(t, decision.Heuristic)
		assert.LessOrEqual(t, decision.Ratio, 0.65)
	})

	t.Run("threshold is strict", func(t *testing.T) {
		strict := NewEngine(logging.NewNop(), EngineConfig{
			MatchRatioThreshold:   1.0,
			CaptionTruncateLength: 30,
		})
		dockets := []models.Docket{
			{ID: 1, CaseName: "Smith v. Acme Corporation"},
			{ID: 2, CaseName: "Doe v. Roe"},
		}
		// The best candidate scores exactly 1.0, which does not clear a
		// threshold of 1.0.
		decision := strict.Decide(ctx, testRow(), dockets)
		assert.Equal(t, ActionCreate, decision.Action)
	})
}

func TestNewEngine_Defaults(t *testing.T) {
	engine := NewEngine(logging.NewNop(), EngineConfig{})
	assert.Equal(t, 0.65, engine.config.MatchRatioThreshold)
	assert.Equal(t, 30, engine.config.CaptionTruncateLength)
}

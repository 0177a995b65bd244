package review

import (
	"strings"
	"testing"

	"github.com/loopgate/loopgate/pkg/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRiskScorer_SmallCleanPatch_Low(t *testing.T) {
	patch := pipeline.Patch{
		ID: "p1",
		Files: []pipeline.FileChange{
			{Path: "src/main.py", Content: "def hello():\n    return \"hi\"\n", ChangeType: pipeline.ChangeModify},
		},
	}
	result := NewRiskScorer().Score(patch, 0.7)
	assert.Equal(t, pipeline.RiskLow, result.Level)
	assert.False(t, result.Blocked)
}

func TestRiskScorer_ManyFilesAndCriticalTouchAndChurn_Blocked(t *testing.T) {
	files := make([]pipeline.FileChange, 0, 12)
	bigContent := strings.Repeat("x = 1\n", 60)
	for i := 0; i < 11; i++ {
		files = append(files, pipeline.FileChange{Path: "src/file.py", Content: bigContent, ChangeType: pipeline.ChangeModify})
	}
	files = append(files, pipeline.FileChange{Path: "src/auth.py", Content: bigContent, ChangeType: pipeline.ChangeModify})
	files = append(files, pipeline.FileChange{Path: "db/migration_0001.sql", Content: bigContent, ChangeType: pipeline.ChangeCreate})

	patch := pipeline.Patch{ID: "p2", Files: files}
	result := NewRiskScorer().Score(patch, 0.7)

	require.GreaterOrEqual(t, result.Score, 0.7)
	assert.True(t, result.Blocked)
}

func TestRiskScorer_SecuritySmell_AlwaysBlocked(t *testing.T) {
	patch := pipeline.Patch{
		ID: "p3",
		Files: []pipeline.FileChange{
			{Path: "src/tool.py", Content: "result = eval(user_input)\n", ChangeType: pipeline.ChangeModify},
		},
	}
	result := NewRiskScorer().Score(patch, 0.99)
	assert.True(t, result.Blocked, "a critical security factor blocks regardless of score vs threshold")
}

func TestRiskScorer_ScoreCappedAtOne(t *testing.T) {
	bigContent := strings.Repeat("x = eval(y)\nos.system(z)\n", 200)
	files := make([]pipeline.FileChange, 0, 15)
	for i := 0; i < 15; i++ {
		files = append(files, pipeline.FileChange{Path: "config/auth_migration_schema.py", Content: bigContent, ChangeType: pipeline.ChangeModify})
	}
	patch := pipeline.Patch{ID: "p4", Files: files}
	result := NewRiskScorer().Score(patch, 0.7)
	assert.LessOrEqual(t, result.Score, 1.0)
}

func TestRiskScorer_RiskThresholdZero_BlocksNonTrivial(t *testing.T) {
	patch := pipeline.Patch{
		ID: "p5",
		Files: []pipeline.FileChange{
			{Path: "src/main.py", Content: "def hello():\n    return 1\n", ChangeType: pipeline.ChangeModify},
		},
	}
	result := NewRiskScorer().Score(patch, 0.0)
	assert.True(t, result.Blocked)
}

func TestRiskScorer_RollbackCommandsNonEmpty(t *testing.T) {
	patch := pipeline.Patch{
		ID:    "p6",
		Files: []pipeline.FileChange{{Path: "a.py", Content: "x=1", ChangeType: pipeline.ChangeModify}},
	}
	result := NewRiskScorer().Score(patch, 0.7)
	assert.NotEmpty(t, result.RollbackCommands)
}

func TestRiskScorer_NoTestsOnLargeChange(t *testing.T) {
	bigContent := strings.Repeat("y = 1\n", 60)
	patch := pipeline.Patch{
		ID:    "p7",
		Files: []pipeline.FileChange{{Path: "src/feature.py", Content: bigContent, ChangeType: pipeline.ChangeModify}},
	}
	result := NewRiskScorer().Score(patch, 0.99)
	found := false
	for _, f := range result.Factors {
		if strings.Contains(f, "no accompanying tests") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestRiskScorer_ScoreBoundedInUnitInterval(t *testing.T) {
	patch := pipeline.Patch{ID: "p8", Files: []pipeline.FileChange{{Path: "a.py", Content: "x=1", ChangeType: pipeline.ChangeModify}}}
	result := NewRiskScorer().Score(patch, 0.5)
	assert.GreaterOrEqual(t, result.Score, 0.0)
	assert.LessOrEqual(t, result.Score, 1.0)
}

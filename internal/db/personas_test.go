package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPersonaUpdate(t *testing.T) {
	set, args, err := buildPersonaUpdate(map[string]any{
		"title":      "Staff Engineer",
		"salary_min": 100000,
		"location":   nil,
	})
	require.NoError(t, err)

	assert.Equal(t, "location = $1, salary_min = $2, title = $3, updated_at = NOW()", set)
	assert.Equal(t, []any{nil, 100000, "Staff Engineer"}, args)
}

func TestBuildPersonaUpdate_Rejects(t *testing.T) {
	_, _, err := buildPersonaUpdate(map[string]any{})
	assert.ErrorContains(t, err, "no fields to update")

	_, _, err = buildPersonaUpdate(map[string]any{"user_id": "someone-else"})
	assert.ErrorContains(t, err, `column "user_id" cannot be updated`)

	_, _, err = buildPersonaUpdate(map[string]any{"name = 'x'; --": "x"})
	assert.Error(t, err)
}

func TestUpdatableColumns_ExcludeSystemColumns(t *testing.T) {
	for _, column := range []string{"id", "user_id", "created_at", "updated_at", "market_demand", "global_matches", "confidence_score"} {
		assert.False(t, UpdatableColumns[column], column)
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "jane@x.com", normalizeEmail("  Jane@X.com "))
}

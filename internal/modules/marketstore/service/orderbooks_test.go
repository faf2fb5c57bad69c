package service

import (
	"testing"

	"marketdesk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelsJSONWireShape(t *testing.T) {
	raw, err := levelsToJSON([]models.BookLevel{
		{Price: 100.5, Qty: 1},
		{Price: 100.4, Qty: 2.5},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[[100.5,1],[100.4,2.5]]`, string(raw))

	back, err := levelsFromJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, 100.4, back[1].Price)
}

func TestLevelsJSONEmpty(t *testing.T) {
	raw, err := levelsToJSON(nil)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(raw))

	back, err := levelsFromJSON(raw)
	require.NoError(t, err)
	assert.Empty(t, back)
}

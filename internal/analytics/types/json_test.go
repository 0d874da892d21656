package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJSON(t *testing.T) {
	assert.False(t, JSON(nil).Valid)
	assert.False(t, JSON(json.RawMessage("null")).Valid)

	got := JSON(json.RawMessage(`{"shortCode":"aB3dE5gH"}`))
	assert.True(t, got.Valid)
	assert.Equal(t, `{"shortCode":"aB3dE5gH"}`, got.JSONVal)
}

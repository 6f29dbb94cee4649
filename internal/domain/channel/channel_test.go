package channel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixed(t *testing.T) {
	fixed := Fixed()

	assert.Len(t, fixed, 3)
	for _, id := range []int{IDPersonal, IDFavorites, IDEditorPicks} {
		ch, ok := fixed[id]
		assert.True(t, ok, "fixed channel %d should exist", id)
		assert.Equal(t, id, ch.ID)
		assert.NotEmpty(t, ch.Name)
	}
	assert.True(t, fixed[IDEditorPicks].Shareable)

	// Callers may mutate the result without affecting later calls.
	fixed[IDPersonal] = Channel{ID: IDPersonal, Name: "changed"}
	assert.Equal(t, "我的私人", Fixed()[IDPersonal].Name)
}

func TestIsFixed(t *testing.T) {
	assert.True(t, IsFixed(0))
	assert.True(t, IsFixed(-3))
	assert.True(t, IsFixed(-10))
	assert.False(t, IsFixed(1))
	assert.False(t, IsFixed(-1))
}

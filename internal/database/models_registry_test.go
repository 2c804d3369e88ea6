package database

import (
	"testing"

	"pixelpost/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistentModels_OrderRespectsReferences(t *testing.T) {
	index := map[string]int{}
	for i, m := range PersistentModels() {
		switch m.(type) {
		case *models.User:
			index["user"] = i
		case *models.StylePreset:
			index["preset"] = i
		case *models.GeneratedImage:
			index["image"] = i
		case *models.Post:
			index["post"] = i
		case *models.Like:
			index["like"] = i
		case *models.Feedback:
			index["feedback"] = i
		}
	}
	require.Len(t, index, 6)
	assert.Less(t, index["user"], index["image"])
	assert.Less(t, index["preset"], index["image"])
	assert.Less(t, index["image"], index["post"])
	assert.Less(t, index["post"], index["like"])
}

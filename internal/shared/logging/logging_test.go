package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_FansOutByLevel(t *testing.T) {
	var out, errOut bytes.Buffer
	logger := New(&out, &errOut, slog.LevelInfo)

	logger.Debug("hidden")
	logger.Info("loaded favorites", "count", 3)
	logger.Error("write failed", "key", "favorites")

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "loaded favorites")
	assert.Contains(t, out.String(), "write failed")

	assert.NotContains(t, errOut.String(), "loaded favorites")
	assert.Contains(t, errOut.String(), `"msg":"write failed"`)
	assert.Contains(t, errOut.String(), `"key":"favorites"`)
}

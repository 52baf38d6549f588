package llm

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptSaverWritesPromptAndReply(t *testing.T) {
	dir := t.TempDir()
	saver := &PromptSaver{Dir: dir}
	ctx := context.Background()

	saver.Before(ctx, "detect", "analyze this", nil)
	saver.After(ctx, "detect", []byte(`{"issues":["x"]}`), nil)
	saver.After(ctx, "detect", nil, errors.New("quota"))

	log, err := os.ReadFile(filepath.Join(dir, "prompt", "detect.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(log), "analyze this")
	assert.Contains(t, string(log), `{"issues":["x"]}`)
	assert.Contains(t, string(log), "ERROR: quota")

	raw, err := os.ReadFile(filepath.Join(dir, "detect.raw.txt"))
	require.NoError(t, err)
	assert.Equal(t, `{"issues":["x"]}`, string(raw))
}

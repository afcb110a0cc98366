package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/patchdelta/internal/model"
)

func TestLoadMissing(t *testing.T) {
	d, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Defaults{}, d)
}

// TestLoadJSONC verifies the comment-tolerant JSON variant.
func TestLoadJSONC(t *testing.T) {
	dir := t.TempDir()
	content := `{
	// artifacts land next to the agent transcripts
	"outputDir": "artifacts",
	"timeoutSeconds": 60,
	"keep": true, // trailing comma tolerated below
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".patchdelta.jsonc"), []byte(content), 0644))

	d, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "artifacts", d.OutputDir)
	assert.Equal(t, 60, d.TimeoutSeconds)
	assert.True(t, d.Keep)
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	content := "outputDir: out\nscratchDir: /tmp/patchdelta-fixed\ntimeoutSeconds: 30\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".patchdelta.yaml"), []byte(content), 0644))

	d, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "out", d.OutputDir)
	assert.Equal(t, "/tmp/patchdelta-fixed", d.ScratchDir)
	assert.Equal(t, 30, d.TimeoutSeconds)
	assert.False(t, d.Keep)
}

// TestLoadJSONCWinsOverYAML pins the candidate ordering.
func TestLoadJSONCWinsOverYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".patchdelta.jsonc"), []byte(`{"outputDir": "from-jsonc"}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".patchdelta.yaml"), []byte("outputDir: from-yaml\n"), 0644))

	d, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-jsonc", d.OutputDir)
}

// TestLoadInvalid verifies that an unparseable file is surfaced as a
// configuration error instead of being skipped.
func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".patchdelta.yaml"), []byte(":\n[broken"), 0644))

	_, err := Load(dir)
	require.Error(t, err)

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitConfigError, cliErr.Code)
}

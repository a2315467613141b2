package runtime

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedded(t *testing.T) {
	assert.Contains(t, Utils(), "wrapperSymbol")
	assert.Contains(t, Utils(), "ordinarySetWithOwnDescriptor")
	assert.Contains(t, Conversions(), `exports["unsigned long"]`)
}

func TestFiles(t *testing.T) {
	assert.Len(t, Files(false), 1)
	files := Files(true)
	require.Len(t, files, 2)
	assert.Contains(t, files, ConversionsFile)
}

func TestWriteTo(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, WriteTo(dir, true))

	data, err := os.ReadFile(filepath.Join(dir, UtilsFile))
	require.NoError(t, err)
	assert.Equal(t, Utils(), string(data))

	_, err = os.Stat(filepath.Join(dir, ConversionsFile))
	assert.NoError(t, err)
}

// Package testutil provides shared test helpers for creating config files and collection fixtures.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/kartei/internal/collection"
)

// SetupTestConfig creates a minimal config file and the directories it refers to.
// Returns the path to the generated config file.
func SetupTestConfig(t *testing.T, tmpDir string) string {
	t.Helper()

	mediaDir := filepath.Join(tmpDir, "media")
	require.NoError(t, os.MkdirAll(mediaDir, 0755))

	configContent := fmt.Sprintf(`collection:
  path: %s
  media_directory: %s
`,
		filepath.Join(tmpDir, "collection.db"),
		mediaDir,
	)

	cfgPath := filepath.Join(tmpDir, "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(configContent), 0644))
	return cfgPath
}

// OpenTestCollection opens a collection backed by a file in a per-test
// temporary directory and closes it without saving when the test ends.
func OpenTestCollection(t *testing.T, opts ...collection.Option) *collection.Collection {
	t.Helper()

	ctx := context.Background()
	col, err := collection.Open(ctx, filepath.Join(t.TempDir(), "collection.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = col.Close(context.Background(), false)
	})
	return col
}

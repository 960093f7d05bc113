// Package testutil holds helpers shared by package tests.
package testutil

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

var Update = flag.Bool("update", false, "update golden files")

func goldenPath(name string) string {
	return filepath.Join("testdata", name+".golden")
}

// CompareWithGolden checks actual against testdata/<name>.golden, rewriting
// the file instead when the test binary runs with -update.
func CompareWithGolden(t *testing.T, name string, actual []byte) {
	t.Helper()
	path := goldenPath(name)

	if *Update {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, actual, 0644))
		return
	}

	expected, err := os.ReadFile(path)
	require.NoError(t, err, "reading golden file")
	require.Equal(t, string(expected), string(actual), "golden mismatch for %s", name)
}

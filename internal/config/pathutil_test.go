package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocateFromModuleSubdirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "go.mod", "module example.com/desk\n")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "etc"), 0o755))
	writeFile(t, filepath.Join(root, "etc"), "varctl.yaml", "Env: dev\n")
	sub := filepath.Join(root, "cmd", "varctl")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	tests := []struct {
		name  string
		start string
		path  string
		want  string
	}{
		{"found from subdirectory", sub, DefaultPath, filepath.Join(root, DefaultPath)},
		{"present in working directory", root, DefaultPath, DefaultPath},
		{"missing everywhere", sub, "etc/other.yaml", "etc/other.yaml"},
		{"absolute path untouched", sub, "/nowhere/varctl.yaml", "/nowhere/varctl.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, locateFrom(tt.start, tt.path))
		})
	}
}

func TestLocateFromOutsideModule(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, DefaultPath, locateFrom(dir, DefaultPath))
}

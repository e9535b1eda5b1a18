package config

import (
	"os"
	"path/filepath"
)

// DefaultPath is the main config used by the binaries when -f is not given.
const DefaultPath = "etc/varctl.yaml"

// LocateMain resolves the main config path for the binaries. A relative path
// missing from the working directory is retried against the module root above
// it, so varctl and ledgersync run from any subdirectory of a checkout.
func LocateMain(path string) string {
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	return locateFrom(wd, path)
}

func locateFrom(start, path string) string {
	if filepath.IsAbs(path) || exists(filepath.Join(start, path)) {
		return path
	}
	root, ok := moduleRoot(start)
	if !ok {
		return path
	}
	if candidate := filepath.Join(root, path); exists(candidate) {
		return candidate
	}
	return path
}

// moduleRoot walks upward from start to the nearest directory holding go.mod.
func moduleRoot(start string) (string, bool) {
	dir := start
	for i := 0; i < 8; i++ {
		if exists(filepath.Join(dir, "go.mod")) {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

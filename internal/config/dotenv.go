package config

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
)

var dotenvOnce sync.Once

// LoadDotenvOnce loads a .env file the first time it is called.
//
// VARIATIONAL_ENV_FILE names the file explicitly; otherwise .env is searched
// from the working directory up to the project root. NO_DOTENV=1 skips
// loading and DOTENV_OVERLOAD=1 lets the file override the environment.
func LoadDotenvOnce() {
	dotenvOnce.Do(loadDotenv)
}

func loadDotenv() {
	if os.Getenv("NO_DOTENV") == "1" {
		return
	}

	overload := os.Getenv("DOTENV_OVERLOAD") == "1"
	load := func(paths ...string) {
		if overload {
			_ = godotenv.Overload(paths...)
		} else {
			_ = godotenv.Load(paths...)
		}
	}

	if envFile := os.Getenv("VARIATIONAL_ENV_FILE"); envFile != "" {
		load(envFile)
		return
	}

	dir, err := os.Getwd()
	if err != nil {
		load(".env")
		return
	}
	for i := 0; i < 8; i++ {
		if candidate := filepath.Join(dir, ".env"); exists(candidate) {
			load(candidate)
			return
		}
		if exists(filepath.Join(dir, "go.mod")) {
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

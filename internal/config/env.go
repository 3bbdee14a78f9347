// Package config provides centralized configuration management.
// All environment lookups live here instead of scattered os.Getenv calls.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// UnpinEnv holds all unpin environment variables.
type UnpinEnv struct {
	// Device is the device serial to attach to (UNPIN_DEVICE)
	Device string

	// GadgetAddr is the address of an in-process agent (UNPIN_GADGET_ADDR)
	GadgetAddr string

	// DBPath overrides the run archive location (UNPIN_DB_PATH)
	DBPath string

	// NoHeuristics disables the heuristic scan phase (UNPIN_NO_HEURISTICS)
	NoHeuristics bool

	// ProbeAlphabet overrides the heuristic probe method names,
	// comma-separated (UNPIN_PROBE_ALPHABET)
	ProbeAlphabet []string
}

var (
	env     *UnpinEnv
	envOnce sync.Once
)

// Env returns the singleton environment configuration.
// Thread-safe, loads once on first call.
func Env() *UnpinEnv {
	envOnce.Do(func() {
		env = &UnpinEnv{
			Device:        os.Getenv("UNPIN_DEVICE"),
			GadgetAddr:    getEnvDefault("UNPIN_GADGET_ADDR", "127.0.0.1:27042"),
			DBPath:        os.Getenv("UNPIN_DB_PATH"),
			NoHeuristics:  os.Getenv("UNPIN_NO_HEURISTICS") == "1",
			ProbeAlphabet: splitList(os.Getenv("UNPIN_PROBE_ALPHABET")),
		}
	})
	return env
}

// ResetEnv resets the cached environment (for testing).
func ResetEnv() {
	envOnce = sync.Once{}
	env = nil
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Paths holds standard unpin directory paths.
type Paths struct {
	// Home is the unpin home directory (~/.unpin)
	Home string

	// Data is the data directory (~/.unpin/data)
	Data string

	// DB is the default run archive path (~/.unpin/data/runs.db)
	DB string
}

var (
	paths     *Paths
	pathsOnce sync.Once
)

// GetPaths returns the singleton paths configuration.
func GetPaths() *Paths {
	pathsOnce.Do(func() {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		unpinHome := filepath.Join(home, ".unpin")

		paths = &Paths{
			Home: unpinHome,
			Data: filepath.Join(unpinHome, "data"),
			DB:   filepath.Join(unpinHome, "data", "runs.db"),
		}
	})
	return paths
}

// DBPath resolves the run archive path: the env override when set,
// otherwise the default under the unpin home.
func DBPath() string {
	if p := Env().DBPath; p != "" {
		return p
	}
	return GetPaths().DB
}

// EnsureDir creates a directory if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnv(t *testing.T) {
	ResetEnv()

	os.Setenv("UNPIN_DEVICE", "emulator-5554")
	os.Setenv("UNPIN_GADGET_ADDR", "10.0.0.5:27042")
	os.Setenv("UNPIN_NO_HEURISTICS", "1")
	os.Setenv("UNPIN_PROBE_ALPHABET", "check, verify,a")
	defer func() {
		os.Unsetenv("UNPIN_DEVICE")
		os.Unsetenv("UNPIN_GADGET_ADDR")
		os.Unsetenv("UNPIN_NO_HEURISTICS")
		os.Unsetenv("UNPIN_PROBE_ALPHABET")
		ResetEnv()
	}()

	env := Env()

	assert.Equal(t, "emulator-5554", env.Device)
	assert.Equal(t, "10.0.0.5:27042", env.GadgetAddr)
	assert.True(t, env.NoHeuristics)
	assert.Equal(t, []string{"check", "verify", "a"}, env.ProbeAlphabet)
}

func TestEnvDefaults(t *testing.T) {
	ResetEnv()

	os.Unsetenv("UNPIN_GADGET_ADDR")
	os.Unsetenv("UNPIN_PROBE_ALPHABET")
	defer ResetEnv()

	env := Env()

	assert.Equal(t, "127.0.0.1:27042", env.GadgetAddr)
	assert.Nil(t, env.ProbeAlphabet)
	assert.False(t, env.NoHeuristics)
}

func TestEnvSingleton(t *testing.T) {
	ResetEnv()
	defer ResetEnv()

	env1 := Env()
	env2 := Env()

	assert.Same(t, env1, env2)
}

func TestResetEnv(t *testing.T) {
	os.Setenv("UNPIN_DEVICE", "first")
	ResetEnv()
	env1 := Env()
	assert.Equal(t, "first", env1.Device)

	os.Setenv("UNPIN_DEVICE", "second")
	ResetEnv()

	env2 := Env()
	assert.Equal(t, "second", env2.Device)

	os.Unsetenv("UNPIN_DEVICE")
	ResetEnv()
}

func TestGetEnvDefault(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		envVal   string
		fallback string
		want     string
	}{
		{"env set", "TEST_KEY", "value", "default", "value"},
		{"env empty", "TEST_KEY", "", "default", "default"},
		{"env not set", "TEST_KEY_NOTSET", "", "fallback", "fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envVal != "" {
				os.Setenv(tt.key, tt.envVal)
				defer os.Unsetenv(tt.key)
			}
			got := getEnvDefault(tt.key, tt.fallback)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetPaths(t *testing.T) {
	paths := GetPaths()

	assert.NotEmpty(t, paths.Home)
	assert.Contains(t, paths.Home, ".unpin")
	assert.Equal(t, filepath.Join(paths.Home, "data"), paths.Data)
	assert.Equal(t, filepath.Join(paths.Data, "runs.db"), paths.DB)
}

func TestDBPath(t *testing.T) {
	ResetEnv()
	defer ResetEnv()

	assert.Equal(t, GetPaths().DB, DBPath())

	os.Setenv("UNPIN_DB_PATH", "/tmp/custom.db")
	ResetEnv()
	assert.Equal(t, "/tmp/custom.db", DBPath())
	os.Unsetenv("UNPIN_DB_PATH")
}

func TestEnsureDir(t *testing.T) {
	tempDir := filepath.Join(os.TempDir(), "unpin-test-ensure")
	defer os.RemoveAll(tempDir)

	os.RemoveAll(tempDir)

	err := EnsureDir(tempDir)
	assert.NoError(t, err)

	info, err := os.Stat(tempDir)
	assert.NoError(t, err)
	assert.True(t, info.IsDir())

	// Running again should be idempotent
	err = EnsureDir(tempDir)
	assert.NoError(t, err)
}

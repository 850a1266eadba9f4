package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:         AppConfig{Environment: "development"},
		Logger:      LoggerConfig{Level: "info"},
		Storage:     StorageConfig{BasePath: "/some/path"},
		Circulation: CirculationConfig{SweepInterval: time.Hour},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_AllLogLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"debug", true},
		{"info", true},
		{"warn", true},
		{"error", true},
		{"DEBUG", true},  // case insensitive
		{"trace", false}, // not supported
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := validConfig()
			cfg.Logger.Level = tt.level

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_SweepInterval(t *testing.T) {
	cfg := validConfig()
	cfg.Circulation.SweepInterval = 0
	assert.Error(t, cfg.Validate())

	cfg.Circulation.SweepInterval = -time.Minute
	assert.Error(t, cfg.Validate())
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	expanded, err := expandPath("~/circulate/data", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "circulate", "data"), expanded)

	expanded, err = expandPath("", "/default/path")
	require.NoError(t, err)
	assert.Equal(t, "/default/path", expanded)

	expanded, err = expandPath("/abs/../abs/path", "")
	require.NoError(t, err)
	assert.Equal(t, "/abs/path", expanded)
}

func TestGetConfigValue_Precedence(t *testing.T) {
	t.Setenv("CIRCULATE_TEST_KEY", "from-env")

	assert.Equal(t, "from-flag", getConfigValue("from-flag", "CIRCULATE_TEST_KEY", "default"))
	assert.Equal(t, "from-env", getConfigValue("", "CIRCULATE_TEST_KEY", "default"))
	assert.Equal(t, "default", getConfigValue("", "CIRCULATE_TEST_MISSING", "default"))
}

func TestParseDurationValue(t *testing.T) {
	d, err := parseDurationValue("", "CIRCULATE_TEST_MISSING", "90s")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)

	_, err = parseDurationValue("not-a-duration", "CIRCULATE_TEST_MISSING", "1h")
	assert.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("CIRCULATE_ENVFILE_A=alpha\n# comment\nCIRCULATE_ENVFILE_B=\"quoted\"\n"), 0o644))

	t.Setenv("CIRCULATE_ENVFILE_A", "preset")

	require.NoError(t, loadEnvFile(envFile))

	// Existing environment wins; new keys load.
	assert.Equal(t, "preset", os.Getenv("CIRCULATE_ENVFILE_A"))
	assert.Equal(t, "quoted", os.Getenv("CIRCULATE_ENVFILE_B"))

	t.Cleanup(func() { os.Unsetenv("CIRCULATE_ENVFILE_B") })
}

package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/haven-intake/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HAVEN_CONFIG_FILE", "")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.ModeLocal, cfg.Mode)
	assert.Equal(t, config.ProviderMock, cfg.LLMProvider)
	assert.Equal(t, config.StorageMemory, cfg.StorageBackend)
	assert.Equal(t, 20*time.Second, cfg.BackendTimeout)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "haven.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9090"
llm_provider: openai
openai_base_url: http://localhost:11434/v1
backend_timeout: 5s
rate_limit: 2.5
rate_burst: 3
seed: 42
`), 0o644))

	t.Setenv("HAVEN_CONFIG_FILE", path)
	t.Setenv("HAVEN_PORT", "7070")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, config.ProviderOpenAI, cfg.LLMProvider)
	assert.Equal(t, 5*time.Second, cfg.BackendTimeout)
	assert.InDelta(t, 2.5, cfg.RateLimit, 1e-9)
	assert.Equal(t, 3, cfg.RateBurst)
	assert.Equal(t, uint64(42), cfg.Seed)
}

func TestLoadRejectsBadEnv(t *testing.T) {
	t.Setenv("HAVEN_CONFIG_FILE", "")
	t.Setenv("HAVEN_BACKEND_TIMEOUT", "soon")

	_, err := config.Load()
	assert.ErrorContains(t, err, "HAVEN_BACKEND_TIMEOUT")
}

func TestValidate(t *testing.T) {
	tests := map[string]struct {
		mutate  func(*config.Config)
		wantErr string
	}{
		"default is valid": {
			mutate: func(*config.Config) {},
		},
		"vertex without project": {
			mutate:  func(c *config.Config) { c.LLMProvider = config.ProviderVertex },
			wantErr: "vertex provider",
		},
		"firestore without project": {
			mutate:  func(c *config.Config) { c.StorageBackend = config.StorageFirestore },
			wantErr: "firestore storage",
		},
		"unknown provider": {
			mutate:  func(c *config.Config) { c.LLMProvider = "carrier-pigeon" },
			wantErr: "unknown llm provider",
		},
		"zero timeout": {
			mutate:  func(c *config.Config) { c.BackendTimeout = 0 },
			wantErr: "backend timeout",
		},
		"gcp mode without project": {
			mutate:  func(c *config.Config) { c.Mode = config.ModeGCP },
			wantErr: "gcp mode",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestWatchReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "haven.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: info\n"), 0o644))
	t.Setenv("HAVEN_LOG_LEVEL", "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *config.Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- config.Watch(ctx, path, func(c *config.Config) {
			select {
			case changes <- c:
			default:
			}
		})
	}()

	// give the watcher time to register before writing
	require.Eventually(t, func() bool {
		if err := os.WriteFile(path, []byte("log_level: debug\n"), 0o644); err != nil {
			return false
		}
		select {
		case c := <-changes:
			return c.LogLevel == "debug"
		case <-time.After(300 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

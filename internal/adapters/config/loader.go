// Package config provides the configuration loader for rebake.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// AllowedEnvNames is the closed set of configuration values that may be
// propagated into the remote execution context. Arbitrary environment is
// never forwarded.
var AllowedEnvNames = map[string]bool{
	"REBAKE_RECIPES_DIR": true,
	"REBAKE_LEDGER_PATH": true,
	"REBAKE_CACHE_ROOT":  true,
	"REBAKE_RECIPE":      true,
	"REBAKE_WEBHOOK_URL": true,
}

// Load reads the configuration file at path and returns a validated Config
// with defaults applied. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	var rf rebakefile
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Defaults only.
	case err != nil:
		return nil, zerr.Wrap(err, "failed to read config file")
	default:
		if err := yaml.Unmarshal(data, &rf); err != nil {
			return nil, zerr.Wrap(err, "failed to parse config file")
		}
	}
	return fromFile(rf)
}

func fromFile(rf rebakefile) (*Config, error) {
	cfg := &Config{
		Target:          TargetLocal,
		RecipesDir:      rf.RecipesDir,
		RecipeSet:       rf.RecipeSet,
		CacheRoot:       rf.CacheRoot,
		LedgerPath:      rf.LedgerPath,
		ReceiptsDir:     rf.ReceiptsDir,
		PipelineCmd:     rf.PipelineCmd,
		BootstrapCmd:    rf.BootstrapCmd,
		DiscoveryCmd:    rf.DiscoveryCmd,
		Host:            rf.Host,
		RemoteUser:      rf.RemoteUser,
		KeyInstallCmd:   rf.KeyInstallCmd,
		KeyRevokeCmd:    rf.KeyRevokeCmd,
		PasswordCopyCmd: rf.PasswordCopyCmd,
		AllowEnv:        rf.AllowEnv,
		NotifyEnabled:   rf.Notify.Enabled,
		WebhookURL:      rf.Notify.WebhookURL,
		RetryAttempts:   rf.Retry.Attempts,
		RetryDelay:      3 * time.Second,
	}

	switch rf.Target {
	case "", string(TargetLocal):
		cfg.Target = TargetLocal
	case string(TargetRemoteSession):
		cfg.Target = TargetRemoteSession
	default:
		return nil, zerr.With(zerr.New("unknown target mode, expected local or remote-session"),
			"target", rf.Target)
	}

	for name := range cfg.AllowEnv {
		if !AllowedEnvNames[name] {
			return nil, zerr.With(zerr.New("environment value is not on the allow-list"), "name", name)
		}
	}

	if rf.Retry.Delay != "" {
		d, err := time.ParseDuration(rf.Retry.Delay)
		if err != nil {
			return nil, zerr.Wrap(err, "invalid retry delay")
		}
		cfg.RetryDelay = d
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 5
	}

	if cfg.CacheRoot == "" {
		cfg.CacheRoot = filepath.Join(xdg.CacheHome, "rebake", "downloads")
	}
	if cfg.LedgerPath == "" {
		cfg.LedgerPath = filepath.Join(xdg.StateHome, "rebake", "ledger.json")
	}
	if cfg.ReceiptsDir == "" {
		cfg.ReceiptsDir = filepath.Join(xdg.StateHome, "rebake")
	}
	if cfg.RecipesDir == "" {
		cfg.RecipesDir = "recipes"
	}
	if cfg.RecipeSet == "" {
		cfg.RecipeSet = "recipes.json"
	}
	if cfg.RemoteUser == "" {
		cfg.RemoteUser = "build"
	}

	if cfg.NotifyEnabled && cfg.WebhookURL == "" {
		return nil, zerr.New("notifications enabled but no webhook URL configured")
	}
	return cfg, nil
}

// ReceiptsPath returns the location of the driver's receipts document.
func (c *Config) ReceiptsPath() string {
	return filepath.Join(c.ReceiptsDir, "receipts.json")
}

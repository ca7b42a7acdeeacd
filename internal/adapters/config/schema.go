package config

import "time"

// TargetMode selects where the build pipeline executes.
type TargetMode string

const (
	// TargetLocal runs the driver in-process on this machine.
	TargetLocal TargetMode = "local"
	// TargetRemoteSession ships the pipeline to a discovered build host.
	TargetRemoteSession TargetMode = "remote-session"
)

// Config is the explicit configuration surface for a session. Nothing in
// the engines reads ambient environment; everything arrives through this
// struct.
type Config struct {
	Target      TargetMode
	RecipesDir  string
	RecipeSet   string
	CacheRoot   string
	LedgerPath  string
	ReceiptsDir string

	PipelineCmd  []string
	BootstrapCmd []string
	DiscoveryCmd []string

	Host       string
	RemoteUser string

	KeyInstallCmd   []string
	KeyRevokeCmd    []string
	PasswordCopyCmd []string

	// AllowEnv is the allow-list of named values propagated into the
	// remote execution context. Keys outside the recognized set are
	// rejected at load time.
	AllowEnv map[string]string

	NotifyEnabled bool
	WebhookURL    string

	RetryAttempts int
	RetryDelay    time.Duration
}

// rebakefile is the YAML shape of rebake.yaml.
type rebakefile struct {
	Target      string `yaml:"target"`
	RecipesDir  string `yaml:"recipes_dir"`
	RecipeSet   string `yaml:"recipe_set"`
	CacheRoot   string `yaml:"cache_root"`
	LedgerPath  string `yaml:"ledger_path"`
	ReceiptsDir string `yaml:"receipts_dir"`

	PipelineCmd  []string `yaml:"pipeline_cmd"`
	BootstrapCmd []string `yaml:"bootstrap_cmd"`
	DiscoveryCmd []string `yaml:"discovery_cmd"`

	Host       string `yaml:"host"`
	RemoteUser string `yaml:"remote_user"`

	KeyInstallCmd   []string `yaml:"key_install_cmd"`
	KeyRevokeCmd    []string `yaml:"key_revoke_cmd"`
	PasswordCopyCmd []string `yaml:"password_copy_cmd"`

	AllowEnv map[string]string `yaml:"allow_env"`

	Notify struct {
		Enabled    bool   `yaml:"enabled"`
		WebhookURL string `yaml:"webhook_url"`
	} `yaml:"notify"`

	Retry struct {
		Attempts int    `yaml:"attempts"`
		Delay    string `yaml:"delay"`
	} `yaml:"retry"`
}

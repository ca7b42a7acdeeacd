// Package app implements the application layer for rebake: it composes the
// adapters and engines for one invocation and runs the selected target mode.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.trai.ch/zerr"

	"go.pkgforge.dev/rebake/internal/adapters/cache"
	"go.pkgforge.dev/rebake/internal/adapters/config"
	"go.pkgforge.dev/rebake/internal/adapters/discovery"
	"go.pkgforge.dev/rebake/internal/adapters/ledger"
	"go.pkgforge.dev/rebake/internal/adapters/notify"
	"go.pkgforge.dev/rebake/internal/adapters/origin"
	"go.pkgforge.dev/rebake/internal/adapters/pipeline"
	"go.pkgforge.dev/rebake/internal/adapters/recipes"
	"go.pkgforge.dev/rebake/internal/adapters/shell"
	"go.pkgforge.dev/rebake/internal/core/domain"
	"go.pkgforge.dev/rebake/internal/core/ports"
	"go.pkgforge.dev/rebake/internal/engine/driver"
	"go.pkgforge.dev/rebake/internal/engine/report"
	"go.pkgforge.dev/rebake/internal/engine/session"
	"go.pkgforge.dev/rebake/internal/ui"
)

// App represents the main application logic.
type App struct {
	cfg    *config.Config
	logger ports.Logger
	out    io.Writer
}

// New creates a new App instance. Output destined for the user, as opposed
// to log records, goes to out.
func New(cfg *config.Config, logger ports.Logger, out io.Writer) *App {
	return &App{cfg: cfg, logger: logger, out: out}
}

// RunOptions are the per-invocation knobs.
type RunOptions struct {
	// Recipes overrides the configured recipe set when non-empty.
	Recipes []string
	// RebuildCache reconstructs the placeholder cache from the ledger
	// before the first recipe runs.
	RebuildCache bool
}

// Run executes one full invocation in the configured target mode.
func (a *App) Run(ctx context.Context, opts RunOptions) error {
	switch a.cfg.Target {
	case config.TargetLocal:
		return a.runLocal(ctx, opts)
	case config.TargetRemoteSession:
		return a.runRemote(ctx)
	default:
		return zerr.With(zerr.New("unknown target mode"), "target", string(a.cfg.Target))
	}
}

func (a *App) runLocal(ctx context.Context, opts RunOptions) error {
	names, err := a.recipeNames(opts)
	if err != nil {
		return err
	}

	loader := recipes.NewLoader(a.cfg.RecipesDir, a.logger)
	resolved, unresolved := loader.ResolveAll(names)

	store := ledger.Open(a.cfg.LedgerPath, a.logger)
	prev := store.Records()
	a.logger.Debug("ledger loaded", "records", len(prev), "fingerprint", store.ContentFingerprint())

	executor := shell.NewExecutor(a.logger)
	recon := cache.NewReconstructor(a.cfg.CacheRoot, a.logger)
	det := driver.NewDetector(origin.NewProber(), recon, a.logger)
	pipe := pipeline.NewRunner(a.cfg.PipelineCmd, executor, a.logger)
	d := driver.New(store, det, origin.NewFetcher(a.logger), pipe, recon, a.logger)

	receipts, err := d.Run(ctx, resolved, opts.RebuildCache)
	if err != nil {
		return err
	}
	receipts = append(unresolved, receipts...)

	merged := report.Merge(receipts, prev, store.Records())
	if err := WriteReceipts(a.cfg.ReceiptsPath(), receipts); err != nil {
		a.logger.Warn("failed to persist receipts", "error", err)
	}

	fmt.Fprint(a.out, ui.RenderSummary(merged, nil))
	a.notify(ctx, merged, nil)

	if merged.Failed > 0 {
		return zerr.With(zerr.New("recipes failed"), "failed", merged.Failed)
	}
	return nil
}

func (a *App) runRemote(ctx context.Context) error {
	// Receipts left over from an earlier invocation must not be mistaken
	// for this session's results.
	if err := os.Remove(a.cfg.ReceiptsPath()); err != nil && !os.IsNotExist(err) {
		return zerr.Wrap(err, "failed to clear stale receipts")
	}

	prev := ledger.Open(a.cfg.LedgerPath, a.logger).Records()

	driverBin, err := driverBinaryPath()
	if err != nil {
		return err
	}

	executor := shell.NewExecutor(a.logger)
	mgr := session.NewManager(session.Options{
		Host:            a.cfg.Host,
		RemoteUser:      a.cfg.RemoteUser,
		RecipeSetPath:   a.cfg.RecipeSet,
		LedgerPath:      a.cfg.LedgerPath,
		ReceiptsDir:     a.cfg.ReceiptsDir,
		DriverBinPath:   driverBin,
		BootstrapCmd:    a.cfg.BootstrapCmd,
		KeyInstallCmd:   a.cfg.KeyInstallCmd,
		KeyRevokeCmd:    a.cfg.KeyRevokeCmd,
		PasswordCopyCmd: a.cfg.PasswordCopyCmd,
		AllowEnv:        a.cfg.AllowEnv,
		RetryAttempts:   a.cfg.RetryAttempts,
		RetryDelay:      a.cfg.RetryDelay,
	}, executor, discovery.NewScanner(a.cfg.DiscoveryCmd, executor, a.logger), session.NewHostLocks(), a.logger)

	sess, sessErr := mgr.Run(ctx)

	// Only a session that completed collection has receipts worth merging.
	var receipts []domain.RecipeReceipt
	if sess.Reached(domain.PhaseCollected) {
		if receipts, err = readReceipts(a.cfg.ReceiptsPath()); err != nil {
			a.logger.Warn("no receipts collected from session", "error", err)
		}
	}
	collected := ledger.Open(a.cfg.LedgerPath, a.logger)
	a.logger.Debug("ledger after session", "fingerprint", collected.ContentFingerprint())
	merged := report.Merge(receipts, prev, collected.Records())

	fmt.Fprint(a.out, ui.RenderSummary(merged, sess))
	a.notify(ctx, merged, sessErr)

	if sessErr != nil {
		return sessErr
	}
	if merged.Failed > 0 {
		return zerr.With(zerr.New("recipes failed"), "failed", merged.Failed)
	}
	return nil
}

// recipeNames resolves the recipe list for this invocation: an explicit
// override wins, otherwise the configured recipe set file.
func (a *App) recipeNames(opts RunOptions) ([]string, error) {
	if len(opts.Recipes) > 0 {
		names := make([]string, len(opts.Recipes))
		for i, name := range opts.Recipes {
			names[i] = recipes.WithExt(name)
		}
		return names, nil
	}
	if a.cfg.RecipeSet == "" {
		return nil, zerr.New("no recipes given and no recipe set configured")
	}
	return recipes.LoadSet(a.cfg.RecipeSet)
}

// notify sends the session outcome to the configured webhook. Failures are
// logged and never change the invocation's outcome.
func (a *App) notify(ctx context.Context, merged domain.CombinedReport, sessErr error) {
	var sink ports.Notifier = notify.Noop{}
	if a.cfg.NotifyEnabled {
		sink = notify.NewWebhook(a.cfg.WebhookURL)
	}

	success := sessErr == nil && merged.Failed == 0
	text := fmt.Sprintf("%d built, %d skipped, %d failed", merged.Built, merged.Skipped, merged.Failed)
	if sessErr != nil {
		text += fmt.Sprintf("\nsession error: %v", sessErr)
	}
	for _, r := range merged.Receipts {
		if r.Status == domain.StatusFailed {
			text += fmt.Sprintf("\n%s: %s", r.RecipeID, r.Error)
		}
	}

	title := "rebake run succeeded"
	if !success {
		title = "rebake run failed"
	}
	if err := sink.Notify(ctx, ports.Notification{Title: title, Text: text, Success: success}); err != nil {
		a.logger.Warn("notification failed", "error", err)
	}
}

// driverBinaryPath locates the rebake-driver binary expected to be installed
// next to the orchestrator.
func driverBinaryPath() (string, error) {
	self, err := os.Executable()
	if err != nil {
		return "", zerr.Wrap(err, "failed to locate own binary")
	}
	p := filepath.Join(filepath.Dir(self), "rebake-driver")
	if _, err := os.Stat(p); err != nil {
		return "", zerr.With(zerr.Wrap(err, "rebake-driver binary not found"), "path", p)
	}
	return p, nil
}

// WriteReceipts persists per-recipe receipts as indented JSON. The driver
// binary writes its receipts next to the ledger with the same encoding.
func WriteReceipts(path string, receipts []domain.RecipeReceipt) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return zerr.Wrap(err, "failed to create receipts directory")
	}
	data, err := json.MarshalIndent(receipts, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to encode receipts")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return zerr.Wrap(err, "failed to write receipts")
	}
	return nil
}

func readReceipts(path string) ([]domain.RecipeReceipt, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, zerr.Wrap(err, "failed to read receipts")
	}
	var receipts []domain.RecipeReceipt
	if err := json.Unmarshal(data, &receipts); err != nil {
		return nil, zerr.Wrap(err, "failed to decode receipts")
	}
	return receipts, nil
}

// Package main is the entry point for the rebake build driver, the binary
// shipped to the build host. It reads its working set from an explicit
// allow-list of named values and nothing else in the environment.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"

	"go.pkgforge.dev/rebake/internal/adapters/cache"
	"go.pkgforge.dev/rebake/internal/adapters/ledger"
	"go.pkgforge.dev/rebake/internal/adapters/logger"
	"go.pkgforge.dev/rebake/internal/adapters/notify"
	"go.pkgforge.dev/rebake/internal/adapters/origin"
	"go.pkgforge.dev/rebake/internal/adapters/pipeline"
	"go.pkgforge.dev/rebake/internal/adapters/recipes"
	"go.pkgforge.dev/rebake/internal/adapters/shell"
	"go.pkgforge.dev/rebake/internal/app"
	"go.pkgforge.dev/rebake/internal/build"
	"go.pkgforge.dev/rebake/internal/core/ports"
	"go.pkgforge.dev/rebake/internal/engine/driver"
	"go.pkgforge.dev/rebake/internal/engine/report"
	"go.pkgforge.dev/rebake/internal/ui"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%+v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var (
		listPath     string
		rebuildCache bool
		debug        bool
	)

	cmd := &cobra.Command{
		Use:           "rebake-driver",
		Short:         "Run the build pipeline for a recipe set on this host",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDriver(cmd.Context(), cmd.OutOrStdout(), listPath, rebuildCache, debug)
		},
	}
	cmd.Flags().StringVar(&listPath, "list", "", "Recipe set file (.json or .plist)")
	_ = cmd.MarkFlagRequired("list")
	cmd.Flags().BoolVar(&rebuildCache, "cache", false, "Reconstruct the download cache from the ledger before running")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
	return cmd
}

// settings is the driver's resolved working set: flag values plus the
// recognized environment overrides the session manager propagates.
type settings struct {
	recipesDir string
	ledgerPath string
	cacheRoot  string
	recipe     string
	webhookURL string
}

func resolveSettings(listPath string) settings {
	s := settings{
		recipesDir: os.Getenv("REBAKE_RECIPES_DIR"),
		ledgerPath: os.Getenv("REBAKE_LEDGER_PATH"),
		cacheRoot:  os.Getenv("REBAKE_CACHE_ROOT"),
		recipe:     os.Getenv("REBAKE_RECIPE"),
		webhookURL: os.Getenv("REBAKE_WEBHOOK_URL"),
	}
	if s.recipesDir == "" {
		s.recipesDir = filepath.Dir(listPath)
	}
	if s.ledgerPath == "" {
		s.ledgerPath = filepath.Join(filepath.Dir(listPath), "ledger.json")
	}
	if s.cacheRoot == "" {
		s.cacheRoot = filepath.Join(xdg.CacheHome, "rebake", "downloads")
	}
	return s
}

func runDriver(ctx context.Context, out io.Writer, listPath string, rebuildCache, debug bool) error {
	log := logger.New()
	log.SetDebug(debug)

	s := resolveSettings(listPath)

	names, err := recipes.LoadSet(listPath)
	if err != nil {
		return err
	}
	if s.recipe != "" {
		names = []string{recipes.WithExt(s.recipe)}
	}

	loader := recipes.NewLoader(s.recipesDir, log)
	resolved, unresolved := loader.ResolveAll(names)

	store := ledger.Open(s.ledgerPath, log)
	prev := store.Records()

	executor := shell.NewExecutor(log)
	recon := cache.NewReconstructor(s.cacheRoot, log)
	pipe := pipeline.NewRunner([]string{"autopkg", "run", "-vvv"}, executor, log)
	d := driver.New(store, driver.NewDetector(origin.NewProber(), recon, log), origin.NewFetcher(log), pipe, recon, log)

	receipts, err := d.Run(ctx, resolved, rebuildCache)
	if err != nil {
		return err
	}
	receipts = append(unresolved, receipts...)

	merged := report.Merge(receipts, prev, store.Records())
	if err := app.WriteReceipts(filepath.Join(filepath.Dir(s.ledgerPath), "receipts.json"), receipts); err != nil {
		return err
	}

	fmt.Fprint(out, ui.RenderSummary(merged, nil))

	// Recipe failures are reported in the receipts and over the webhook;
	// only a driver-level fatal produces a nonzero exit. Debug runs stay
	// off the wire.
	if s.webhookURL != "" && !debug {
		title := "rebake driver run succeeded"
		if merged.Failed > 0 {
			title = "rebake driver run had failures"
		}
		n := ports.Notification{
			Title:   title,
			Text:    fmt.Sprintf("%d built, %d skipped, %d failed", merged.Built, merged.Skipped, merged.Failed),
			Success: merged.Failed == 0,
		}
		if err := notify.NewWebhook(s.webhookURL).Notify(ctx, n); err != nil {
			log.Warn("notification failed", "error", err)
		}
	}
	return nil
}

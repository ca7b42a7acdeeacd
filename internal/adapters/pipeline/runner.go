// Package pipeline invokes the external packaging toolchain for one recipe
// and interprets its report. The packaging step itself is an opaque
// collaborator; this package only owns the invocation and the report
// boundary.
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.trai.ch/zerr"
	"howett.net/plist"

	"go.pkgforge.dev/rebake/internal/core/domain"
	"go.pkgforge.dev/rebake/internal/core/ports"
)

// Runner implements ports.Pipeline by running a configured command with the
// recipe path and a report plist destination appended.
type Runner struct {
	command  []string
	executor ports.Executor
	logger   ports.Logger
}

var _ ports.Pipeline = (*Runner)(nil)

// NewRunner creates a Runner. command is the packaging tool argv prefix,
// e.g. ["autopkg", "run", "-vvv"].
func NewRunner(command []string, executor ports.Executor, logger ports.Logger) *Runner {
	return &Runner{command: command, executor: executor, logger: logger}
}

// Build runs the packaging pipeline for recipe and returns what the report
// says was produced.
func (r *Runner) Build(ctx context.Context, recipe domain.Recipe, artifactPath string) (ports.BuildOutcome, error) {
	if len(r.command) == 0 {
		return ports.BuildOutcome{}, zerr.New("no pipeline command configured")
	}

	reportPath := filepath.Join(os.TempDir(), "rebake-report-"+recipe.ID+".plist")
	// Pre-create so the tool has a writable report target, as some
	// packaging tools refuse to create it themselves.
	if err := os.WriteFile(reportPath, nil, 0o644); err != nil {
		return ports.BuildOutcome{}, zerr.Wrap(err, "failed to create report file")
	}
	defer os.Remove(reportPath) //nolint:errcheck // Best effort cleanup

	args := append(append([]string{}, r.command[1:]...),
		recipe.Path, "--report-plist", reportPath)
	res, err := r.executor.Run(ctx, r.command[0], args...)
	if err != nil {
		return ports.BuildOutcome{}, zerr.Wrap(err, "pipeline failed to run")
	}
	if res.ExitCode != 0 {
		err := zerr.With(zerr.Wrap(domain.ErrRecipeBuild, "pipeline exited nonzero"), "recipe", recipe.ID)
		return ports.BuildOutcome{}, zerr.With(err, "exit_code", res.ExitCode)
	}

	outcome, err := ParseReport(reportPath)
	if err != nil {
		return ports.BuildOutcome{}, err
	}
	if outcome.ArtifactPath == "" {
		outcome.ArtifactPath = artifactPath
	}
	return outcome, nil
}

type summaryResult struct {
	DataRows []map[string]string `plist:"data_rows"`
}

type reportDoc struct {
	Failures []struct {
		Message string `plist:"message"`
	} `plist:"failures"`
	SummaryResults map[string]summaryResult `plist:"summary_results"`
}

// ParseReport reads a packaging report plist and condenses it into a build
// outcome. An empty report means the run produced nothing new.
func ParseReport(path string) (ports.BuildOutcome, error) {
	data, err := os.ReadFile(path) //nolint:gosec // report path is generated by Build
	if err != nil {
		return ports.BuildOutcome{}, zerr.Wrap(err, "failed to read pipeline report")
	}
	if len(data) == 0 {
		return ports.BuildOutcome{}, nil
	}

	var doc reportDoc
	if _, err := plist.Unmarshal(data, &doc); err != nil {
		return ports.BuildOutcome{}, zerr.Wrap(err, "failed to parse pipeline report")
	}

	if len(doc.Failures) > 0 {
		return ports.BuildOutcome{}, zerr.With(zerr.Wrap(domain.ErrRecipeBuild, "pipeline reported failures"),
			"message", doc.Failures[0].Message)
	}

	var (
		pkgRows []map[string]string
		dlRows  []map[string]string
	)
	for key, summary := range doc.SummaryResults {
		switch {
		case strings.Contains(key, "pkg"):
			pkgRows = append(pkgRows, summary.DataRows...)
		case strings.Contains(key, "download"):
			dlRows = append(dlRows, summary.DataRows...)
		}
	}

	var outcome ports.BuildOutcome
	for _, row := range pkgRows {
		if p := row["pkg_path"]; p != "" {
			outcome.Built = true
			outcome.ArtifactPath = p
			outcome.Version = row["version"]
		}
	}

	// Some pipelines download a ready-made package without emitting a
	// build row; report that download as the build.
	if !outcome.Built {
		for _, row := range dlRows {
			for _, v := range row {
				if strings.HasSuffix(v, ".pkg") {
					outcome.Built = true
					outcome.ArtifactPath = v
				}
			}
		}
	}

	if outcome.Built && outcome.Version == "" {
		outcome.Version = versionFromPath(outcome.ArtifactPath)
	}
	return outcome, nil
}

var versionPattern = regexp.MustCompile(`[0-9][0-9A-Za-z.\-]*[0-9]`)

// versionFromPath pulls a version-looking substring out of an artifact file
// name, defaulting to Unknown.
func versionFromPath(p string) string {
	if m := versionPattern.FindString(filepath.Base(p)); m != "" {
		return m
	}
	return "Unknown"
}

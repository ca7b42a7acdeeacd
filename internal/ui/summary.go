// Package ui renders human-facing terminal output.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"go.pkgforge.dev/rebake/internal/core/domain"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	skipStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	dimStyle   = lipgloss.NewStyle().Faint(true)
)

// RenderSummary formats the combined report, and the session's phase
// timings when one exists, for terminal display.
func RenderSummary(rep domain.CombinedReport, session *domain.BuildSession) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("rebake summary"))
	b.WriteByte('\n')
	b.WriteString(fmt.Sprintf("  %s  %s  %s\n",
		okStyle.Render(fmt.Sprintf("%d built", rep.Built)),
		skipStyle.Render(fmt.Sprintf("%d skipped", rep.Skipped)),
		failStyle.Render(fmt.Sprintf("%d failed", rep.Failed)),
	))

	for _, r := range rep.Receipts {
		b.WriteString("  " + receiptLine(r) + "\n")
	}

	if len(rep.ChangedRecipes) > 0 {
		b.WriteString(dimStyle.Render("  changed: "+strings.Join(rep.ChangedRecipes, ", ")) + "\n")
	}

	if session != nil {
		b.WriteString(titleStyle.Render("session") + " " +
			dimStyle.Render(string(session.Phase)+" on "+session.Host.Name) + "\n")
		for _, pr := range session.PhaseResults {
			line := fmt.Sprintf("  %-16s %s", pr.Phase, pr.Duration.Round(time.Millisecond))
			if pr.Failed() {
				line = failStyle.Render(line + "  FAILED")
			} else {
				line = dimStyle.Render(line)
			}
			b.WriteString(line + "\n")
		}
	}
	return b.String()
}

func receiptLine(r domain.RecipeReceipt) string {
	switch {
	case r.Status == domain.StatusFailed:
		return failStyle.Render("✗ "+r.RecipeID) + dimStyle.Render("  "+r.Error)
	case r.Skipped:
		return skipStyle.Render("- " + r.RecipeID + "  unchanged")
	case r.Built:
		line := okStyle.Render("✓ " + r.RecipeID)
		if r.ArtifactOutputPath != "" {
			line += dimStyle.Render("  " + r.ArtifactOutputPath)
		}
		return line
	default:
		return dimStyle.Render("· " + r.RecipeID)
	}
}

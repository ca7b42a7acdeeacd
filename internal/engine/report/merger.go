// Package report folds per-recipe receipts and the ledger delta into one
// combined session report.
package report

import (
	"encoding/json"
	"io"

	"go.trai.ch/zerr"
	"howett.net/plist"

	"go.pkgforge.dev/rebake/internal/adapters/ledger"
	"go.pkgforge.dev/rebake/internal/core/domain"
)

// Merge builds the combined report for one session. Halted receipts are
// dropped: a halted recipe never ran to a verdict, and counting it as either
// failed or skipped would misstate the session. The changed-recipe list is
// the ledger delta between the session's start and end snapshots.
func Merge(receipts []domain.RecipeReceipt, prev, curr []domain.ArtifactRecord) domain.CombinedReport {
	out := domain.CombinedReport{
		Receipts:       make([]domain.RecipeReceipt, 0, len(receipts)),
		ChangedRecipes: ledger.Diff(prev, curr),
	}
	for _, r := range receipts {
		if r.Status == domain.StatusHalted {
			continue
		}
		out.Receipts = append(out.Receipts, r)
		switch {
		case r.Status == domain.StatusFailed:
			out.Failed++
		case r.Skipped:
			out.Skipped++
		case r.Built:
			out.Built++
		}
	}
	return out
}

// WriteJSON encodes the report as indented JSON.
func WriteJSON(w io.Writer, report domain.CombinedReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return zerr.Wrap(err, "failed to encode report")
	}
	return nil
}

// WritePlist encodes the report as an XML property list for consumers that
// expect the packaging toolchain's native report format.
func WritePlist(w io.Writer, report domain.CombinedReport) error {
	enc := plist.NewEncoder(w)
	enc.Indent("\t")
	if err := enc.Encode(report); err != nil {
		return zerr.Wrap(err, "failed to encode report plist")
	}
	return nil
}

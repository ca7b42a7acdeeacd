package domain

// ReceiptStatus is the terminal status of one recipe's pipeline run.
type ReceiptStatus string

const (
	// StatusOK indicates the recipe pipeline completed.
	StatusOK ReceiptStatus = "ok"
	// StatusFailed indicates the recipe pipeline failed; the failure is
	// recorded here and is not fatal to the session.
	StatusFailed ReceiptStatus = "failed"
	// StatusHalted indicates processing was deliberately stopped
	// mid-pipeline. Halted receipts are excluded from the combined report.
	StatusHalted ReceiptStatus = "halted"
)

// RecipeReceipt is the per-recipe outcome record emitted by the build driver.
type RecipeReceipt struct {
	RecipeID           string        `json:"recipe_id"`
	Skipped            bool          `json:"skipped"`
	Downloaded         bool          `json:"downloaded"`
	Built              bool          `json:"built"`
	Status             ReceiptStatus `json:"status"`
	ArtifactOutputPath string        `json:"artifact_output_path,omitempty"`
	Error              string        `json:"error,omitempty"`
}

// CombinedReport is the merged outcome of one session: every non-halted
// receipt in driver order, plus the set of recipes whose ledger record
// changed during the run.
type CombinedReport struct {
	Receipts       []RecipeReceipt `json:"receipts"`
	ChangedRecipes []string        `json:"changed_recipes"`
	Failed         int             `json:"failed"`
	Skipped        int             `json:"skipped"`
	Built          int             `json:"built"`
}

// Package smell is the per-file design-smell workflow: detect, refactor, save.
package smell

import (
	"context"

	"smellfix/internal/scan"
)

// State is carried between steps for a single file. Steps only ever fill in
// fields; none is cleared once set.
type State struct {
	FilePath string
	Code     string
	// Issues holds static-analyzer findings followed by model findings.
	Issues   []string
	AllFiles scan.Snapshot
	// Context is the path of the file shown to the model as cross-file context.
	Context        string
	RefactoredCode string
	// Fallback is true when RefactoredCode is the original source because the
	// model reply could not be used.
	Fallback bool
	Saved    bool
}

// Step is one node of the workflow.
type Step interface {
	Name() string
	Run(ctx context.Context, st *State) error
}

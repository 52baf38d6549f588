package smell

import (
	"context"
	"fmt"
	"log"
	"time"

	"smellfix/internal/llm"
	"smellfix/internal/scan"
)

// Workflow runs its steps in order for one file at a time. There is no
// branching and no retry; the first step error ends that file's run.
type Workflow struct {
	steps []Step
}

// NewWorkflow builds the detect -> refactor -> save sequence.
func NewWorkflow(d *Detector, r *Refactorer, s *Saver) *Workflow {
	return &Workflow{steps: []Step{d, r, s}}
}

// NewWorkflowSteps builds a workflow from arbitrary steps.
func NewWorkflowSteps(steps ...Step) *Workflow {
	return &Workflow{steps: steps}
}

// Steps lists the step names in execution order.
func (w *Workflow) Steps() []string {
	names := make([]string, 0, len(w.steps))
	for _, s := range w.steps {
		names = append(names, s.Name())
	}
	return names
}

// Invoke runs every step for one file.
func (w *Workflow) Invoke(ctx context.Context, st State) (State, error) {
	for _, step := range w.steps {
		if err := step.Run(llm.WithPhase(ctx, step.Name()), &st); err != nil {
			return st, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}
	return st, nil
}

// RunAll invokes the workflow for every file of snap in snapshot order. A
// failing file is logged and recorded; the loop only stops early when ctx
// is done.
func (w *Workflow) RunAll(ctx context.Context, snap scan.Snapshot) Summary {
	sum := Summary{Root: snap.Root, StartedAt: time.Now().UTC()}
	for _, f := range snap.Files {
		if ctx.Err() != nil {
			log.Printf("[workflow] stopping: %v", ctx.Err())
			break
		}
		out, err := w.Invoke(ctx, State{FilePath: f.Path, Code: f.Code, AllFiles: snap})
		res := FileResult{
			Path:     f.Path,
			Issues:   len(out.Issues),
			Context:  out.Context,
			Changed:  out.Saved && out.RefactoredCode != f.Code,
			Fallback: out.Fallback,
			Saved:    out.Saved,
		}
		if err != nil {
			res.Error = err.Error()
			log.Printf("[workflow] warn: %s: %v", f.Path, err)
		}
		sum.Files = append(sum.Files, res)
	}
	sum.FinishedAt = time.Now().UTC()
	return sum
}

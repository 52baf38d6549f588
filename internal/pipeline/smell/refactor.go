package smell

import (
	"context"
	"log"
	"path/filepath"

	"smellfix/internal/llm"
	"smellfix/internal/util/jsonutil"
)

// Refactorer asks the model for a smell-free version of the file. Any failure
// leaves the original source as the result.
type Refactorer struct {
	LLM llm.LLMClient
}

func (r *Refactorer) Name() string { return "refactor" }

func (r *Refactorer) Run(ctx context.Context, st *State) error {
	code, ok := st.AllFiles.Get(st.FilePath)
	if !ok {
		code = st.Code
	}

	contextBlock := ""
	if other, ok := st.AllFiles.ContextFor(st.FilePath); ok {
		contextBlock = ContextBlock(other.Path, other.Code)
		if st.Context == "" {
			st.Context = other.Path
		}
		log.Printf("[refactor] refactoring %s with context from %s", st.FilePath, other.Path)
	} else {
		log.Printf("[refactor] warn: only one file available for %s; limited design smell refactoring", st.FilePath)
	}

	prompt := BuildRefactorPrompt(LanguageFor(filepath.Ext(st.FilePath)), code, st.Issues, contextBlock)
	st.RefactoredCode, st.Fallback = r.ask(ctx, prompt, code)
	if st.Fallback {
		log.Printf("[refactor] keeping original source for %s", st.FilePath)
	}
	return ctx.Err()
}

func (r *Refactorer) ask(ctx context.Context, prompt, original string) (string, bool) {
	if r.LLM == nil {
		return original, true
	}
	raw, err := r.LLM.GenerateJSON(ctx, prompt, nil)
	if err != nil {
		log.Printf("[refactor] warn: model call failed: %v", err)
		return original, true
	}
	out, ok := jsonutil.ParseOrFallback(string(raw), "refactored_code", original)
	if !ok {
		log.Printf("[refactor] warn: failed to parse model reply (%d bytes)", len(raw))
		return original, true
	}
	return out, false
}

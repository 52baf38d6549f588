package smell

import (
	"context"
	"log"
	"path/filepath"

	"smellfix/internal/analyzer"
	"smellfix/internal/llm"
	"smellfix/internal/scan"
	"smellfix/internal/util/jsonutil"
)

// Detector merges static-analyzer findings with model-reported smells.
type Detector struct {
	LLM      llm.LLMClient
	Analyzer analyzer.Analyzer
	// Ext selects sibling files for context (default ".java").
	Ext string
	// Scan overrides the sibling scan; defaults to scan.Collect.
	Scan func(dir, ext string) (scan.Snapshot, error)
}

func (d *Detector) Name() string { return "detect" }

func (d *Detector) Run(ctx context.Context, st *State) error {
	ext := d.ext()
	scanDir := d.Scan
	if scanDir == nil {
		scanDir = scan.Collect
	}
	siblings, err := scanDir(filepath.Dir(st.FilePath), ext)
	if err != nil {
		log.Printf("[detect] warn: scan %s: %v", filepath.Dir(st.FilePath), err)
	}

	contextCode := ""
	if other, ok := siblings.ContextFor(st.FilePath); ok {
		contextCode = other.Code
		st.Context = other.Path
		log.Printf("[detect] including additional file for design analysis: %s", other.Path)
	}

	log.Printf("[detect] scanning for design smells in: %s", st.FilePath)
	var static []string
	if d.Analyzer != nil {
		static = d.Analyzer.Analyze(ctx, st.FilePath)
	}

	prompt := BuildDetectPrompt(LanguageFor(ext), st.Code, contextCode)
	modelIssues := d.ask(ctx, prompt)

	issues := make([]string, 0, len(st.Issues)+len(static)+len(modelIssues))
	issues = append(issues, st.Issues...)
	issues = append(issues, static...)
	issues = append(issues, modelIssues...)
	st.Issues = issues
	if st.AllFiles.Len() == 0 {
		st.AllFiles = siblings
	}
	log.Printf("[detect] detected %d smell(s) (%d static, %d model) in %s", len(issues), len(static), len(modelIssues), st.FilePath)
	return ctx.Err()
}

func (d *Detector) ask(ctx context.Context, prompt string) []string {
	if d.LLM == nil {
		return nil
	}
	raw, err := d.LLM.GenerateJSON(ctx, prompt, nil)
	if err != nil {
		log.Printf("[detect] warn: model call failed: %v", err)
		return nil
	}
	issues, err := jsonutil.ExtractStringList(string(raw), "issues")
	if err != nil {
		log.Printf("[detect] warn: failed to parse model reply: %v", err)
		return nil
	}
	return issues
}

func (d *Detector) ext() string {
	if d.Ext == "" {
		return ".java"
	}
	return d.Ext
}

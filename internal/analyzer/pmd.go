package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"smellfix/internal/procexec"
)

const (
	defaultPMDBin     = "pmd"
	defaultPMDRuleset = "rulesets/java/quickstart.xml"
	defaultPMDReport  = "pmd_report.json"
)

// PMD runs `pmd check` with a JSON report.
type PMD struct {
	bin     string
	ruleset string
	report  string
	dir     string
	exec    procexec.Executor
}

func NewPMD(cfg Config) *PMD {
	return &PMD{
		bin:     orDefault(cfg.Bin, defaultPMDBin),
		ruleset: orDefault(cfg.Ruleset, defaultPMDRuleset),
		report:  orDefault(cfg.ReportPath, defaultPMDReport),
		dir:     cfg.Dir,
		exec:    procexec.Or(cfg.Exec),
	}
}

func (p *PMD) Name() string { return "pmd" }

// Analyze returns violation descriptions in report order. Exit code 4 means
// "violations found" and is treated like 0.
func (p *PMD) Analyze(ctx context.Context, path string) []string {
	_ = os.Remove(p.report)
	cmd := procexec.Cmd{
		Dir:  p.dir,
		Name: p.bin,
		Args: []string{"check", "--dir", path, "--rulesets", p.ruleset, "--format", "json", "--report-file", p.report},
	}
	res, err := p.exec(ctx, cmd)
	if err != nil {
		log.Printf("[analyzer] warn: pmd failed to run: %v", err)
		return nil
	}
	if res.ExitCode != 0 && res.ExitCode != 4 {
		log.Printf("[analyzer] warn: pmd exited with %d: %s", res.ExitCode, strings.TrimSpace(string(res.Stderr)))
		return nil
	}
	b, err := readReport(p.report)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("[analyzer] warn: pmd report %s not found", p.report)
		} else {
			log.Printf("[analyzer] warn: pmd report: %v", err)
		}
		return nil
	}
	msgs, err := parsePMDReport(b)
	if err != nil {
		log.Printf("[analyzer] warn: pmd report: %v", err)
		return nil
	}
	return msgs
}

type pmdViolation struct {
	Description string `json:"description"`
}

type pmdReport struct {
	Violations []pmdViolation `json:"violations"`
	Files      []struct {
		Filename   string         `json:"filename"`
		Violations []pmdViolation `json:"violations"`
	} `json:"files"`
}

// parsePMDReport accepts the flat layout (top-level "violations") and the
// per-file layout PMD 7 writes.
func parsePMDReport(b []byte) ([]string, error) {
	var rep pmdReport
	if err := json.Unmarshal(b, &rep); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	var out []string
	for _, v := range rep.Violations {
		out = append(out, v.Description)
	}
	for _, f := range rep.Files {
		for _, v := range f.Violations {
			out = append(out, v.Description)
		}
	}
	return out, nil
}

package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"smellfix/internal/procexec"
)

const (
	defaultCheckstyleBin    = "checkstyle"
	defaultCheckstyleConfig = "/google_checks.xml"
	defaultCheckstyleReport = "checkstyle_report.json"
)

// Checkstyle runs checkstyle with JSON output captured to a report file.
// Checkstyle's exit status counts violations, so any status from a process
// that started is accepted as long as the report parses.
type Checkstyle struct {
	bin    string
	config string
	report string
	dir    string
	exec   procexec.Executor
}

func NewCheckstyle(cfg Config) *Checkstyle {
	return &Checkstyle{
		bin:    orDefault(cfg.Bin, defaultCheckstyleBin),
		config: orDefault(cfg.Ruleset, defaultCheckstyleConfig),
		report: orDefault(cfg.ReportPath, defaultCheckstyleReport),
		dir:    cfg.Dir,
		exec:   procexec.Or(cfg.Exec),
	}
}

func (c *Checkstyle) Name() string { return "checkstyle" }

func (c *Checkstyle) Analyze(ctx context.Context, path string) []string {
	res, err := c.exec(ctx, procexec.Cmd{
		Dir:  c.dir,
		Name: c.bin,
		Args: []string{"-c", c.config, "-f", "json", path},
	})
	if err != nil {
		log.Printf("[analyzer] warn: checkstyle failed to run: %v", err)
		return nil
	}
	if err := os.WriteFile(c.report, res.Stdout, 0o644); err != nil {
		log.Printf("[analyzer] warn: checkstyle report: %v", err)
		return nil
	}
	b, err := readReport(c.report)
	if err != nil {
		log.Printf("[analyzer] warn: checkstyle report: %v (exit %d: %s)", err, res.ExitCode, strings.TrimSpace(string(res.Stderr)))
		return nil
	}
	msgs, err := parseCheckstyleReport(b)
	if err != nil {
		log.Printf("[analyzer] warn: checkstyle report: %v", err)
		return nil
	}
	return msgs
}

func parseCheckstyleReport(b []byte) ([]string, error) {
	var items []struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Message)
	}
	return out, nil
}

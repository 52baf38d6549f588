// Package analyzer runs external static-analysis tools over a source path
// and returns their findings as plain messages. Tool failures never reach
// the caller: they are logged and reported as "no findings".
package analyzer

import (
	"context"
	"fmt"
	"os"
	"strings"

	"smellfix/internal/procexec"
)

// Analyzer produces static findings for a file or directory.
type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, path string) []string
}

// New returns the analyzer registered under name ("pmd", "checkstyle" or
// "none").
func New(name string, cfg Config) (Analyzer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "pmd":
		return NewPMD(cfg), nil
	case "checkstyle":
		return NewCheckstyle(cfg), nil
	case "none", "off":
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("analyzer: unknown tool %q", name)
	}
}

// Config holds the knobs shared by the tool adapters. Zero values fall back
// to each tool's defaults.
type Config struct {
	Bin        string
	Ruleset    string
	ReportPath string
	Dir        string
	Exec       procexec.Executor
}

// Nop reports nothing.
type Nop struct{}

func (Nop) Name() string                             { return "none" }
func (Nop) Analyze(context.Context, string) []string { return nil }

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func readReport(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return nil, fmt.Errorf("report %s is empty", path)
	}
	return b, nil
}

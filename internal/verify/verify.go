// Package verify runs the project's test suite after refactoring.
package verify

import (
	"context"
	"log"
	"path/filepath"
	"strings"

	"smellfix/internal/procexec"
)

// CommandFor picks the test command for a source file by extension. ok is
// false for languages without a known runner.
func CommandFor(path string) (argv []string, ok bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py":
		return []string{"pytest"}, true
	case ".java":
		return []string{"mvn", "test"}, true
	case ".cpp":
		return []string{"make", "test"}, true
	}
	return nil, false
}

// Verifier runs CommandFor(path) in a directory.
type Verifier struct {
	Exec procexec.Executor
}

// Run reports whether the tests passed. supported is false when no runner is
// known for path; passed is then false too.
func (v *Verifier) Run(ctx context.Context, dir, path string) (passed, supported bool) {
	argv, ok := CommandFor(path)
	if !ok {
		log.Printf("[verify] no test runner for %s", path)
		return false, false
	}
	cmd := procexec.Cmd{Dir: dir, Name: argv[0], Args: argv[1:]}
	res, err := procexec.Or(v.Exec)(ctx, cmd)
	if err != nil {
		log.Printf("[verify] warn: %v", err)
		return false, true
	}
	if res.ExitCode != 0 {
		log.Printf("[verify] tests failed (%s, exit %d); check for breaking changes", cmd, res.ExitCode)
		return false, true
	}
	log.Printf("[verify] refactoring preserved functionality (%s)", cmd)
	return true, true
}

// Package procexec runs external tools (git, pmd, mvn, the pipeline driver)
// behind a swappable function so callers can be tested without them.
package procexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Cmd describes one process invocation.
type Cmd struct {
	Dir  string
	Name string
	Args []string
	// Optional live copies of the process output. Result still captures both.
	Stdout io.Writer
	Stderr io.Writer
}

func (c Cmd) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Result is what a finished process left behind.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Executor runs c and waits for it. err is non-nil only when the process
// could not be started or the context ended; a non-zero exit is reported
// through Result.ExitCode.
type Executor func(ctx context.Context, c Cmd) (Result, error)

// Exec is the os/exec backed Executor.
func Exec(ctx context.Context, c Cmd) (Result, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = teeTo(&stdout, c.Stdout)
	cmd.Stderr = teeTo(&stderr, c.Stderr)

	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err == nil {
		return res, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		res.ExitCode = -1
		return res, fmt.Errorf("%s: %w", c, ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	res.ExitCode = -1
	return res, fmt.Errorf("%s: %w", c, err)
}

// Or returns e, or Exec when e is nil.
func Or(e Executor) Executor {
	if e != nil {
		return e
	}
	return Exec
}

func teeTo(buf *bytes.Buffer, w io.Writer) io.Writer {
	if w == nil {
		return buf
	}
	return io.MultiWriter(buf, w)
}

// Fake is a scripted Executor for tests. Responses are keyed by the
// command's program name; unknown programs succeed with empty output.
type Fake struct {
	Responses map[string]FakeResponse
	Calls     []Cmd
}

// FakeResponse is a canned process outcome. Run, when set, is invoked with
// the command before the canned result is returned.
type FakeResponse struct {
	Result Result
	Err    error
	Run    func(c Cmd)
}

// Exec satisfies Executor.
func (f *Fake) Exec(ctx context.Context, c Cmd) (Result, error) {
	f.Calls = append(f.Calls, c)
	if err := ctx.Err(); err != nil {
		return Result{ExitCode: -1}, err
	}
	r, ok := f.Responses[c.Name]
	if !ok {
		return Result{}, nil
	}
	if r.Run != nil {
		r.Run(c)
	}
	if c.Stdout != nil && len(r.Result.Stdout) > 0 {
		_, _ = c.Stdout.Write(r.Result.Stdout)
	}
	if c.Stderr != nil && len(r.Result.Stderr) > 0 {
		_, _ = c.Stderr.Write(r.Result.Stderr)
	}
	return r.Result, r.Err
}

// Commands renders every recorded call as "name arg arg".
func (f *Fake) Commands() []string {
	out := make([]string, 0, len(f.Calls))
	for _, c := range f.Calls {
		out = append(out, c.String())
	}
	return out
}

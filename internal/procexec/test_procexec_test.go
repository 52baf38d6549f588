package procexec

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExec_ExitCodeAndOutput(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	var live bytes.Buffer
	res, err := Exec(context.Background(), Cmd{
		Dir:    t.TempDir(),
		Name:   "sh",
		Args:   []string{"-c", "echo out; echo err >&2; exit 4"},
		Stdout: &live,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, res.ExitCode)
	assert.Equal(t, "out\n", string(res.Stdout))
	assert.Equal(t, "err\n", string(res.Stderr))
	assert.Equal(t, "out\n", live.String())
}

func TestExec_MissingBinary(t *testing.T) {
	res, err := Exec(context.Background(), Cmd{Name: "definitely-not-a-real-binary-xyz"})
	require.Error(t, err)
	assert.Equal(t, -1, res.ExitCode)
}

func TestFake_RecordsAndScripts(t *testing.T) {
	boom := errors.New("boom")
	f := &Fake{Responses: map[string]FakeResponse{
		"pmd": {Result: Result{ExitCode: 4, Stdout: []byte("x")}},
		"git": {Err: boom},
	}}
	var out bytes.Buffer
	res, err := f.Exec(context.Background(), Cmd{Name: "pmd", Args: []string{"check"}, Stdout: &out})
	require.NoError(t, err)
	assert.Equal(t, 4, res.ExitCode)
	assert.Equal(t, "x", out.String())

	_, err = f.Exec(context.Background(), Cmd{Name: "git", Args: []string{"push"}})
	assert.ErrorIs(t, err, boom)

	_, err = f.Exec(context.Background(), Cmd{Name: "other"})
	assert.NoError(t, err)

	assert.Equal(t, []string{"pmd check", "git push", "other"}, f.Commands())
}

package analyzer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smellfix/internal/procexec"
)

func pmdWithReport(t *testing.T, exit int, report string) (*PMD, *procexec.Fake) {
	t.Helper()
	reportPath := filepath.Join(t.TempDir(), "pmd_report.json")
	fake := &procexec.Fake{Responses: map[string]procexec.FakeResponse{
		"pmd": {
			Result: procexec.Result{ExitCode: exit, Stderr: []byte("bad ruleset")},
			Run: func(procexec.Cmd) {
				if report != "" {
					require.NoError(t, os.WriteFile(reportPath, []byte(report), 0o644))
				}
			},
		},
	}}
	return NewPMD(Config{ReportPath: reportPath, Exec: fake.Exec}), fake
}

func TestPMD_ExitCodes(t *testing.T) {
	report := `{"violations":[{"description":"Avoid unused imports"},{"description":"God class"}]}`
	tests := []struct {
		name string
		exit int
		want []string
	}{
		{"clean", 0, []string{"Avoid unused imports", "God class"}},
		{"violations found", 4, []string{"Avoid unused imports", "God class"}},
		{"error", 1, nil},
		{"usage", 2, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, _ := pmdWithReport(t, tc.exit, report)
			assert.Equal(t, tc.want, p.Analyze(context.Background(), "/src/A.java"))
		})
	}
}

func TestPMD_CommandLine(t *testing.T) {
	p, fake := pmdWithReport(t, 0, `{"violations":[]}`)
	p.Analyze(context.Background(), "/src/A.java")
	require.Len(t, fake.Calls, 1)
	c := fake.Calls[0]
	assert.Equal(t, "pmd", c.Name)
	assert.Equal(t, []string{"check", "--dir", "/src/A.java", "--rulesets", "rulesets/java/quickstart.xml", "--format", "json", "--report-file", p.report}, c.Args)
}

func TestPMD_MissingOrEmptyReport(t *testing.T) {
	p, _ := pmdWithReport(t, 4, "")
	assert.Empty(t, p.Analyze(context.Background(), "A.java"))

	p, _ = pmdWithReport(t, 4, "   \n")
	assert.Empty(t, p.Analyze(context.Background(), "A.java"))

	p, _ = pmdWithReport(t, 4, "{not json")
	assert.Empty(t, p.Analyze(context.Background(), "A.java"))
}

func TestPMD_StaleReportIgnored(t *testing.T) {
	p, _ := pmdWithReport(t, 0, "")
	require.NoError(t, os.WriteFile(p.report, []byte(`{"violations":[{"description":"stale"}]}`), 0o644))
	assert.Empty(t, p.Analyze(context.Background(), "A.java"))
}

func TestPMD_PerFileLayout(t *testing.T) {
	report := `{"formatVersion":0,"files":[
		{"filename":"A.java","violations":[{"description":"one"},{"description":"two"}]},
		{"filename":"B.java","violations":[{"description":"three"}]}]}`
	p, _ := pmdWithReport(t, 4, report)
	assert.Equal(t, []string{"one", "two", "three"}, p.Analyze(context.Background(), "src"))
}

func TestPMD_NotStarted(t *testing.T) {
	fake := &procexec.Fake{Responses: map[string]procexec.FakeResponse{
		"pmd": {Result: procexec.Result{ExitCode: -1}, Err: errors.New("exec: not found")},
	}}
	p := NewPMD(Config{ReportPath: filepath.Join(t.TempDir(), "r.json"), Exec: fake.Exec})
	assert.Empty(t, p.Analyze(context.Background(), "A.java"))
}

func TestCheckstyle_Messages(t *testing.T) {
	reportPath := filepath.Join(t.TempDir(), "checkstyle_report.json")
	fake := &procexec.Fake{Responses: map[string]procexec.FakeResponse{
		"checkstyle": {Result: procexec.Result{ExitCode: 2, Stdout: []byte(`[{"message":"Line is longer than 100 characters"},{"message":"Missing javadoc"}]`)}},
	}}
	c := NewCheckstyle(Config{ReportPath: reportPath, Exec: fake.Exec})

	got := c.Analyze(context.Background(), "A.java")
	assert.Equal(t, []string{"Line is longer than 100 characters", "Missing javadoc"}, got)
	assert.Equal(t, []string{"checkstyle -c /google_checks.xml -f json A.java"}, fake.Commands())

	b, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(b), "Missing javadoc")
}

func TestCheckstyle_BadOutput(t *testing.T) {
	fake := &procexec.Fake{Responses: map[string]procexec.FakeResponse{
		"checkstyle": {Result: procexec.Result{Stdout: []byte("Starting audit...")}},
	}}
	c := NewCheckstyle(Config{ReportPath: filepath.Join(t.TempDir(), "r.json"), Exec: fake.Exec})
	assert.Empty(t, c.Analyze(context.Background(), "A.java"))
}

func TestNew(t *testing.T) {
	a, err := New("", Config{})
	require.NoError(t, err)
	assert.Equal(t, "pmd", a.Name())

	a, err = New("Checkstyle", Config{})
	require.NoError(t, err)
	assert.Equal(t, "checkstyle", a.Name())

	a, err = New("none", Config{})
	require.NoError(t, err)
	assert.Nil(t, a.Analyze(context.Background(), "x"))

	_, err = New("sonar", Config{})
	assert.Error(t, err)
}

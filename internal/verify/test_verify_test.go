package verify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"smellfix/internal/procexec"
)

func TestCommandFor(t *testing.T) {
	tests := []struct {
		path string
		want []string
		ok   bool
	}{
		{"a/b.py", []string{"pytest"}, true},
		{"A.java", []string{"mvn", "test"}, true},
		{"A.JAVA", []string{"mvn", "test"}, true},
		{"x.cpp", []string{"make", "test"}, true},
		{"main.go", nil, false},
		{"Makefile", nil, false},
	}
	for _, tc := range tests {
		got, ok := CommandFor(tc.path)
		assert.Equal(t, tc.ok, ok, tc.path)
		assert.Equal(t, tc.want, got, tc.path)
	}
}

func TestRun(t *testing.T) {
	fake := &procexec.Fake{Responses: map[string]procexec.FakeResponse{
		"mvn":    {Result: procexec.Result{ExitCode: 0}},
		"pytest": {Result: procexec.Result{ExitCode: 1}},
		"make":   {Err: errors.New("exec: make not found")},
	}}
	v := &Verifier{Exec: fake.Exec}
	ctx := context.Background()

	passed, supported := v.Run(ctx, "/repo", "A.java")
	assert.True(t, passed)
	assert.True(t, supported)

	passed, supported = v.Run(ctx, "/repo", "a.py")
	assert.False(t, passed)
	assert.True(t, supported)

	passed, supported = v.Run(ctx, "/repo", "a.cpp")
	assert.False(t, passed)
	assert.True(t, supported)

	passed, supported = v.Run(ctx, "/repo", "a.rs")
	assert.False(t, passed)
	assert.False(t, supported)

	assert.Equal(t, []string{"mvn test", "pytest", "make test"}, fake.Commands())
	assert.Equal(t, "/repo", fake.Calls[0].Dir)
}

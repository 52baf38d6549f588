package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// FakeClient returns scripted replies per phase for offline runs and tests.
// Replies for a phase are consumed in order; the last one repeats. Phases
// without a script get an empty JSON object, which makes detection report no
// model issues and refactoring fall back to the original code.
type FakeClient struct {
	mu      sync.Mutex
	replies map[string][]string
	errs    map[string]error
	calls   []FakeCall
}

// FakeCall records one GenerateJSON invocation.
type FakeCall struct {
	Phase  string
	Prompt string
}

func NewFakeClient() *FakeClient {
	return &FakeClient{replies: map[string][]string{}, errs: map[string]error{}}
}

// Reply queues raw replies for phase.
func (f *FakeClient) Reply(phase string, raw ...string) *FakeClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[phase] = append(f.replies[phase], raw...)
	return f
}

// Fail makes every call for phase return err.
func (f *FakeClient) Fail(phase string, err error) *FakeClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[phase] = err
	return f
}

// Calls returns a copy of the recorded invocations.
func (f *FakeClient) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FakeCall(nil), f.calls...)
}

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	phase := PhaseFrom(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, FakeCall{Phase: phase, Prompt: prompt})
	if err := f.errs[phase]; err != nil {
		return nil, err
	}
	queue := f.replies[phase]
	switch len(queue) {
	case 0:
		return json.RawMessage(`{}`), nil
	case 1:
		return json.RawMessage(queue[0]), nil
	default:
		f.replies[phase] = queue[1:]
		return json.RawMessage(queue[0]), nil
	}
}

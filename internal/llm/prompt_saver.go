package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// PromptSaver implements PromptHook to persist prompts & raw replies under Dir.
// Each phase appends to prompt/<phase>.txt; the latest reply is also written
// to <phase>.raw.txt.
type PromptSaver struct{ Dir string }

func (p *PromptSaver) Before(ctx context.Context, phase, prompt string, input any) {
	var buf bytes.Buffer
	buf.WriteString("==== ")
	buf.WriteString(time.Now().Format(time.RFC3339))
	buf.WriteString(" ====\n")
	buf.WriteString(prompt)
	if input != nil {
		buf.WriteString("\n\n[INPUT JSON]\n")
		jb, _ := json.MarshalIndent(input, "", "  ")
		buf.Write(jb)
	}
	buf.WriteString("\n\n")
	p.appendTo(phase, buf.Bytes())
}

func (p *PromptSaver) After(ctx context.Context, phase string, raw json.RawMessage, err error) {
	var buf bytes.Buffer
	buf.WriteString("[RESPONSE]\n")
	if err != nil {
		buf.WriteString("ERROR: " + err.Error() + "\n\n")
	} else {
		buf.Write(raw)
		buf.WriteString("\n\n")
	}
	p.appendTo(phase, buf.Bytes())
	if err == nil {
		_ = os.WriteFile(filepath.Join(p.Dir, phaseName(phase)+".raw.txt"), raw, 0o644)
	}
}

func (p *PromptSaver) appendTo(phase string, b []byte) {
	_ = os.MkdirAll(filepath.Join(p.Dir, "prompt"), 0o755)
	path := filepath.Join(p.Dir, "prompt", phaseName(phase)+".txt")
	f, _ := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if f != nil {
		_, _ = f.Write(b)
		_ = f.Close()
	}
}

func phaseName(phase string) string {
	if phase == "" {
		return "unknown"
	}
	return phase
}

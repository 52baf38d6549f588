package watcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"smellfix/internal/procexec"
)

// CommandTrigger runs a command and waits for it to exit. Its output is
// copied to the log line by line.
type CommandTrigger struct {
	Argv []string
	Dir  string
	Exec procexec.Executor
}

func (t *CommandTrigger) Fire(ctx context.Context) error {
	if len(t.Argv) == 0 {
		return errors.New("watcher: empty trigger command")
	}
	cmd := procexec.Cmd{
		Dir:    t.Dir,
		Name:   t.Argv[0],
		Args:   t.Argv[1:],
		Stdout: &lineLogger{prefix: "[driver] "},
		Stderr: &lineLogger{prefix: "[driver] "},
	}
	log.Printf("[watcher] running %s", cmd)
	res, err := procexec.Or(t.Exec)(ctx, cmd)
	flush(cmd.Stdout, cmd.Stderr)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("%s: exit %d", cmd, res.ExitCode)
	}
	return nil
}

// lineLogger forwards complete lines to the standard logger.
type lineLogger struct {
	prefix string
	mu     sync.Mutex
	buf    bytes.Buffer
}

func (l *lineLogger) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf.Write(p)
	for {
		i := bytes.IndexByte(l.buf.Bytes(), '\n')
		if i < 0 {
			break
		}
		line := string(l.buf.Next(i + 1))
		log.Print(l.prefix + line[:len(line)-1])
	}
	return len(p), nil
}

func (l *lineLogger) flush() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.buf.Len() > 0 {
		log.Print(l.prefix + l.buf.String())
		l.buf.Reset()
	}
}

func flush(ws ...any) {
	for _, w := range ws {
		if l, ok := w.(*lineLogger); ok {
			l.flush()
		}
	}
}

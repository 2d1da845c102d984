package device

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
)

// ExecSource runs an external command and takes its stdout as the reply,
// e.g. `java -jar atag-one.jar --dump`.
type ExecSource struct {
	Command string
	Args    []string
}

func (s ExecSource) Query(ctx context.Context) ([]byte, error) {
	if s.Command == "" {
		return nil, &TransportError{Op: "exec", Target: "", Err: errors.New("no command configured")}
	}
	cmd := exec.CommandContext(ctx, s.Command, s.Args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = errors.Join(err, errors.New(msg))
		}
		return nil, &TransportError{Op: "exec", Target: s.Command, Err: err}
	}
	return out, nil
}

// FileSource reads a stored reply from disk.
type FileSource struct {
	Path string
}

func (s FileSource) Query(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &TransportError{Op: "read", Target: s.Path, Err: err}
	}
	b, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, &TransportError{Op: "read", Target: s.Path, Err: err}
	}
	return b, nil
}

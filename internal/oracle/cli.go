package oracle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultCLITimeout bounds a single CLI invocation.
const DefaultCLITimeout = 120 * time.Second

// CLIClient shells out to a reasoning CLI (`claude -p <prompt>` by
// default). The prompt goes in as an argument and the response comes back
// on stdout.
type CLIClient struct {
	command string
	timeout time.Duration
}

// NewCLIClient creates a CLI oracle client. Empty command defaults to
// "claude"; zero timeout defaults to DefaultCLITimeout.
func NewCLIClient(command string, timeout time.Duration) *CLIClient {
	if command == "" {
		command = "claude"
	}
	if timeout <= 0 {
		timeout = DefaultCLITimeout
	}
	return &CLIClient{command: command, timeout: timeout}
}

// GenerateText runs one CLI invocation with the client's timeout.
func (c *CLIClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(callCtx, c.command, "-p", prompt)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if callCtx.Err() == context.DeadlineExceeded {
		return "", &CallError{Variant: "cli", Err: fmt.Errorf("%w after %v", ErrTimeout, c.timeout)}
	}
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return "", &CallError{Variant: "cli", Err: fmt.Errorf("exit %d: %s", ee.ExitCode(), strings.TrimSpace(stderr.String()))}
		}
		return "", &CallError{Variant: "cli", Err: err}
	}
	return strings.TrimSpace(stdout.String()), nil
}

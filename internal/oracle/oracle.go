// Package oracle abstracts the external AI reasoning service behind a
// single text-in/text-out capability. Three variants exist: a CLI
// subprocess client, an SDK client, and a fixed-fixture mock. Callers
// inject the variant at construction; component bodies never branch on
// which one is in play.
package oracle

import (
	"context"
	"errors"
	"fmt"
)

// Client generates text from a prompt. Implementations must honor ctx
// cancellation and return ErrTimeout-wrapped errors on deadline expiry.
type Client interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// ErrTimeout marks an oracle call that exceeded its time budget. Callers
// treat it as transient and retryable.
var ErrTimeout = errors.New("oracle call timed out")

// CallError is the typed failure raised by oracle clients. It carries the
// variant name so degraded-mode log lines identify the failing transport.
type CallError struct {
	Variant string
	Err     error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("oracle %s call failed: %v", e.Variant, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

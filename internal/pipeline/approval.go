package pipeline

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/sdlctools/patternhunter/internal/ui"
)

// ErrCancelled reports that the operator interrupted a prompt. The run
// stops where it is; state from completed stages stays on disk.
var ErrCancelled = errors.New("cancelled by user")

// Approver answers the pipeline's review gates.
type Approver interface {
	// Confirm asks a yes/no question. def is the answer an empty response
	// selects.
	Confirm(question string, def bool) (bool, error)
}

// InteractiveApprover prompts on the terminal and re-asks until it gets a
// recognizable answer.
type InteractiveApprover struct {
	printer *ui.Printer
}

// NewInteractiveApprover creates a terminal approver.
func NewInteractiveApprover(printer *ui.Printer) *InteractiveApprover {
	return &InteractiveApprover{printer: printer}
}

// Confirm reads y/n from the terminal. Enter selects the default, Ctrl+C
// and Ctrl+D cancel the run.
func (a *InteractiveApprover) Confirm(question string, def bool) (bool, error) {
	suffix := " [Y/n]"
	if !def {
		suffix = " [y/N]"
	}
	yellow := color.New(color.FgYellow).SprintFunc()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          yellow(question + suffix + ": "),
		InterruptPrompt: "^C",
	})
	if err != nil {
		return false, fmt.Errorf("failed to open prompt: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt || err == io.EOF {
			return false, ErrCancelled
		}
		if err != nil {
			return false, fmt.Errorf("failed to read answer: %w", err)
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		default:
			a.printer.Error("Please answer 'y' or 'n'")
		}
	}
}

// AutoApprover answers every gate with its default and announces the
// decision so the transcript shows what was auto-approved.
type AutoApprover struct {
	printer *ui.Printer
}

// NewAutoApprover creates a non-interactive approver.
func NewAutoApprover(printer *ui.Printer) *AutoApprover {
	return &AutoApprover{printer: printer}
}

// Confirm returns def without prompting.
func (a *AutoApprover) Confirm(question string, def bool) (bool, error) {
	answer := "no"
	if def {
		answer = "yes"
	}
	a.printer.Info("%s [auto: %s]", question, answer)
	return def, nil
}

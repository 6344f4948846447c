package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/acarl005/stripansi"
	"github.com/rs/zerolog"

	"github.com/skuqa/sku-acceptor/types"
)

// Executor runs one test specification against the live application.
// Implementations are opaque to the aggregation pipeline: how the
// application is driven (navigation, session handling, screenshot capture)
// is entirely the executor's business.
type Executor interface {
	Execute(ctx context.Context, spec types.TestSpec) (types.TestOutcome, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, spec types.TestSpec) (types.TestOutcome, error)

func (f ExecutorFunc) Execute(ctx context.Context, spec types.TestSpec) (types.TestOutcome, error) {
	return f(ctx, spec)
}

// CommandExecutor drives an external search-driver binary per test. The
// spec is passed as JSON on stdin and a single TestOutcome JSON document is
// expected on stdout. Driver stderr is kept out of the pipeline except as
// sanitized error context.
type CommandExecutor struct {
	command string
	args    []string
	log     zerolog.Logger
}

// NewCommandExecutor creates an executor invoking command with args for
// every test.
func NewCommandExecutor(command string, args []string, log zerolog.Logger) *CommandExecutor {
	return &CommandExecutor{command: command, args: args, log: log}
}

func (e *CommandExecutor) Execute(ctx context.Context, spec types.TestSpec) (types.TestOutcome, error) {
	payload, err := json.Marshal(spec)
	if err != nil {
		return types.TestOutcome{}, fmt.Errorf("failed to encode spec %d: %w", spec.Index, err)
	}

	cmd := exec.CommandContext(ctx, e.command, e.args...)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.log.Debug().Int("index", spec.Index).Str("query", spec.Query).Msg("invoking search driver")

	if err := cmd.Run(); err != nil {
		detail := firstLine(stripansi.Strip(stderr.String()))
		if detail == "" {
			detail = err.Error()
		}
		return types.TestOutcome{}, fmt.Errorf("driver failed for index %d: %s", spec.Index, detail)
	}

	var outcome types.TestOutcome
	if err := json.Unmarshal(stdout.Bytes(), &outcome); err != nil {
		return types.TestOutcome{}, fmt.Errorf("driver produced unreadable outcome for index %d: %w", spec.Index, err)
	}
	outcome.ErrorMessage = stripansi.Strip(outcome.ErrorMessage)
	return outcome, nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

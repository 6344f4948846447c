package runner

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skuqa/sku-acceptor/types"
)

func TestCommandExecutorParsesOutcome(t *testing.T) {
	script := `cat > /dev/null; echo '{"status":"pass","found_count":12,"total_count":40,"match_position":3,"screenshot_refs":["screenshots/002_results.png"]}'`
	exec := NewCommandExecutor("sh", []string{"-c", script}, zerolog.Nop())

	outcome, err := exec.Execute(context.Background(), types.TestSpec{Index: 2, Query: "wireless mouse"})
	require.NoError(t, err)
	assert.Equal(t, types.StatusPass, outcome.Status)
	assert.Equal(t, 12, outcome.FoundCount)
	assert.Equal(t, 40, outcome.TotalCount)
	assert.Equal(t, 3, outcome.MatchPosition)
	assert.Equal(t, []string{"screenshots/002_results.png"}, outcome.ScreenshotRefs)
}

func TestCommandExecutorPassesSpecOnStdin(t *testing.T) {
	// The driver echoes the query it received back as the error message.
	script := `q=$(sed 's/.*"query":"\([^"]*\)".*/\1/'); echo "{\"status\":\"fail\",\"error_message\":\"$q\"}"`
	exec := NewCommandExecutor("sh", []string{"-c", script}, zerolog.Nop())

	outcome, err := exec.Execute(context.Background(), types.TestSpec{Index: 0, Query: "usb hub"})
	require.NoError(t, err)
	assert.Equal(t, types.StatusFail, outcome.Status)
	assert.Equal(t, "usb hub", outcome.ErrorMessage)
}

func TestCommandExecutorSurfacesStderrOnFailure(t *testing.T) {
	script := `cat > /dev/null; echo "session expired" >&2; exit 3`
	exec := NewCommandExecutor("sh", []string{"-c", script}, zerolog.Nop())

	_, err := exec.Execute(context.Background(), types.TestSpec{Index: 5, Query: "monitor arm"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session expired")
	assert.Contains(t, err.Error(), "index 5")
}

func TestCommandExecutorRejectsGarbageOutput(t *testing.T) {
	script := `cat > /dev/null; echo "not json"`
	exec := NewCommandExecutor("sh", []string{"-c", script}, zerolog.Nop())

	_, err := exec.Execute(context.Background(), types.TestSpec{Index: 1, Query: "hdmi cable"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreadable outcome")
}

func TestCommandExecutorStripsANSIFromErrorMessage(t *testing.T) {
	script := `cat > /dev/null; printf '%s' '{"status":"fail","error_message":"\u001b[31mtimeout\u001b[0m"}'`
	exec := NewCommandExecutor("sh", []string{"-c", script}, zerolog.Nop())

	outcome, err := exec.Execute(context.Background(), types.TestSpec{Index: 0, Query: "desk lamp"})
	require.NoError(t, err)
	assert.Equal(t, "timeout", outcome.ErrorMessage)
}

// Package latexdiff wraps the external latexdiff utility that renders a
// marked-up comparison of the original and corrected documents. The binary
// is optional: when it is missing the diff step is skipped with a warning
// and the pipeline still succeeds.
package latexdiff

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// DefaultMode is the latexdiff markup style used when none is configured.
const DefaultMode = "CCHANGEBAR"

// Injectable functions for testing.
var (
	execLookPath = exec.LookPath
	execCommand  = exec.CommandContext
)

// Runner invokes latexdiff against an original and a corrected document.
type Runner struct {
	Binary string // resolved via PATH; defaults to "latexdiff"
}

func New() *Runner {
	return &Runner{Binary: "latexdiff"}
}

func (r *Runner) binary() string {
	if r.Binary == "" {
		return "latexdiff"
	}
	return r.Binary
}

// Available reports whether the latexdiff binary can be executed and returns
// the first line of its --version output. Any failure here means the diff
// step should be skipped, not that the run failed.
func (r *Runner) Available(ctx context.Context) (string, error) {
	bin := r.binary()
	if _, err := execLookPath(bin); err != nil {
		return "", fmt.Errorf("%s not found in PATH: %w", bin, err)
	}

	out, err := execCommand(ctx, bin, "--version").CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%s --version failed: %w", bin, err)
	}
	text := strings.TrimSpace(string(out))
	if !strings.Contains(strings.ToUpper(text), "LATEXDIFF") {
		return "", fmt.Errorf("%s --version produced unexpected output", bin)
	}
	return strings.SplitN(text, "\n", 2)[0], nil
}

// Run compares original and corrected with the given markup mode and writes
// the resulting document to out. latexdiff prints the diff document on
// stdout; stderr is kept for the error message.
func (r *Runner) Run(ctx context.Context, original, corrected, out, mode string) error {
	if mode == "" {
		mode = DefaultMode
	}

	cmd := execCommand(ctx, r.binary(), "--type="+mode, original, corrected)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return fmt.Errorf("latexdiff failed: %s", msg)
	}

	if err := os.WriteFile(out, stdout.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write diff file: %w", err)
	}
	return nil
}

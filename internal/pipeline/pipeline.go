// Package pipeline launches the external stages around the ring: the
// detector that produces measurements and the tracker that consumes an
// impaired replay.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os/exec"
	"strings"

	"github.com/google/shlex"
)

// ExitNotFound is the exit code reported when the command does not exist,
// matching what a shell returns.
const ExitNotFound = 127

// InputPlaceholder is replaced by Expand with the path of the stage input.
const InputPlaceholder = "{input}"

// ErrCommandNotFound is returned alongside ExitNotFound.
var ErrCommandNotFound = errors.New("pipeline: command not found")

// Options controls how a command is launched.
type Options struct {
	// Capture collects stdout and stderr into the Result instead of
	// forwarding them.
	Capture bool

	// Stdout and Stderr receive the child's output when Capture is false.
	// Nil discards it.
	Stdout io.Writer
	Stderr io.Writer

	Dir string   // working directory, empty = current
	Env []string // extra KEY=value pairs appended to the parent environment
}

// Result reports how a command finished.
type Result struct {
	Args     []string
	ExitCode int
	Stdout   string // only with Options.Capture
	Stderr   string // only with Options.Capture
}

// Success reports a zero exit code.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Expand substitutes path for every InputPlaceholder in template.
func Expand(template, path string) string {
	return strings.ReplaceAll(template, InputPlaceholder, path)
}

// Run splits command with shell quoting rules and runs it without a shell.
// A non-zero exit status is reported in Result.ExitCode with a nil error. A
// child ended by a signal reports 128+signal, as a shell would.
// Errors are returned only when the command could not be run at all.
func Run(ctx context.Context, command string, opts Options) (Result, error) {
	args, err := shlex.Split(command)
	if err != nil {
		return Result{}, fmt.Errorf("parsing command %q: %w", command, err)
	}
	if len(args) == 0 {
		return Result{}, fmt.Errorf("empty command")
	}

	res := Result{Args: args}
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = opts.Dir
	if len(opts.Env) > 0 {
		cmd.Env = append(cmd.Environ(), opts.Env...)
	}

	var stdout, stderr bytes.Buffer
	if opts.Capture {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	} else {
		cmd.Stdout = opts.Stdout
		cmd.Stderr = opts.Stderr
	}

	err = cmd.Run()
	if opts.Capture {
		res.Stdout = stdout.String()
		res.Stderr = stderr.String()
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return res, nil
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		res.ExitCode = ExitNotFound
		return res, fmt.Errorf("%w: %s", ErrCommandNotFound, args[0])
	case ctx.Err() != nil:
		res.ExitCode = -1
		return res, ctx.Err()
	case errors.As(err, &exitErr):
		res.ExitCode = exitCode(exitErr)
		return res, nil
	default:
		res.ExitCode = -1
		return res, fmt.Errorf("running %s: %w", args[0], err)
	}
}

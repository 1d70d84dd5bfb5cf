package cli

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/tsmr/internal/pipeline"
)

func newRunCmd() *cobra.Command {
	var capture bool

	cmd := &cobra.Command{
		Use:   "run <command>",
		Short: "Run an external pipeline stage and report its exit status",
		Long: `Runs a detector, tracker or other stage around the ring and exits
with the stage's status. The command line is split with shell quoting
rules but no shell is involved. A missing binary exits with 127.

With --capture, the stage's output is collected and printed after it
finishes, followed by the status.`,
		Example: `  tsmr run "detector --weights best.pt --source clip.mp4"
  tsmr run --capture "tracker --detections 'late run.jsonl'"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			opts := pipeline.Options{
				Capture: capture,
				Stdout:  out,
				Stderr:  cmd.ErrOrStderr(),
			}

			log.Printf("running %s", args[0])
			res, err := pipeline.Run(cmd.Context(), args[0], opts)
			if capture {
				if res.Stdout != "" {
					fmt.Fprintln(out, "--- stdout ---")
					fmt.Fprint(out, ensureNewline(res.Stdout))
				}
				if res.Stderr != "" {
					fmt.Fprintln(out, "--- stderr ---")
					fmt.Fprint(out, ensureNewline(res.Stderr))
				}
				fmt.Fprintf(out, "exit status %d\n", res.ExitCode)
			}
			return stageError(res, err)
		},
	}

	cmd.Flags().BoolVar(&capture, "capture", false, "collect stdout and stderr and print them after the stage exits")
	return cmd
}

// stageError turns a failed launch or a non-zero exit into an ExitError
// carrying the stage's status.
func stageError(res pipeline.Result, err error) error {
	if err != nil {
		code := res.ExitCode
		if code <= 0 {
			code = 1
		}
		return &ExitError{Code: code, Err: err}
	}
	if !res.Success() {
		code := res.ExitCode
		if code < 0 {
			code = 1
		}
		return &ExitError{Code: code, Err: fmt.Errorf("%s exited with status %d", res.Args[0], res.ExitCode)}
	}
	return nil
}

func ensureNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

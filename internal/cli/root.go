package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ExitError carries a process exit status out of a command, such as the
// status of an external stage launched by run or impair.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewRootCmd creates the root tsmr command.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tsmr",
		Short: "Timestamped measurement replay ring",
		Long: `tsmr buffers timestamped detections in a fixed-capacity ring that
overwrites its oldest record when full, lets late corrections patch
buffered records, and hands records older than a cutoff to a slower
downstream consumer.

Serve the ring over HTTP, replay recorded detection streams against a
virtual clock, impair streams with lag, jitter and drops, and launch
the external pipeline stages around it.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newServeCmd(),
		newReplayCmd(),
		newSimulateCmd(),
		newInspectCmd(),
		newImpairCmd(),
		newGenerateCmd(),
		newRunCmd(),
	)

	return root
}

package cli

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/tsmr/internal/impair"
	"github.com/SmitUplenchwar2687/tsmr/internal/pipeline"
	"github.com/SmitUplenchwar2687/tsmr/internal/recorder"
)

func newImpairCmd() *cobra.Command {
	var (
		input      string
		output     string
		trackerCmd string
		opts       = impair.DefaultOptions()
	)

	cmd := &cobra.Command{
		Use:   "impair",
		Short: "Degrade a detection stream with lag, jitter and drops",
		Long: `Reads a JSONL detection stream, impairs it and writes the result in
arrival order.

Modes:
  lag       Shift every timestamp by --lag-ms (may be negative)
  jitter    Add Gaussian noise of --sigma-ms and drop entries with --drop-p

Timestamps are clamped at zero. With --tracker-cmd, the impaired stream
is handed to an external tracker; "{input}" in the command is replaced by
the output path and the tracker's exit status becomes this command's.`,
		Example: `  tsmr impair --input detections.jsonl --output late.jsonl --mode lag --lag-ms 120
  tsmr impair --input detections.jsonl --mode jitter --sigma-ms 40 --drop-p 0.1 --seed 3
  tsmr impair --input detections.jsonl --tracker-cmd "tracker --detections {input}"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if input == "" {
				return fmt.Errorf("--input is required")
			}

			entries, err := recorder.LoadFile(input)
			if err != nil {
				return fmt.Errorf("loading %s: %w", input, err)
			}
			impaired, err := impair.Apply(entries, opts)
			if err != nil {
				return err
			}
			if err := recorder.WriteFile(output, impaired); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Impaired %d entries with %s, wrote %d to %s\n",
				len(entries), opts.Mode, len(impaired), output)

			if trackerCmd == "" {
				return nil
			}
			command := pipeline.Expand(trackerCmd, output)
			log.Printf("running tracker: %s", command)
			res, err := pipeline.Run(cmd.Context(), command, pipeline.Options{
				Stdout: out,
				Stderr: cmd.ErrOrStderr(),
			})
			return stageError(res, err)
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "path to a JSONL detection stream (required)")
	cmd.Flags().StringVar(&output, "output", "impaired.jsonl", "output file path")
	cmd.Flags().StringVar(&opts.Mode, "mode", opts.Mode, "impairment mode (lag, jitter)")
	cmd.Flags().Int64Var(&opts.LagMS, "lag-ms", opts.LagMS, "timestamp shift for lag mode")
	cmd.Flags().Float64Var(&opts.SigmaMS, "sigma-ms", opts.SigmaMS, "jitter standard deviation for jitter mode")
	cmd.Flags().Float64Var(&opts.DropP, "drop-p", opts.DropP, "drop probability for jitter mode")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "random seed (0 = time based)")
	cmd.Flags().StringVar(&trackerCmd, "tracker-cmd", "", `tracker command run on the output ("{input}" = output path)`)

	return cmd
}

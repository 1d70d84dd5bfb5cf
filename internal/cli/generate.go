package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/tsmr/internal/config"
	"github.com/SmitUplenchwar2687/tsmr/internal/generate"
	"github.com/SmitUplenchwar2687/tsmr/internal/recorder"
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate sample detection streams and config",
		Long: `Generates sample data for testing and experimentation.

Use "generate measurements" to create a synthetic JSONL detection stream.
Use "generate config" to create an example config JSON file.`,
	}

	cmd.AddCommand(newGenerateMeasurementsCmd(), newGenerateConfigCmd())
	return cmd
}

func newGenerateMeasurementsCmd() *cobra.Command {
	var (
		output string
		opts   = generate.DefaultOptions()
	)

	cmd := &cobra.Command{
		Use:   "measurements",
		Short: "Generate a synthetic JSONL detection stream",
		Long: `Creates a detection stream with normalized boxes, round-robin track
ids and confidences in [0.25, 1).

Patterns:
  steady    Evenly spaced frames
  burst     Clustered frames with quiet gaps
  ramp      Frames that grow denser over time

With --correction-rate, some detections are followed a few entries later
by a correction carrying a refined score for the same timestamp and id.`,
		Example: `  tsmr generate measurements --output detections.jsonl --count 500 --tracks 4
  tsmr generate measurements --output burst.jsonl --pattern burst --duration 1m
  tsmr generate measurements --correction-rate 0.1 --correction-delay 5 --seed 7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := generate.Entries(opts)
			if err != nil {
				return err
			}
			if err := recorder.WriteFile(output, entries); err != nil {
				return fmt.Errorf("writing entries: %w", err)
			}

			corrections := 0
			for _, e := range entries {
				if e.Correction {
					corrections++
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Generated %d entries to %s\n", len(entries), output)
			fmt.Fprintf(out, "  Tracks:      %d\n", opts.Tracks)
			fmt.Fprintf(out, "  Duration:    %s\n", opts.Duration)
			fmt.Fprintf(out, "  Pattern:     %s\n", opts.Pattern)
			fmt.Fprintf(out, "  Corrections: %d\n", corrections)
			return nil
		},
	}

	cmd.Flags().StringVar(&output, "output", "detections.jsonl", "output file path")
	cmd.Flags().IntVar(&opts.Count, "count", opts.Count, "number of detections to generate")
	cmd.Flags().IntVar(&opts.Tracks, "tracks", opts.Tracks, "number of distinct track ids")
	cmd.Flags().DurationVar(&opts.Duration, "duration", opts.Duration, "time span of the stream")
	cmd.Flags().StringVar(&opts.Pattern, "pattern", opts.Pattern, "arrival pattern (steady, burst, ramp)")
	cmd.Flags().Uint64Var(&opts.StartMS, "start-ms", 0, "first timestamp in ms (0 = now)")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "random seed (0 = time based)")
	cmd.Flags().Float64Var(&opts.CorrectionRate, "correction-rate", 0, "fraction of detections later corrected")
	cmd.Flags().IntVar(&opts.CorrectionDelay, "correction-delay", opts.CorrectionDelay, "detections between an original and its correction")

	return cmd
}

func newGenerateConfigCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:     "config",
		Short:   "Generate an example config JSON file",
		Example: `  tsmr generate config --output tsmr.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteExample(output); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated example config at %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVar(&output, "output", "tsmr.json", "output file path")
	return cmd
}

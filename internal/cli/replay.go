package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/tsmr/internal/clock"
	"github.com/SmitUplenchwar2687/tsmr/internal/replay"
)

func newReplayCmd() *cobra.Command {
	var (
		session    sessionOptions
		file       string
		speed      float64
		ids        []int
		minScore   float32
		after      uint64
		before     uint64
		dropTiny   bool
		imageW     int
		imageH     int
		sorted     bool
		verbose    bool
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a recorded detection stream through the ring",
		Long: `Replays a JSONL detection stream through a measurement ring while a
paced consumer extracts records older than now - lag.

Entries are replayed in arrival order, so late detections and corrections
land the way they did live. The virtual clock follows the newest timestamp
seen and never runs backwards. When the stream ends, whatever is still
buffered is flushed to the sink.

Speed: 0 = instant, 1 = real-time, 10 = 10x, 100 = 100x`,
		Example: `  tsmr replay --file detections.jsonl
  tsmr replay --file detections.jsonl --capacity 64 --lag-ms 200 --rate 50 --window 1s
  tsmr replay --file detections.jsonl --order reject --ids 1,2 --min-score 0.5
  tsmr replay --file detections.jsonl --speed 0 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file is required")
			}
			cfg, err := session.resolve(cmd)
			if err != nil {
				return err
			}

			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("opening file: %w", err)
			}
			defer f.Close()

			vc := clock.NewVirtualClockMillis(0)
			g, pacer, sink, err := newSession(cfg, vc)
			if err != nil {
				return err
			}
			defer g.Close()
			defer sink.Close()

			r := replay.New(g, vc, pacer, sink, replay.Options{
				LagMS:     cfg.Consumer.LagMS,
				BatchSize: cfg.Consumer.BatchSize,
				Speed:     speed,
				Sort:      sorted,
				Filter: replay.Filter{
					IDs:      ids,
					MinScore: minScore,
					AfterMS:  after,
					BeforeMS: before,
					DropTiny: dropTiny,
					ImageW:   imageW,
					ImageH:   imageH,
				},
			})
			if err := r.Load(f); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !outputJSON {
				fmt.Fprintf(out, "Replaying %s into a %d-slot ring (lag %dms, order %s)...\n\n",
					file, cfg.Ring.Capacity, cfg.Consumer.LagMS, cfg.Ring.OrderPolicy)
			}

			var events []replay.Event
			summary, err := r.Run(cmd.Context(), func(ev replay.Event) {
				if outputJSON {
					events = append(events, ev)
					return
				}
				printEvent(out, ev, verbose)
			})
			if err != nil {
				return err
			}

			if outputJSON {
				return encodeJSON(out, map[string]interface{}{
					"events":  events,
					"summary": summary,
				})
			}

			printSummary(out, summary)
			return nil
		},
	}

	session.addFlags(cmd, true)
	cmd.Flags().StringVar(&file, "file", "", "path to a JSONL detection stream (required)")
	cmd.Flags().Float64Var(&speed, "speed", 0, "replay speed (0=instant, 1=real-time, 10=10x)")
	cmd.Flags().IntSliceVar(&ids, "ids", nil, "only replay these track ids (comma-separated)")
	cmd.Flags().Float32Var(&minScore, "min-score", 0, "drop detections scoring below this")
	cmd.Flags().Uint64Var(&after, "after", 0, "only replay timestamps after this (ms)")
	cmd.Flags().Uint64Var(&before, "before", 0, "only replay timestamps before this (ms)")
	cmd.Flags().BoolVar(&dropTiny, "drop-tiny", false, "drop boxes under 32px on both axes (needs --img-w and --img-h)")
	cmd.Flags().IntVar(&imageW, "img-w", 0, "frame width in pixels")
	cmd.Flags().IntVar(&imageH, "img-h", 0, "frame height in pixels")
	cmd.Flags().BoolVar(&sorted, "sort", false, "replay in timestamp order instead of arrival order")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print every entry, not only notable ones")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "output events and summary as JSON")

	return cmd
}

// printEvent writes one replay event. Plain inserts and successful
// corrections are only shown when verbose.
func printEvent(w io.Writer, ev replay.Event, verbose bool) {
	switch ev.Kind {
	case replay.EventInserted, replay.EventCorrected:
		if !verbose {
			return
		}
		fmt.Fprintf(w, "  [%-9s] now=%d %s\n", strings.ToUpper(string(ev.Kind)), ev.NowMS, ev.Entry.Measurement)
	case replay.EventOverwrote:
		fmt.Fprintf(w, "  [OVERWROTE] now=%d %s (evicted %s)\n", ev.NowMS, ev.Entry.Measurement, ev.Evicted)
	case replay.EventRejected, replay.EventUnmatched:
		fmt.Fprintf(w, "  [%-9s] now=%d %s\n", strings.ToUpper(string(ev.Kind)), ev.NowMS, ev.Entry.Measurement)
	case replay.EventDelivered, replay.EventFlushed:
		if ev.Batch == nil {
			return
		}
		fmt.Fprintf(w, "  [%-9s] now=%d cutoff=%d count=%d\n",
			strings.ToUpper(string(ev.Kind)), ev.NowMS, ev.Batch.CutoffMS, ev.Batch.Len())
	}
}

func printSummary(w io.Writer, s *replay.Summary) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "--- Replay Summary ---")
	fmt.Fprintf(w, "  Total entries:     %d\n", s.TotalEntries)
	fmt.Fprintf(w, "  Filtered:          %d\n", s.Filtered)
	fmt.Fprintf(w, "  Inserted:          %d\n", s.Inserted)
	fmt.Fprintf(w, "  Overwritten:       %d\n", s.Overwritten)
	fmt.Fprintf(w, "  Rejected:          %d\n", s.Rejected)
	fmt.Fprintf(w, "  Corrected:         %d\n", s.Corrected)
	fmt.Fprintf(w, "  Correction misses: %d\n", s.CorrectionMisses)
	fmt.Fprintf(w, "  Extracted:         %d in %d batches\n", s.Extracted, s.Batches)
	fmt.Fprintf(w, "  Virtual time:      %s\n", s.Duration)
	fmt.Fprintf(w, "  Wall time:         %s\n", s.WallDuration.Round(time.Millisecond))

	if s.Overwritten > 0 && s.Inserted > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, strings.Repeat("=", 50))
		lossRate := float64(s.Overwritten) / float64(s.Inserted) * 100
		fmt.Fprintf(w, "Loss rate: %.1f%% (%d/%d detections overwritten before extraction)\n",
			lossRate, s.Overwritten, s.Inserted)
		fmt.Fprintln(w, strings.Repeat("=", 50))
	}
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

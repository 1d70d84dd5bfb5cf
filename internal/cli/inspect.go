package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/tsmr/internal/label"
	"github.com/SmitUplenchwar2687/tsmr/internal/measurement"
	"github.com/SmitUplenchwar2687/tsmr/internal/recorder"
)

func newInspectCmd() *cobra.Command {
	var (
		file       string
		imageW     int
		imageH     int
		classes    bool
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Summarize a recorded detection stream",
		Long: `Reads a JSONL detection stream and reports its time span, how many
entries arrive late (behind the newest timestamp seen so far), the
corrections it carries and a per-id breakdown.

Raw detector output, before tracking, carries the detector class in the
id slot; --classes labels ids with class names. With --img-w and --img-h,
boxes under 32px on both axes are counted as tiny.`,
		Example: `  tsmr inspect --file detections.jsonl
  tsmr inspect --file raw.jsonl --classes --img-w 1920 --img-h 1080 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file is required")
			}
			entries, err := recorder.LoadFile(file)
			if err != nil {
				return fmt.Errorf("loading %s: %w", file, err)
			}

			report := inspectEntries(entries, imageW, imageH, classes)
			out := cmd.OutOrStdout()
			if outputJSON {
				return encodeJSON(out, report)
			}
			printInspection(out, file, &report)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "path to a JSONL detection stream (required)")
	cmd.Flags().IntVar(&imageW, "img-w", 0, "frame width in pixels for tiny-box counting")
	cmd.Flags().IntVar(&imageH, "img-h", 0, "frame height in pixels for tiny-box counting")
	cmd.Flags().BoolVar(&classes, "classes", false, "treat ids as detector class ids")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "output report as JSON")

	return cmd
}

// InspectReport summarizes a detection stream.
type InspectReport struct {
	Entries     int        `json:"entries"`
	Corrections int        `json:"corrections"`
	Late        int        `json:"late"`
	FirstMS     uint64     `json:"first_ms"`
	LastMS      uint64     `json:"last_ms"`
	Tiny        int        `json:"tiny,omitempty"`
	PerID       []IDCounts `json:"per_id"`
}

// IDCounts holds the detections seen for one id.
type IDCounts struct {
	ID        int     `json:"id"`
	Label     string  `json:"label,omitempty"`
	Count     int     `json:"count"`
	MeanScore float32 `json:"mean_score"`
}

func inspectEntries(entries []recorder.Entry, imageW, imageH int, classes bool) InspectReport {
	var r InspectReport
	r.Entries = len(entries)

	type acc struct {
		count int
		score float32
	}
	perID := make(map[int]*acc)
	var newest uint64
	seen := false
	for _, e := range entries {
		if e.Correction {
			r.Corrections++
			continue
		}
		if !seen || e.TimestampMS < r.FirstMS {
			r.FirstMS = e.TimestampMS
		}
		seen = true
		if e.TimestampMS > r.LastMS {
			r.LastMS = e.TimestampMS
		}
		if e.TimestampMS < newest {
			r.Late++
		}
		newest = max(newest, e.TimestampMS)
		if imageW > 0 && imageH > 0 && label.IsTiny(e.W, e.H, imageW, imageH) {
			r.Tiny++
		}
		a := perID[e.ID]
		if a == nil {
			a = &acc{}
			perID[e.ID] = a
		}
		a.count++
		a.score += e.Score
	}

	for id, a := range perID {
		c := IDCounts{ID: id, Count: a.count, MeanScore: a.score / float32(a.count)}
		if classes && id != measurement.NoID {
			c.Label = label.Class(id).String()
		}
		r.PerID = append(r.PerID, c)
	}
	sort.Slice(r.PerID, func(i, j int) bool { return r.PerID[i].ID < r.PerID[j].ID })
	return r
}

func printInspection(w io.Writer, file string, r *InspectReport) {
	fmt.Fprintf(w, "=== %s ===\n", file)
	fmt.Fprintf(w, "  Entries:     %d (%d corrections)\n", r.Entries, r.Corrections)
	fmt.Fprintf(w, "  Span:        %d .. %d ms\n", r.FirstMS, r.LastMS)
	fmt.Fprintf(w, "  Late:        %d\n", r.Late)
	if r.Tiny > 0 {
		fmt.Fprintf(w, "  Tiny boxes:  %d\n", r.Tiny)
	}
	fmt.Fprintln(w)
	for _, c := range r.PerID {
		name := fmt.Sprintf("id %d", c.ID)
		if c.Label != "" {
			name = c.Label
		}
		fmt.Fprintf(w, "  %-12s %5d detections, mean score %.2f\n", name, c.Count, c.MeanScore)
	}
}

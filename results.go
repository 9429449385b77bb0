package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"AvailabilityBot/engine"
	"AvailabilityBot/model"
	"AvailabilityBot/service"
)

var resultsTop int

var resultsCmd = &cobra.Command{
	Use:   "results <event id>",
	Short: "Print the ranked slots and the availability grid of an event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		store, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		top := resultsTop
		if top <= 0 {
			top = cfg.TopN
		}
		svc := service.New(store)
		return svc.Export(ctx, args[0], &textRenderer{w: os.Stdout, top: top})
	},
}

func init() {
	resultsCmd.Flags().IntVarP(&resultsTop, "top", "n", 0, "number of slots to list (default from config)")
}

// textRenderer prints a report as plain text.
type textRenderer struct {
	w   io.Writer
	top int
}

func (r *textRenderer) Render(_ context.Context, ev *model.Event, report *service.Report) error {
	fmt.Fprintf(r.w, "%s (%s, %s)\n", ev.Name, ev.ID, ev.Mode)
	res := report.Result
	if res.Empty() {
		_, err := fmt.Fprintln(r.w, "No votes yet.")
		return err
	}
	fmt.Fprintf(r.w, "%d participant(s)\n\n", res.TotalParticipants)
	for i, s := range res.Top(r.top) {
		fmt.Fprintf(r.w, "%2d. %-16s %5.1f  %3.0f%%\n", i+1, s.Key, s.Score, report.Matrix.Intensity(s.Score)*100)
	}
	if report.Matrix.Empty() {
		return nil
	}
	fmt.Fprintln(r.w)
	return writeGrid(r.w, report.Matrix)
}

// writeGrid draws the matrix with one shade character per cell.
func writeGrid(w io.Writer, m engine.Matrix) error {
	const shades = " .:*#"
	shade := func(score float64) byte {
		i := int(m.Intensity(score) * float64(len(shades)-1))
		return shades[i]
	}

	if m.Mode == model.ModeDate {
		for _, d := range m.Days {
			fmt.Fprintf(w, "%s %-20s %.1f\n", d.Date, strings.Repeat(string(shade(d.Score)), 4), d.Score)
		}
		return nil
	}

	var b strings.Builder
	b.WriteString("       ")
	for _, c := range m.Columns {
		fmt.Fprintf(&b, "%-11.11s", c.Label)
	}
	b.WriteByte('\n')
	for i, row := range m.Rows {
		fmt.Fprintf(&b, "%6s ", row.Label)
		for j := range m.Columns {
			fmt.Fprintf(&b, "%-11c", shade(m.Cells[i][j]))
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

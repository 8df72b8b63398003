package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/locality-intel/internal/report"
)

var (
	reportCity   string
	reportSector string
	reportStatic bool
	reportJSON   bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build an infrastructure report for one sector",
	Example: `  locality-intel report --city Noida --sector "Sector 62"
  locality-intel report --city Noida --sector "Sector 137" --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initApp(cfg, reportStatic)
		if err != nil {
			return err
		}

		return runReport(ctx, cmd.OutOrStdout(), env.Assembler, report.Request{
			City:   reportCity,
			Sector: reportSector,
		}, reportJSON)
	},
}

func runReport(ctx context.Context, w io.Writer, a *report.Assembler, req report.Request, asJSON bool) error {
	rep, err := a.Build(ctx, req)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(rep), "encode report")
	}
	return renderReport(w, rep)
}

// renderReport writes a plain-text rendition of rep.
func renderReport(w io.Writer, rep *report.Report) error {
	s := rep.Sector
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "%s, %s\t[%s]\n", s.Name, rep.City, s.ID)
	fmt.Fprintf(tw, "Overall score\t%d/100 %s (%s)\n", s.OverallScore, s.Label, rep.ScoreBand)
	fmt.Fprintf(tw, "Landmarks\t%s\n", rep.Source)
	if s.Summary != "" {
		fmt.Fprintf(tw, "\n%s\n", s.Summary)
	}

	fmt.Fprintln(tw, "\nScore breakdown")
	values := s.Breakdown.Values()
	for i, wgt := range report.Weights() {
		fmt.Fprintf(tw, "  %s (%d%%)\t%d\t%s\n", wgt.Label, wgt.Percent, values[i], bar(values[i]))
	}

	fmt.Fprintln(tw, "\nKey infrastructure")
	for _, g := range rep.Groups {
		fmt.Fprintf(tw, "  %s\n", g.Category)
		for _, it := range g.Items {
			line := fmt.Sprintf("    %s %s", it.Icon, it.Name)
			if it.Importance != "" {
				line += "\t" + it.Importance
			}
			fmt.Fprintln(tw, line)
		}
	}

	return eris.Wrap(tw.Flush(), "write report")
}

// bar draws a 20-cell meter for a 0-100 score.
func bar(score int) string {
	score = max(0, min(100, score))
	filled := score / 5
	return strings.Repeat("#", filled) + strings.Repeat(".", 20-filled)
}

func init() {
	reportCmd.Flags().StringVar(&reportCity, "city", "Noida", "city name")
	reportCmd.Flags().StringVar(&reportSector, "sector", "", "sector or locality name")
	reportCmd.Flags().BoolVar(&reportStatic, "static", false, "skip live landmark search")
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "print the report as JSON")
	rootCmd.AddCommand(reportCmd)
}

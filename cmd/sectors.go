package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/locality-intel/internal/model"
)

var sectorsCmd = &cobra.Command{
	Use:   "sectors",
	Short: "Inspect the sector catalog",
}

var sectorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog sectors",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog(cfg.Catalog)
		if err != nil {
			return err
		}
		return printSectors(cmd.OutOrStdout(), cat.Sectors())
	},
}

var sectorsSuggestCmd = &cobra.Command{
	Use:   "suggest <text>",
	Short: "Show autocomplete suggestions for typed text",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog(cfg.Catalog)
		if err != nil {
			return err
		}
		matches := cat.Suggest(strings.Join(args, " "))
		if len(matches) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no matching sectors")
			return nil
		}
		return printSectors(cmd.OutOrStdout(), matches)
	},
}

func printSectors(w io.Writer, sectors []model.SectorData) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSCORE\tLABEL\tLANDMARKS")
	for _, s := range sectors {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%d\n", s.ID, s.Name, s.OverallScore, s.Label, len(s.Infrastructure))
	}
	return eris.Wrap(tw.Flush(), "write sectors")
}

func init() {
	sectorsCmd.AddCommand(sectorsListCmd, sectorsSuggestCmd)
	rootCmd.AddCommand(sectorsCmd)
}

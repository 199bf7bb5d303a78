package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/galois26/quakemap/internal/mapview"
)

var legendCmd = &cobra.Command{
	Use:   "legend",
	Short: "Print the depth color key",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		scale, err := mapview.ScaleFromConfig(cfg.Style)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "COLOR\tDEPTH")
		for _, e := range scale.Legend() {
			fmt.Fprintf(tw, "%s\t%s\n", e.Color, e.Label)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(legendCmd)
}

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/JonMunkholm/storemigrate/internal/core"
	"github.com/spf13/cobra"
)

func newStagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stages",
		Short: "List the migration stages in the order they run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ORDER\tSTAGE")
			for i, name := range core.StageOrder {
				fmt.Fprintf(tw, "%d\t%s\n", i+1, name)
			}
			return tw.Flush()
		},
	}
}

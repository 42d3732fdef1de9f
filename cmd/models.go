package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// modelsCmd lists the registered model table.
var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List registered models and their routing properties",
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Model", "Provider", "Tier", "In $/MTok", "Out $/MTok", "Tasks"})
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)

		for _, d := range appInstance.Registry.All() {
			tasks := make([]string, 0, len(d.Tasks))
			for _, t := range d.Tasks {
				tasks = append(tasks, string(t))
			}
			table.Append([]string{
				d.ID,
				d.Provider,
				d.Tier.String(),
				fmt.Sprintf("%.4f", d.InputPerMTok),
				fmt.Sprintf("%.4f", d.OutputPerMTok),
				strings.Join(tasks, ", "),
			})
		}
		table.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

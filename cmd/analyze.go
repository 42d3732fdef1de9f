package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// analyzeCmd runs only the summarize task for a URL.
var analyzeCmd = &cobra.Command{
	Use:   "analyze <url>",
	Short: "Summarize a web page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		summary, result, err := appInstance.Analyze(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%s  %s\n", color.New(color.Bold).Sprint("Title:"), summary.Title)
		fmt.Printf("%s %s\n", color.New(color.Bold).Sprint("Summary:"), summary.Summary)
		if len(summary.Keywords) > 0 {
			fmt.Printf("%s %s\n", color.New(color.Bold).Sprint("Keywords:"), strings.Join(summary.Keywords, ", "))
		}
		fmt.Printf("Estimated cost: $%.6f over %d attempt(s)\n",
			result.TotalCostUSD, len(result.Attempts))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

package cmd

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"searchmark/internal/folder"
	"searchmark/internal/models"
)

var (
	recommendBookmarks string
	recommendNewFolder bool
)

// recommendCmd analyzes a URL and recommends a folder from a bookmarks file.
var recommendCmd = &cobra.Command{
	Use:   "recommend <url>",
	Short: "Get a folder recommendation for a URL",
	Long: `Fetches and analyzes the page at the given URL, then recommends the
best-fitting folder from your bookmarks file (JSON or exported HTML).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		url := args[0]

		folders, err := folder.ParseBookmarksFile(recommendBookmarks)
		if err != nil {
			return fmt.Errorf("failed to parse bookmarks file: %w", err)
		}

		fmt.Printf("Analyzing %s...\n", url)
		rec, err := appInstance.Recommend(cmd.Context(), url, folders, recommendNewFolder)
		if err != nil {
			var terminal *models.TerminalError
			if errors.As(err, &terminal) {
				fmt.Printf("%s %s after %d attempt(s), estimated cost $%.6f\n",
					color.RedString("FAILED"), terminal.Kind, len(terminal.Attempts), terminal.TotalCostUSD)
			}
			return err
		}

		fmt.Printf("%s  %s\n", color.New(color.Bold).Sprint("Title:"), rec.Summary.Title)
		fmt.Printf("%s %s\n", color.New(color.Bold).Sprint("Summary:"), rec.Summary.Summary)
		if rec.FolderPath != "" {
			fmt.Printf("%s  %s\n", color.New(color.Bold).Sprint("Folder:"), color.GreenString(rec.FolderPath))
		}
		if rec.NewFolderName != "" {
			fmt.Printf("%s %s\n", color.New(color.Bold).Sprint("New folder:"), color.YellowString(rec.NewFolderName))
		}
		fmt.Printf("%s %s\n", color.New(color.Bold).Sprint("Reasoning:"), rec.Reasoning)
		fmt.Printf("Estimated cost: $%.6f over %d attempt(s)\n",
			rec.Result.TotalCostUSD, len(rec.Result.Attempts))
		return nil
	},
}

func init() {
	recommendCmd.Flags().StringVarP(&recommendBookmarks, "bookmarks", "b", "", "Bookmarks file (JSON or HTML)")
	recommendCmd.Flags().BoolVarP(&recommendNewFolder, "new-folder", "n", false, "Suggest creating a new folder")
	recommendCmd.MarkFlagRequired("bookmarks")
	rootCmd.AddCommand(recommendCmd)
}

package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tenderpick",
	Short: "Detect, select and submit tender projects from a tracked listing site",
	Long: "tenderpick scans a project listing page for tender entries, lets you " +
		"select a subset across page navigations, and submits the selected ids " +
		"to the scraping backend.",
}

func init() {
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(pickCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(coordinatorCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

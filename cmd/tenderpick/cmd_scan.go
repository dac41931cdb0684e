package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/rafael/tender-picker/internal/config"
)

var scanCmd = &cobra.Command{
	Use:   "scan <url>",
	Short: "Detect project entries on a listing page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := config.Load()

		s, _, err := buildScanner(ctx, cfg, args[0], false)
		if err != nil {
			return err
		}
		defer s.Teardown()

		entries := s.Entries()
		if len(entries) == 0 {
			fmt.Println("No projects found on this page.")
			return nil
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"#", "ID", "Title", "Value", "Deadline", "Trades", "Selected"})
		for _, e := range entries {
			mark := ""
			if s.Selected(e.ID) {
				mark = "x"
			}
			t.AppendRow(table.Row{e.Index + 1, e.ID, e.Title, e.Value, e.Deadline, e.TradeCount, mark})
		}
		t.Render()

		fmt.Printf("%d projects detected, %d currently selected\n", len(entries), len(s.Selection()))
		return nil
	},
}

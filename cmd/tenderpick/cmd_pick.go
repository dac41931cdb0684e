package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/rafael/tender-picker/internal/config"
)

var pickCmd = &cobra.Command{
	Use:   "pick <url>",
	Short: "Interactively select projects on a listing page and submit them",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := config.Load()

		s, _, err := buildScanner(ctx, cfg, args[0], false)
		if err != nil {
			return err
		}
		defer s.Teardown()

		if len(s.Entries()) == 0 {
			fmt.Println("No projects found on this page.")
			return nil
		}

		m, err := tea.NewProgram(newPicker(ctx, s)).Run()
		if err != nil {
			return fmt.Errorf("picker failed: %w", err)
		}
		final := m.(picker)
		if !final.confirmed {
			fmt.Printf("Cancelled. %d projects remain selected.\n", len(s.Selection()))
			return nil
		}

		result, err := s.ConfirmAndSubmit(ctx)
		if err != nil {
			return err
		}
		printResult(result)
		return nil
	},
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rafael/tender-picker/internal/config"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the persisted selection and session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := config.Load()

		store, _ := openStore(ctx, cfg)
		set, err := store.Load(ctx)
		if err != nil {
			return fmt.Errorf("failed to load selection: %w", err)
		}
		if err := store.Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear selection: %w", err)
		}
		fmt.Printf("Cleared %d selected projects.\n", set.Len())
		return nil
	},
}

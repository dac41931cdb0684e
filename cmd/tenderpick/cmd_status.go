package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rafael/tender-picker/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the persisted selection and session details",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := config.Load()

		store, _ := openStore(ctx, cfg)
		set, err := store.Load(ctx)
		if err != nil {
			return fmt.Errorf("failed to load selection: %w", err)
		}

		if set.Len() == 0 {
			fmt.Println("No projects selected.")
		} else {
			fmt.Printf("%d projects selected:\n", set.Len())
			for _, id := range set.IDs() {
				fmt.Printf("  %s\n", id)
			}
		}

		sess, err := store.LoadSession(ctx)
		if err == nil && sess != nil {
			fmt.Printf("Session %s, last updated %s\n", sess.SessionID, sess.LastUpdated.Format("2006-01-02 15:04:05"))
			if sess.OriginURL != "" {
				fmt.Printf("Origin: %s\n", sess.OriginURL)
			}
		}
		return nil
	},
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rafael/tender-picker/internal/config"
	"github.com/rafael/tender-picker/internal/relay"
)

// submitCmd ships the persisted selection without re-scanning a page,
// for when the ids were gathered in an earlier pick session.
var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit the currently stored selection to the scraping backend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := config.Load()

		store, tokens := openStore(ctx, cfg)
		set, err := store.Load(ctx)
		if err != nil {
			return fmt.Errorf("failed to load selection: %w", err)
		}
		if set.Len() == 0 {
			return relay.ErrEmptySelection
		}

		origin := ""
		if sess, err := store.LoadSession(ctx); err == nil && sess != nil {
			origin = sess.OriginURL
		}

		sub := relay.NewSubmitter(cfg.BackendURL, tokens)
		attachJournal(ctx, cfg, sub, store)

		result, err := sub.Submit(ctx, set.IDs(), origin)
		if err != nil {
			return err
		}
		if result.Outcome != relay.OutcomeFailure {
			if err := store.Clear(ctx); err != nil {
				fmt.Printf("warning: selection clear failed: %v\n", err)
			}
		}
		printResult(result)
		return nil
	},
}

func printResult(result relay.SubmissionResult) {
	switch result.Outcome {
	case relay.OutcomeSuccess:
		fmt.Printf("Submitted %d projects for scraping.\n", result.Processed)
	case relay.OutcomePartialSuccess:
		fmt.Printf("Submitted with issues: %d processed, %d failed.\n", result.Processed, result.Failed)
	default:
		fmt.Printf("Submission failed: %s\n", result.Message)
	}
	if result.Message != "" && result.Outcome != relay.OutcomeFailure {
		fmt.Println(result.Message)
	}
}

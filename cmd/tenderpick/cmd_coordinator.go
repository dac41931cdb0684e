package main

import (
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rafael/tender-picker/internal/config"
	"github.com/rafael/tender-picker/internal/relay"
)

// coordinatorCmd runs the long-lived relay process: it keeps a watched
// scanner registered per tracked URL and exposes the HTTP surface other
// processes talk to.
var coordinatorCmd = &cobra.Command{
	Use:   "coordinator [url...]",
	Short: "Run the relay coordinator, watching the given listing pages",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg := config.Load()
		coord := relay.NewCoordinator()

		var sub *relay.Submitter
		for i, pageURL := range args {
			s, builtSub, err := buildScanner(ctx, cfg, pageURL, true)
			if err != nil {
				return fmt.Errorf("failed to start scanner for %s: %w", pageURL, err)
			}
			defer s.Teardown()

			tabID := fmt.Sprintf("tab-%d", i+1)
			coord.Register(tabID, s)
			log.Printf("[coordinator] watching %s as %s", pageURL, tabID)
			sub = builtSub
		}
		if sub == nil {
			store, tokens := openStore(ctx, cfg)
			sub = relay.NewSubmitter(cfg.BackendURL, tokens)
			attachJournal(ctx, cfg, sub, store)
		}

		srv := relay.NewServer(coord, sub)
		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start(cfg.RelayListen) }()

		log.Printf("[coordinator] listening on :%s", cfg.RelayListen)
		select {
		case <-ctx.Done():
			log.Printf("[coordinator] shutting down")
			return nil
		case err := <-errCh:
			return err
		}
	},
}

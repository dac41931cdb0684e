package main

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rafael/tender-picker/internal/config"
	"github.com/rafael/tender-picker/internal/fetch"
	"github.com/rafael/tender-picker/internal/journal"
	"github.com/rafael/tender-picker/internal/relay"
	"github.com/rafael/tender-picker/internal/scan"
	"github.com/rafael/tender-picker/internal/scanner"
	"github.com/rafael/tender-picker/internal/selection"
)

var allowLocal bool

func init() {
	rootCmd.PersistentFlags().BoolVar(&allowLocal, "allow-local", false,
		"allow fetching pages from private/loopback addresses (development)")
}

// openStore connects the durable selection store, degrading to memory
// when Redis is unreachable so selection still works for the session.
func openStore(ctx context.Context, cfg config.Config) (selection.Store, selection.TokenStore) {
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	rs := selection.NewRedisStore(client)

	probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rs.Ping(probeCtx); err != nil {
		log.Printf("[tenderpick] redis unreachable at %s, selection will not survive restarts: %v", cfg.RedisAddr, err)
	}

	// Token reads go straight to Redis; failures there surface as an
	// unauthenticated submit, which is the honest answer.
	return selection.NewFallback(rs), rs
}

func newFetcher() fetch.Fetcher {
	if allowLocal {
		return fetch.NewLocalFetcher()
	}
	return fetch.NewHTTPFetcher()
}

// buildScanner assembles a page scanner for the given URL using the
// site profile registry.
func buildScanner(ctx context.Context, cfg config.Config, pageURL string, withWatcher bool) (*scanner.Scanner, *relay.Submitter, error) {
	sites, err := config.LoadSites("sites.yaml")
	if err != nil {
		return nil, nil, err
	}
	profile := sites.ProfileFor(pageURL)

	store, tokens := openStore(ctx, cfg)
	if cfg.AuthToken != "" {
		if err := tokens.SaveToken(ctx, cfg.AuthToken); err != nil {
			log.Printf("[tenderpick] failed to persist auth token: %v", err)
		}
	}

	sub := relay.NewSubmitter(cfg.BackendURL, tokens)
	attachJournal(ctx, cfg, sub, store)

	poll := time.Duration(0)
	if withWatcher {
		poll = time.Duration(profile.PollMS) * time.Millisecond
	}

	s := scanner.New(scanner.Config{
		URL:          pageURL,
		Detector:     scan.NewDetector(profile.Selectors.ProjectID),
		Store:        store,
		Fetcher:      newFetcher(),
		Submitter:    sub,
		PollInterval: poll,
	})
	if err := s.Init(ctx); err != nil {
		return nil, nil, err
	}
	return s, sub, nil
}

// attachJournal wires the Postgres audit trail when DATABASE_URL is set.
func attachJournal(ctx context.Context, cfg config.Config, sub *relay.Submitter, store selection.Store) {
	if cfg.DatabaseURL == "" {
		return
	}
	pool, err := journal.Connect(ctx)
	if err != nil {
		log.Printf("[tenderpick] journal disabled: %v", err)
		return
	}
	if err := journal.ApplyMigrations(ctx, pool); err != nil {
		log.Printf("[tenderpick] journal migration failed, disabled: %v", err)
		pool.Close()
		return
	}
	sub.WithJournal(journal.NewRecorder(pool), func(ctx context.Context) string {
		sess, err := store.LoadSession(ctx)
		if err != nil || sess == nil {
			return ""
		}
		return sess.SessionID
	})
}

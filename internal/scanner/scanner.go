// Package scanner is the page-side agent: it owns the current page
// snapshot, detects project entries, mirrors the selection set for
// rendering, and keeps the durable selection store updated on every
// mutation. The store is the single source of truth; the mirror is
// re-read from it on every rescan, never pushed over it.
package scanner

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/rafael/tender-picker/internal/fetch"
	"github.com/rafael/tender-picker/internal/relay"
	"github.com/rafael/tender-picker/internal/scan"
	"github.com/rafael/tender-picker/internal/selection"
	"github.com/rafael/tender-picker/internal/watch"
)

// Submitter is the coordinator-side submission entry point.
type Submitter interface {
	Submit(ctx context.Context, ids []string, originURL string) (relay.SubmissionResult, error)
}

// Config wires a Scanner's collaborators explicitly; there is no ambient
// package-level state.
type Config struct {
	URL       string
	Detector  *scan.Detector
	Store     selection.Store
	Fetcher   fetch.Fetcher
	Submitter Submitter

	// PollInterval enables the page watcher; zero disables it (tests
	// drive Rescan directly).
	PollInterval time.Duration
}

type Scanner struct {
	cfg Config

	mu      sync.Mutex
	doc     *goquery.Document
	entries []scan.ProjectEntry
	mirror  *selection.Set
	session *selection.Session
	overlay bool

	watcher   *watch.Watcher
	watchDone chan struct{}
}

func New(cfg Config) *Scanner {
	return &Scanner{
		cfg:    cfg,
		mirror: selection.NewSet(),
	}
}

// Init loads persisted state, takes the first page snapshot and, when
// configured, subscribes to page changes. Always pair with Teardown.
func (s *Scanner) Init(ctx context.Context) error {
	set, err := s.cfg.Store.Load(ctx)
	if err != nil {
		log.Printf("[scanner] initial selection load failed, starting empty: %v", err)
		set = selection.NewSet()
	}

	sess, err := s.cfg.Store.LoadSession(ctx)
	if err != nil {
		log.Printf("[scanner] session load failed: %v", err)
	}
	if sess == nil {
		sess = selection.NewSession(s.cfg.URL)
		if err := s.cfg.Store.SaveSession(ctx, sess); err != nil {
			log.Printf("[scanner] session save failed: %v", err)
		}
	}

	s.mu.Lock()
	s.mirror = set
	s.session = sess
	s.mu.Unlock()

	s.refresh(ctx)

	if s.cfg.PollInterval > 0 && s.cfg.Fetcher != nil {
		s.watcher = watch.NewWatcher(s.cfg.Fetcher, s.cfg.URL, s.cfg.PollInterval)
		s.watcher.Start(ctx)
		s.watchDone = make(chan struct{})
		go func() {
			defer close(s.watchDone)
			for range s.watcher.Changes() {
				log.Printf("[scanner] page content changed, rescanning")
				s.Rescan(ctx)
			}
		}()
	}

	return nil
}

// Teardown releases the watcher subscription and drops the snapshot.
// Safe to call more than once.
func (s *Scanner) Teardown() {
	if s.watcher != nil {
		s.watcher.Stop()
		<-s.watchDone
	}

	s.mu.Lock()
	s.doc = nil
	s.entries = nil
	s.overlay = false
	s.mu.Unlock()
}

// refresh takes a fresh page snapshot and re-detects entries. Fetch and
// parse failures degrade to zero entries; they are never fatal.
func (s *Scanner) refresh(ctx context.Context) {
	var doc *goquery.Document

	if s.cfg.Fetcher != nil {
		page, err := s.cfg.Fetcher.Fetch(ctx, s.cfg.URL)
		if err != nil {
			log.Printf("[scanner] fetch failed for %s: %v", s.cfg.URL, err)
		} else {
			doc, err = goquery.NewDocumentFromReader(page.Body)
			page.Body.Close()
			if err != nil {
				log.Printf("[scanner] parse failed for %s: %v", s.cfg.URL, err)
				doc = nil
			}
		}
	}

	entries := s.cfg.Detector.Scan(doc)

	s.mu.Lock()
	s.doc = doc
	s.entries = entries
	s.reindexLocked()
	s.mu.Unlock()
}

// SetSnapshot installs an already-parsed document, for callers that fetch
// on their own (and for tests).
func (s *Scanner) SetSnapshot(doc *goquery.Document) {
	entries := s.cfg.Detector.Scan(doc)
	s.mu.Lock()
	s.doc = doc
	s.entries = entries
	s.reindexLocked()
	s.mu.Unlock()
}

func (s *Scanner) reindexLocked() {
	for i := range s.entries {
		s.entries[i].Index = i
	}
}

// Rescan re-detects entries and reconciles the mirror with the store.
// The selection set survives page-content swaps untouched; a stale page
// instance that saved concurrently wins over our in-memory copy.
func (s *Scanner) Rescan(ctx context.Context) {
	s.refresh(ctx)

	set, err := s.cfg.Store.Load(ctx)
	if err != nil {
		log.Printf("[scanner] selection reload failed, keeping mirror: %v", err)
		return
	}

	s.mu.Lock()
	s.mirror = set
	s.mu.Unlock()
}

// Entries returns the currently detected entries in page order.
func (s *Scanner) Entries() []scan.ProjectEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]scan.ProjectEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Selection returns the mirrored selection in deterministic order.
func (s *Scanner) Selection() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mirror.IDs()
}

func (s *Scanner) Selected(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mirror.Has(id)
}

// Toggle flips membership of id and persists the full set immediately.
// Reports whether the id is selected afterwards.
func (s *Scanner) Toggle(ctx context.Context, id string) bool {
	set := s.loadForMutation(ctx)
	selected := set.Toggle(id)
	s.persist(ctx, set)
	return selected
}

// SelectAll adds every currently detected entry, persisting once.
func (s *Scanner) SelectAll(ctx context.Context) {
	set := s.loadForMutation(ctx)
	for _, e := range s.Entries() {
		set.Add(e.ID)
	}
	s.persist(ctx, set)
}

// ClearAll removes every currently detected entry, persisting once.
// Selections made on other pages stay untouched.
func (s *Scanner) ClearAll(ctx context.Context) {
	set := s.loadForMutation(ctx)
	for _, e := range s.Entries() {
		set.Remove(e.ID)
	}
	s.persist(ctx, set)
}

// ConfirmAndSubmit reads the full persisted set, submits it through the
// coordinator and clears the store once the ids are handed off. A
// classified failure keeps the selection so the user can re-trigger.
func (s *Scanner) ConfirmAndSubmit(ctx context.Context) (relay.SubmissionResult, error) {
	set := s.loadForMutation(ctx)
	if set.Len() == 0 {
		return relay.SubmissionResult{}, relay.ErrEmptySelection
	}

	result, err := s.cfg.Submitter.Submit(ctx, set.IDs(), s.cfg.URL)
	if err != nil {
		return relay.SubmissionResult{}, err
	}
	if result.Outcome == relay.OutcomeFailure {
		return result, nil
	}

	if err := s.cfg.Store.Clear(ctx); err != nil {
		log.Printf("[scanner] clear after submit failed: %v", err)
	}

	s.mu.Lock()
	s.mirror = selection.NewSet()
	s.session = nil
	s.overlay = false
	s.mu.Unlock()

	return result, nil
}

// loadForMutation re-reads the store immediately before a
// mutate-and-save, shrinking the window for lost updates between
// contexts. A store failure falls back to the mirror.
func (s *Scanner) loadForMutation(ctx context.Context) *selection.Set {
	set, err := s.cfg.Store.Load(ctx)
	if err != nil {
		log.Printf("[scanner] load before mutation failed, using mirror: %v", err)
		s.mu.Lock()
		set = s.mirror.Clone()
		s.mu.Unlock()
	}
	return set
}

func (s *Scanner) persist(ctx context.Context, set *selection.Set) {
	if err := s.cfg.Store.Save(ctx, set); err != nil {
		log.Printf("[scanner] selection save failed: %v", err)
	}

	s.mu.Lock()
	s.mirror = set.Clone()
	sess := s.session
	s.mu.Unlock()

	if sess != nil {
		sess.SelectedIDs = set.IDs()
		sess.LastUpdated = time.Now()
		if err := s.cfg.Store.SaveSession(ctx, sess); err != nil {
			log.Printf("[scanner] session save failed: %v", err)
		}
	}
}

// Handle implements relay.Handler, answering the coordinator's envelope
// actions. Errors are converted before crossing the boundary.
func (s *Scanner) Handle(ctx context.Context, req relay.Request) relay.Response {
	switch req.Action {
	case relay.ActionDetect:
		entries := s.Entries()
		if len(entries) == 0 {
			s.Rescan(ctx)
			entries = s.Entries()
		}
		resp := relay.OK()
		resp.Projects = entries
		return resp

	case relay.ActionShowOverlay:
		s.ShowOverlay()
		return relay.OK()

	case relay.ActionHideOverlay:
		s.HideOverlay()
		return relay.OK()

	case relay.ActionGetSelection:
		resp := relay.OK()
		resp.SelectedIDs = s.Selection()
		return resp

	case relay.ActionCheckPopupOpen:
		resp := relay.OK()
		_, resp.Open = s.detailID()
		return resp

	case relay.ActionGetPopupProjectID:
		id, open := s.detailID()
		if !open {
			return relay.Fail(fmt.Errorf("no detail view open"))
		}
		resp := relay.OK()
		resp.ProjectID = id
		return resp

	default:
		return relay.Fail(fmt.Errorf("unsupported action %q", req.Action))
	}
}

func (s *Scanner) detailID() (string, bool) {
	s.mu.Lock()
	doc := s.doc
	s.mu.Unlock()
	return s.cfg.Detector.ScanDetail(doc)
}

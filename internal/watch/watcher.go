package watch

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/rafael/tender-picker/internal/fetch"
)

// DefaultInterval is deliberately coarse; the tracked site swaps content
// on navigation, not continuously.
const DefaultInterval = 750 * time.Millisecond

// Watcher polls a page and signals when its structure changes, standing in
// for DOM mutation observation. Acquire with Start, release with Stop;
// signals after Stop are dropped.
type Watcher struct {
	fetcher  fetch.Fetcher
	url      string
	interval time.Duration

	changes  chan string
	cancel   context.CancelFunc
	stopOnce sync.Once
	done     chan struct{}
}

func NewWatcher(fetcher fetch.Fetcher, url string, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Watcher{
		fetcher:  fetcher,
		url:      url,
		interval: interval,
		changes:  make(chan string, 1),
		done:     make(chan struct{}),
	}
}

// Changes delivers the structural hash of each new page version. The
// channel is buffered by one; a slow subscriber coalesces bursts instead
// of backing up the poll loop.
func (w *Watcher) Changes() <-chan string {
	return w.changes
}

// Start begins polling. The first successful fetch establishes the
// baseline and does not signal.
func (w *Watcher) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)

	go func() {
		// Sole sender; closing here releases subscribers ranging over
		// Changes once the loop exits.
		defer close(w.done)
		defer close(w.changes)

		var lastHash string
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			hash, err := w.snapshotHash(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Printf("[watch] poll failed for %s: %v", w.url, err)
			} else if lastHash == "" {
				lastHash = hash
			} else if hash != lastHash {
				lastHash = hash
				select {
				case w.changes <- hash:
				default:
				}
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop is idempotent and safe to call from any goroutine. It returns
// once the poll loop has exited and the changes channel is closed.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		if w.cancel == nil {
			// Never started; release subscribers directly.
			close(w.changes)
			close(w.done)
			return
		}
		w.cancel()
		<-w.done
	})
}

func (w *Watcher) snapshotHash(ctx context.Context) (string, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, w.interval*4)
	defer cancel()

	page, err := w.fetcher.Fetch(fetchCtx, w.url)
	if err != nil {
		return "", err
	}
	defer page.Body.Close()

	return StructureHash(page.Body)
}

// StructureHash fingerprints the page's element structure: tag names,
// ids, classes and bucketed text lengths. Volatile text (counters,
// relative timestamps) only changes the hash when it crosses a length
// bucket, which keeps idle pages stable.
func StructureHash(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to parse page: %w", err)
	}

	h := sha1.New()
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			io.WriteString(h, n.Data)
			for _, attr := range n.Attr {
				if attr.Key == "id" || attr.Key == "class" || attr.Key == "data-project-id" {
					io.WriteString(h, attr.Key)
					io.WriteString(h, attr.Val)
				}
			}
		}
		if n.Type == html.TextNode {
			fmt.Fprintf(h, "t%d", len(n.Data)/16)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, root := range doc.Nodes {
		walk(root)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

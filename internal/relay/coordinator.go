package relay

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout bounds every cross-context wait.
const DefaultTimeout = 3 * time.Second

// Handler is a scanner instance's message endpoint.
type Handler interface {
	Handle(ctx context.Context, req Request) Response
}

type call struct {
	req   Request
	reply chan Response
}

// inbox serializes requests to one handler: a single goroutine drains the
// channel, so handlers see messages one at a time in arrival order.
type inbox struct {
	calls chan call
	quit  chan struct{}
}

func newInbox(h Handler) *inbox {
	in := &inbox{
		calls: make(chan call, 16),
		quit:  make(chan struct{}),
	}
	go func() {
		for {
			select {
			case c := <-in.calls:
				c.reply <- h.Handle(context.Background(), c.req)
			case <-in.quit:
				return
			}
		}
	}()
	return in
}

// Coordinator routes envelopes to scanner inboxes and answers stash
// actions itself.
type Coordinator struct {
	mu      sync.RWMutex
	inboxes map[string]*inbox
	focused string
	timeout time.Duration

	stash *Stash
}

func NewCoordinator() *Coordinator {
	return &Coordinator{
		inboxes: make(map[string]*inbox),
		timeout: DefaultTimeout,
		stash:   NewStash(),
	}
}

// SetTimeout overrides the bounded wait; mainly for tests.
func (c *Coordinator) SetTimeout(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeout = d
}

// Register attaches a scanner for a tab and focuses it. Re-registering a
// tab replaces the previous inbox (the page reloaded).
func (c *Coordinator) Register(tabID string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.inboxes[tabID]; ok {
		close(old.quit)
	}
	c.inboxes[tabID] = newInbox(h)
	c.focused = tabID
	log.Printf("[relay] scanner registered for tab %s", tabID)
}

// Unregister detaches a scanner (tab closed or navigated away).
func (c *Coordinator) Unregister(tabID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if in, ok := c.inboxes[tabID]; ok {
		close(in.quit)
		delete(c.inboxes, tabID)
	}
	if c.focused == tabID {
		c.focused = ""
	}
}

// Focus marks the active tab targeted by requests without a TabID.
func (c *Coordinator) Focus(tabID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.inboxes[tabID]; ok {
		c.focused = tabID
	}
}

// Stash exposes the transient store for in-process callers.
func (c *Coordinator) Stash() *Stash {
	return c.stash
}

// Relay forwards a request to the target scanner and waits for its
// answer, bounded by the coordinator timeout and the caller's context.
// Stash actions are answered locally.
func (c *Coordinator) Relay(ctx context.Context, req Request) (Response, error) {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	switch req.Action {
	case ActionStoreIDs:
		c.stash.StoreIDs(req.IDs)
		return OK(), nil
	case ActionGetStoredIDs:
		resp := OK()
		resp.SelectedIDs = c.stash.StoredIDs()
		return resp, nil
	case ActionDetect, ActionShowOverlay, ActionHideOverlay,
		ActionGetSelection, ActionCheckPopupOpen, ActionGetPopupProjectID:
		// forwarded below
	default:
		return Response{}, unknownAction(req.Action)
	}

	c.mu.RLock()
	tabID := req.TabID
	if tabID == "" {
		tabID = c.focused
	}
	in, ok := c.inboxes[tabID]
	timeout := c.timeout
	c.mu.RUnlock()

	if !ok {
		// The detail-view id survives the scanner briefly: a popup opened
		// just before navigation can still be answered from the stash.
		if req.Action == ActionGetPopupProjectID {
			if id, found := c.stash.PopupProjectID(); found {
				resp := OK()
				resp.ProjectID = id
				return resp, nil
			}
		}
		return Response{}, ErrRelayUnreachable
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cl := call{req: req, reply: make(chan Response, 1)}
	select {
	case in.calls <- cl:
	case <-in.quit:
		return Response{}, ErrRelayUnreachable
	case <-ctx.Done():
		return Response{}, ErrRelayTimeout
	}

	select {
	case resp := <-cl.reply:
		if req.Action == ActionGetPopupProjectID && resp.Success {
			c.stash.SetPopupProjectID(resp.ProjectID)
		}
		return resp, nil
	case <-ctx.Done():
		// The response, if it ever arrives, is dropped into the buffered
		// reply channel and garbage collected; the late sender never blocks.
		return Response{}, ErrRelayTimeout
	}
}

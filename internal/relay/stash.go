package relay

import (
	"sync"
	"time"
)

const stashTTL = 5 * time.Minute

type stashEntry struct {
	ids       []string
	projectID string
	storedAt  time.Time
}

// Stash is the coordinator's transient in-memory store: pending id
// batches handed over between contexts, plus the current detail-view
// project id. Entries expire after a few minutes; nothing here is
// durable by design — the selection store is.
type Stash struct {
	mu  sync.Mutex
	ttl time.Duration

	idBatch *stashEntry
	popupID *stashEntry

	now func() time.Time
}

func NewStash() *Stash {
	return &Stash{ttl: stashTTL, now: time.Now}
}

func (s *Stash) StoreIDs(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]string, len(ids))
	copy(cp, ids)
	s.idBatch = &stashEntry{ids: cp, storedAt: s.now()}
}

// StoredIDs returns the stashed batch, or nil if none was stored or it
// expired.
func (s *Stash) StoredIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.idBatch == nil || s.now().Sub(s.idBatch.storedAt) > s.ttl {
		s.idBatch = nil
		return nil
	}
	cp := make([]string, len(s.idBatch.ids))
	copy(cp, s.idBatch.ids)
	return cp
}

func (s *Stash) SetPopupProjectID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		s.popupID = nil
		return
	}
	s.popupID = &stashEntry{projectID: id, storedAt: s.now()}
}

func (s *Stash) PopupProjectID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.popupID == nil || s.now().Sub(s.popupID.storedAt) > s.ttl {
		s.popupID = nil
		return "", false
	}
	return s.popupID.projectID, true
}

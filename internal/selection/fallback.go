package selection

import (
	"context"
	"log"
	"sync"
)

// Fallback wraps a durable Store and degrades to an in-memory mirror for
// the rest of the session when the durable layer fails. Selection keeps
// working, it just won't survive a full restart. Once degraded the
// wrapper never flips back, so a flaky backend cannot split state
// between the two layers.
type Fallback struct {
	primary Store
	memory  *MemoryStore

	mu       sync.Mutex
	degraded bool
}

func NewFallback(primary Store) *Fallback {
	return &Fallback{
		primary: primary,
		memory:  NewMemoryStore(),
	}
}

// Degraded reports whether the wrapper has switched to memory-only mode.
func (f *Fallback) Degraded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.degraded
}

func (f *Fallback) degrade(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.degraded {
		return
	}
	f.degraded = true
	log.Printf("[selection] store unavailable during %s, falling back to in-memory for this session: %v", op, err)
}

func (f *Fallback) Load(ctx context.Context) (*Set, error) {
	if !f.Degraded() {
		set, err := f.primary.Load(ctx)
		if err == nil {
			return set, nil
		}
		f.degrade("load", err)
	}
	return f.memory.Load(ctx)
}

func (f *Fallback) Save(ctx context.Context, set *Set) error {
	if !f.Degraded() {
		if err := f.primary.Save(ctx, set); err == nil {
			return nil
		} else {
			f.degrade("save", err)
		}
	}
	return f.memory.Save(ctx, set)
}

func (f *Fallback) Clear(ctx context.Context) error {
	if !f.Degraded() {
		if err := f.primary.Clear(ctx); err == nil {
			return f.memory.Clear(ctx)
		} else {
			f.degrade("clear", err)
		}
	}
	return f.memory.Clear(ctx)
}

func (f *Fallback) LoadSession(ctx context.Context) (*Session, error) {
	if !f.Degraded() {
		sess, err := f.primary.LoadSession(ctx)
		if err == nil {
			return sess, nil
		}
		f.degrade("load session", err)
	}
	return f.memory.LoadSession(ctx)
}

func (f *Fallback) SaveSession(ctx context.Context, sess *Session) error {
	if !f.Degraded() {
		if err := f.primary.SaveSession(ctx, sess); err == nil {
			return nil
		} else {
			f.degrade("save session", err)
		}
	}
	return f.memory.SaveSession(ctx, sess)
}

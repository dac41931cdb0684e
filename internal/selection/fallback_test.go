package selection

import (
	"context"
	"errors"
	"testing"
)

// brokenStore fails every operation, standing in for an unreachable Redis.
type brokenStore struct{}

var errDown = errors.New("connection refused")

func (brokenStore) Load(ctx context.Context) (*Set, error)               { return nil, errDown }
func (brokenStore) Save(ctx context.Context, set *Set) error             { return errDown }
func (brokenStore) Clear(ctx context.Context) error                      { return errDown }
func (brokenStore) LoadSession(ctx context.Context) (*Session, error)    { return nil, errDown }
func (brokenStore) SaveSession(ctx context.Context, sess *Session) error { return errDown }

func TestFallbackDegradesAndKeepsWorking(t *testing.T) {
	f := NewFallback(brokenStore{})
	ctx := context.Background()

	if err := f.Save(ctx, FromIDs([]string{"100", "200"})); err != nil {
		t.Fatalf("save should succeed via memory fallback: %v", err)
	}
	if !f.Degraded() {
		t.Fatal("expected fallback to be degraded after primary failure")
	}

	set, err := f.Load(ctx)
	if err != nil {
		t.Fatalf("load should succeed via memory fallback: %v", err)
	}
	if set.Len() != 2 || !set.Has("100") || !set.Has("200") {
		t.Errorf("memory fallback lost state: %v", set.IDs())
	}
}

func TestFallbackStaysOnPrimaryWhenHealthy(t *testing.T) {
	primary := NewMemoryStore()
	f := NewFallback(primary)
	ctx := context.Background()

	if err := f.Save(ctx, FromIDs([]string{"42"})); err != nil {
		t.Fatal(err)
	}
	if f.Degraded() {
		t.Fatal("healthy primary must not trigger degradation")
	}

	set, err := primary.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !set.Has("42") {
		t.Error("write did not reach primary store")
	}
}

func TestFallbackDoesNotFlipBack(t *testing.T) {
	f := NewFallback(brokenStore{})
	ctx := context.Background()

	if _, err := f.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if err := f.Clear(ctx); err != nil {
		t.Fatalf("clear should succeed in degraded mode: %v", err)
	}
	if !f.Degraded() {
		t.Error("degraded mode must be sticky for the session")
	}
}

package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, time.Hour), mr
}

func TestBindAndResolve(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	id := uuid.New()

	if err := store.Bind(ctx, "sess-1", id); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	got, err := store.Resolve(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != id {
		t.Fatalf("Resolve = %s, want %s", got, id)
	}
}

func TestResolveUnknownSession(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Resolve(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestResolveRefreshesTTL(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()
	id := uuid.New()

	if err := store.Bind(ctx, "sess-1", id); err != nil {
		t.Fatal(err)
	}

	// Let most of the TTL pass, then touch the session.
	mr.FastForward(55 * time.Minute)
	if _, err := store.Resolve(ctx, "sess-1"); err != nil {
		t.Fatalf("Resolve after fast forward: %v", err)
	}

	// Without the refresh this would be past the original expiry.
	mr.FastForward(30 * time.Minute)
	if _, err := store.Resolve(ctx, "sess-1"); err != nil {
		t.Fatalf("session expired despite refresh: %v", err)
	}
}

func TestDrop(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.Bind(ctx, "sess-1", uuid.New()); err != nil {
		t.Fatal(err)
	}
	if err := store.Drop(ctx, "sess-1"); err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if _, err := store.Resolve(ctx, "sess-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound after drop", err)
	}
}

package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Prospect-Engine/authsync/storage"
)

type recordingNotifier struct {
	mu      sync.Mutex
	changes []bool
	clears  int
}

func (n *recordingNotifier) NotifyAuthChange(_ context.Context, authenticated bool, _ *Profile) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, authenticated)
}

func (n *recordingNotifier) ClearAuthState(context.Context) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.clears++
}

func testProfile() Profile {
	return Profile{
		ID:          "u1",
		Name:        "Alice",
		Email:       "alice@example.com",
		Role:        "admin",
		WorkspaceID: "ws1",
	}
}

func newTestStore(opts Options) *Store {
	if opts.Durable == nil {
		opts.Durable = storage.NewMemory()
	}
	if opts.Credentials == nil {
		opts.Credentials = NewStaticSource("")
	}
	return NewStore(opts)
}

func TestAuthenticatedRequiresBothParts(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		credential string
		hasProfile bool
		want       bool
	}{
		{name: "neither", credential: "", hasProfile: false, want: false},
		{name: "credential only", credential: "tok", hasProfile: false, want: false},
		{name: "profile only", credential: "", hasProfile: true, want: false},
		{name: "both", credential: "tok", hasProfile: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(Options{Credentials: NewStaticSource(tt.credential)})
			if tt.hasProfile {
				if err := store.StoreSession(ctx, testProfile(), false); err != nil {
					t.Fatalf("store session: %v", err)
				}
			}
			if got := store.IsAuthenticated(ctx); got != tt.want {
				t.Fatalf("IsAuthenticated = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetSessionTreatsCorruptProfileAsAbsent(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	store := newTestStore(Options{Durable: kv, Credentials: NewStaticSource("tok")})

	if err := kv.Set(ctx, KeyProfile, []byte("{not json")); err != nil {
		t.Fatalf("seed corrupt profile: %v", err)
	}

	sess := store.GetSession(ctx)
	if sess.Profile != nil {
		t.Fatalf("expected nil profile for corrupt record, got %+v", sess.Profile)
	}
	if sess.IsAuthenticated() {
		t.Fatal("corrupt profile must not count as authenticated")
	}
}

func TestRememberMeExpiryBoundary(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		age    time.Duration
		active bool
	}{
		{name: "29 days old", age: 29 * 24 * time.Hour, active: true},
		{name: "exactly 30 days", age: 30 * 24 * time.Hour, active: true},
		{name: "30 days + 1ms", age: 30*24*time.Hour + time.Millisecond, active: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := time.Now()
			clock := now
			kv := storage.NewMemory()
			store := newTestStore(Options{
				Durable:     kv,
				Credentials: NewStaticSource("tok"),
				Now:         func() time.Time { return clock },
			})

			if err := store.StoreSession(ctx, testProfile(), true); err != nil {
				t.Fatalf("store session: %v", err)
			}

			clock = now.Add(tt.age)
			if got := store.RememberMeActive(ctx); got != tt.active {
				t.Fatalf("RememberMeActive after %v = %v, want %v", tt.age, got, tt.active)
			}

			// An expired record self-clears on read.
			if !tt.active {
				if _, err := kv.Get(ctx, KeyRememberMe); !errors.Is(err, storage.ErrNotFound) {
					t.Fatalf("expected remember-me record cleared, got err=%v", err)
				}
			}
		})
	}
}

func TestStoreSessionWithoutRememberRemovesRecord(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	store := newTestStore(Options{Durable: kv, Credentials: NewStaticSource("tok")})

	if err := store.StoreSession(ctx, testProfile(), true); err != nil {
		t.Fatalf("store session: %v", err)
	}
	if err := store.StoreSession(ctx, testProfile(), false); err != nil {
		t.Fatalf("store session: %v", err)
	}

	if _, err := kv.Get(ctx, KeyRememberMe); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected remember-me record removed, got err=%v", err)
	}
}

func TestStoreSessionBroadcasts(t *testing.T) {
	ctx := context.Background()
	notifier := &recordingNotifier{}
	store := newTestStore(Options{Notifier: notifier, Credentials: NewStaticSource("tok")})

	if err := store.StoreSession(ctx, testProfile(), false); err != nil {
		t.Fatalf("store session: %v", err)
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.changes) != 1 || !notifier.changes[0] {
		t.Fatalf("expected one authenticated broadcast, got %v", notifier.changes)
	}
}

func TestClearSessionPreservesAllowList(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	scratch := storage.NewMemory()
	notifier := &recordingNotifier{}
	creds := NewStaticSource("tok")
	store := newTestStore(Options{
		Durable:     kv,
		Scratch:     scratch,
		Credentials: creds,
		Notifier:    notifier,
	})

	if err := store.StoreSession(ctx, testProfile(), true); err != nil {
		t.Fatalf("store session: %v", err)
	}
	if err := kv.Set(ctx, KeyTheme, []byte(`"dark"`)); err != nil {
		t.Fatalf("set theme: %v", err)
	}
	if err := kv.Set(ctx, "cache:deals", []byte("[]")); err != nil {
		t.Fatalf("set cache key: %v", err)
	}
	if err := scratch.Set(ctx, "draft:deal-42", []byte("wip")); err != nil {
		t.Fatalf("set scratch key: %v", err)
	}

	store.ClearSession(ctx)

	if _, err := kv.Get(ctx, KeyTheme); err != nil {
		t.Fatalf("theme must survive clear, got err=%v", err)
	}
	if _, err := kv.Get(ctx, KeyRememberMe); err != nil {
		t.Fatalf("valid remember-me must survive clear, got err=%v", err)
	}
	if _, err := kv.Get(ctx, KeyProfile); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("profile must not survive clear, got err=%v", err)
	}
	if _, err := kv.Get(ctx, "cache:deals"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("cache key must not survive clear, got err=%v", err)
	}
	if keys, _ := scratch.Keys(ctx); len(keys) != 0 {
		t.Fatalf("scratch store must be flushed, got %v", keys)
	}
	if _, ok := creds.Credential(ctx); ok {
		t.Fatal("credential must be cleared")
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if notifier.clears != 1 {
		t.Fatalf("expected one clear-and-notify, got %d", notifier.clears)
	}
}

func TestClearSessionDropsExpiredRememberMe(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	clock := now
	kv := storage.NewMemory()
	store := newTestStore(Options{
		Durable:     kv,
		Credentials: NewStaticSource("tok"),
		Now:         func() time.Time { return clock },
	})

	if err := store.StoreSession(ctx, testProfile(), true); err != nil {
		t.Fatalf("store session: %v", err)
	}

	clock = now.Add(31 * 24 * time.Hour)
	store.ClearSession(ctx)

	if _, err := kv.Get(ctx, KeyRememberMe); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expired remember-me must not survive clear, got err=%v", err)
	}
}

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Prospect-Engine/authsync/storage"
)

// Storage keys. KeyTheme is on the clear allow-list by default so a signed-out
// machine keeps its appearance preference.
const (
	KeyProfile    = "session:profile"
	KeyRememberMe = "session:remember_me"
	KeyTheme      = "pref:theme"
)

// DefaultRememberTTL is how long a remember-me record stays valid.
const DefaultRememberTTL = 30 * 24 * time.Hour

// ErrRefreshNotConfigured is returned by [Store.Refresh] when no refresh
// function was wired in.
var ErrRefreshNotConfigured = errors.New("session: refresh not configured")

// ChangeNotifier receives authentication-state transitions. It is
// implemented by the broadcast package; a nil notifier is a no-op.
type ChangeNotifier interface {
	NotifyAuthChange(ctx context.Context, authenticated bool, profile *Profile)
	ClearAuthState(ctx context.Context)
}

// RefreshFunc performs the network refresh call and returns the refreshed
// profile. The Store never calls it concurrently with itself.
type RefreshFunc func(ctx context.Context) (*Profile, error)

// Options configures a [Store]. Durable and Credentials are required;
// everything else has a usable default.
type Options struct {
	Durable     storage.Backend
	Scratch     storage.Backend
	Credentials CredentialSource
	Notifier    ChangeNotifier
	Refresh     RefreshFunc
	Logger      zerolog.Logger

	// RememberTTL overrides DefaultRememberTTL when positive.
	RememberTTL time.Duration

	// PreserveKeys are durable keys that survive ClearSession. KeyTheme is
	// always preserved regardless of this list.
	PreserveKeys []string

	// Now overrides the clock, for tests.
	Now func() time.Time

	// OnRefreshCoalesced fires once per caller that joined an already
	// in-flight refresh instead of starting its own.
	OnRefreshCoalesced func()
}

// Store owns session persistence and refresh coordination.
type Store struct {
	kv        storage.Backend
	scratch   storage.Backend
	creds     CredentialSource
	notifier  ChangeNotifier
	refreshFn RefreshFunc
	logger    zerolog.Logger
	now       func() time.Time

	rememberTTL time.Duration
	preserve    map[string]struct{}
	coalesced   func()

	mu       sync.Mutex
	inflight *refreshAttempt
}

// refreshAttempt is the shared pending result all concurrent refresh callers
// await. done is closed after profile and err are written.
type refreshAttempt struct {
	done    chan struct{}
	profile *Profile
	err     error
}

// NewStore creates a Store from opts.
func NewStore(opts Options) *Store {
	scratch := opts.Scratch
	if scratch == nil {
		scratch = storage.NewMemory()
	}
	rememberTTL := opts.RememberTTL
	if rememberTTL <= 0 {
		rememberTTL = DefaultRememberTTL
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	preserve := map[string]struct{}{KeyTheme: {}}
	for _, key := range opts.PreserveKeys {
		preserve[key] = struct{}{}
	}

	return &Store{
		kv:          opts.Durable,
		scratch:     scratch,
		creds:       opts.Credentials,
		notifier:    opts.Notifier,
		refreshFn:   opts.Refresh,
		logger:      opts.Logger,
		now:         now,
		rememberTTL: rememberTTL,
		preserve:    preserve,
		coalesced:   opts.OnRefreshCoalesced,
	}
}

// StoreSession persists the profile to durable storage and records or
// removes the remember-me flag. The credential itself is never written here;
// it arrives via the cookie the server set. Finishes by broadcasting an
// authenticated state change.
func (s *Store) StoreSession(ctx context.Context, profile Profile, rememberMe bool) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("session: encode profile: %w", err)
	}
	if err := s.kv.Set(ctx, KeyProfile, data); err != nil {
		return fmt.Errorf("session: store profile: %w", err)
	}

	if rememberMe {
		record, err := json.Marshal(rememberRecord{
			Enabled:   true,
			CreatedAt: s.now().UnixMilli(),
		})
		if err != nil {
			return fmt.Errorf("session: encode remember-me: %w", err)
		}
		if err := s.kv.Set(ctx, KeyRememberMe, record); err != nil {
			return fmt.Errorf("session: store remember-me: %w", err)
		}
	} else if err := s.kv.Delete(ctx, KeyRememberMe); err != nil {
		s.logger.Warn().Err(err).Msg("remove remember-me record")
	}

	if s.notifier != nil {
		s.notifier.NotifyAuthChange(ctx, true, &profile)
	}
	return nil
}

// GetSession returns the current session. It never fails: an unreadable
// credential or an unparsable profile is treated as absence.
func (s *Store) GetSession(ctx context.Context) Session {
	var sess Session
	if s.creds != nil {
		sess.Credential, _ = s.creds.Credential(ctx)
	}

	data, err := s.kv.Get(ctx, KeyProfile)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Debug().Err(err).Msg("read profile")
		}
		return sess
	}

	var profile Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		s.logger.Debug().Err(err).Msg("decode profile")
		return sess
	}
	sess.Profile = &profile
	return sess
}

// IsAuthenticated reports whether both the credential and the profile are
// currently present.
func (s *Store) IsAuthenticated(ctx context.Context) bool {
	return s.GetSession(ctx).IsAuthenticated()
}

// TokenExpired reports whether the current credential should be treated as
// expired. An absent or undecodable credential counts as expired.
func (s *Store) TokenExpired(ctx context.Context) bool {
	if s.creds == nil {
		return true
	}
	credential, ok := s.creds.Credential(ctx)
	if !ok {
		return true
	}
	return TokenExpired(credential, s.now())
}

// RememberMeActive reports whether a valid remember-me record exists. A
// record past its validity window self-clears on read.
func (s *Store) RememberMeActive(ctx context.Context) bool {
	data, err := s.kv.Get(ctx, KeyRememberMe)
	if err != nil {
		return false
	}

	var record rememberRecord
	if err := json.Unmarshal(data, &record); err != nil || !record.Enabled {
		return false
	}

	age := s.now().Sub(time.UnixMilli(record.CreatedAt))
	if age > s.rememberTTL {
		if err := s.kv.Delete(ctx, KeyRememberMe); err != nil {
			s.logger.Debug().Err(err).Msg("clear stale remember-me record")
		}
		return false
	}
	return true
}

// ClearSession removes all durable session keys except the allow-list (the
// theme preference, and the remember-me record while it is still within its
// validity window), flushes the session-scoped scratch store, and expires
// the credential best-effort. Every internal failure is logged and ignored;
// the call always completes and always finishes with the notifier's
// clear-and-notify step.
func (s *Store) ClearSession(ctx context.Context) {
	keepRemember := s.RememberMeActive(ctx)

	keys, err := s.kv.Keys(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("list durable keys for clear")
	} else {
		doomed := keys[:0]
		for _, key := range keys {
			if _, ok := s.preserve[key]; ok {
				continue
			}
			if keepRemember && key == KeyRememberMe {
				continue
			}
			doomed = append(doomed, key)
		}
		if err := s.kv.Delete(ctx, doomed...); err != nil {
			s.logger.Warn().Err(err).Msg("delete durable session keys")
		}
	}

	if err := s.scratch.Flush(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("flush scratch store")
	}

	if s.creds != nil {
		s.creds.Clear(ctx)
	}

	if s.notifier != nil {
		s.notifier.ClearAuthState(ctx)
	}
}

// Refresh performs the refresh call with single-flight discipline: when a
// refresh is already in flight, the caller awaits that attempt's outcome
// instead of issuing a second network call. The coordination state is reset
// when the attempt settles, success or failure.
func (s *Store) Refresh(ctx context.Context) (*Profile, error) {
	if s.refreshFn == nil {
		return nil, ErrRefreshNotConfigured
	}

	s.mu.Lock()
	if attempt := s.inflight; attempt != nil {
		s.mu.Unlock()
		if s.coalesced != nil {
			s.coalesced()
		}
		select {
		case <-attempt.done:
			return attempt.profile, attempt.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	attempt := &refreshAttempt{done: make(chan struct{})}
	s.inflight = attempt
	s.mu.Unlock()

	attempt.profile, attempt.err = s.refreshFn(ctx)

	s.mu.Lock()
	s.inflight = nil
	s.mu.Unlock()
	close(attempt.done)

	return attempt.profile, attempt.err
}

// ValidateSessionState reports whether a usable session exists. An expired
// credential triggers exactly one refresh; a failed refresh clears the
// session and returns false.
func (s *Store) ValidateSessionState(ctx context.Context) bool {
	sess := s.GetSession(ctx)
	if !sess.IsAuthenticated() {
		return false
	}
	if !TokenExpired(sess.Credential, s.now()) {
		return true
	}

	if _, err := s.Refresh(ctx); err != nil {
		s.logger.Debug().Err(err).Msg("refresh after expiry failed")
		s.ClearSession(ctx)
		return false
	}
	return true
}

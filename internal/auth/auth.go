// Package auth holds the signed-in user for the client.
package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/and161185/nutrito/internal/errs"
	"github.com/and161185/nutrito/internal/model"
	"github.com/and161185/nutrito/internal/remote"
	"go.uber.org/zap"
)

// AuthDomain is appended to bare usernames to form the auth identifier.
const AuthDomain = "nutrito.app"

// ToAuthIdentifier maps a username to the email-shaped identifier used by the backend.
func ToAuthIdentifier(username string) string {
	u := strings.TrimSpace(username)
	if strings.Contains(u, "@") {
		return u
	}
	return u + "@" + AuthDomain
}

// DisplayUsername strips the synthetic domain from an identifier.
func DisplayUsername(identifier string) string {
	return strings.TrimSuffix(identifier, "@"+AuthDomain)
}

// Provider is the remote auth surface used by Holder.
type Provider interface {
	GetSession(ctx context.Context) (*model.Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error)
	SignOut(ctx context.Context) error
	OnAuthStateChange(fn remote.AuthListener) (unsubscribe func())
}

// State is a snapshot of the holder.
type State struct {
	User    *model.AuthUser
	Loading bool
}

// Holder tracks the current user. It starts in the loading state.
type Holder struct {
	p   Provider
	log *zap.Logger

	mu      sync.Mutex
	user    *model.AuthUser
	loading bool
	subs    map[int]func(State)
	nextID  int
}

// NewHolder returns a holder. p may be nil for local-only mode.
func NewHolder(p Provider, log *zap.Logger) *Holder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Holder{p: p, log: log.Named("auth"), loading: true, subs: make(map[int]func(State))}
}

// InitSession resolves the stored session. Without a provider, or when the
// lookup fails, the user is cleared; loading always ends.
func (h *Holder) InitSession(ctx context.Context) error {
	if h.p == nil {
		h.set(nil, false)
		return nil
	}
	h.setLoading(true)

	s, err := h.p.GetSession(ctx)
	if err != nil {
		h.log.Warn("session lookup failed", zap.Error(err))
		h.set(nil, false)
		return fmt.Errorf("init session: %w", err)
	}
	if s == nil {
		h.set(nil, false)
		return nil
	}
	u := s.User
	h.set(&u, false)
	return nil
}

// SetUser replaces the current user.
func (h *Holder) SetUser(u *model.AuthUser) {
	h.mu.Lock()
	loading := h.loading
	h.mu.Unlock()
	h.set(u, loading)
}

// SetLoading sets the loading flag.
func (h *Holder) SetLoading(loading bool) {
	h.setLoading(loading)
}

// User returns the current user or nil.
func (h *Holder) User() *model.AuthUser {
	h.mu.Lock()
	defer h.mu.Unlock()
	return copyUser(h.user)
}

// Loading reports whether the initial session lookup is still running.
func (h *Holder) Loading() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loading
}

// SignIn signs in with a username (or email) and password.
func (h *Holder) SignIn(ctx context.Context, username, password string) (*model.AuthUser, error) {
	if h.p == nil {
		return nil, errs.ErrNotConfigured
	}
	s, err := h.p.SignInWithPassword(ctx, ToAuthIdentifier(username), password)
	if err != nil {
		return nil, err
	}
	u := s.User
	h.SetUser(&u)
	return copyUser(&u), nil
}

// SignOut ends the session remotely (when configured) and clears the user.
func (h *Holder) SignOut(ctx context.Context) error {
	var err error
	if h.p != nil {
		err = h.p.SignOut(ctx)
	}
	h.SetUser(nil)
	return err
}

// Subscribe registers fn for state changes.
func (h *Holder) Subscribe(fn func(State)) (unsubscribe func()) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}

// Watch mirrors provider auth events into the holder.
func (h *Holder) Watch() (stop func()) {
	if h.p == nil {
		return func() {}
	}
	return h.p.OnAuthStateChange(func(_ model.AuthEvent, s *model.Session) {
		if s == nil {
			h.SetUser(nil)
			return
		}
		u := s.User
		h.SetUser(&u)
	})
}

func (h *Holder) setLoading(loading bool) {
	h.mu.Lock()
	u := h.user
	h.mu.Unlock()
	h.set(u, loading)
}

func (h *Holder) set(u *model.AuthUser, loading bool) {
	h.mu.Lock()
	h.user, h.loading = copyUser(u), loading
	st := State{User: copyUser(h.user), Loading: h.loading}
	fns := make([]func(State), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}

func copyUser(u *model.AuthUser) *model.AuthUser {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/and161185/nutrito/internal/convert"
	"github.com/and161185/nutrito/internal/errs"
	"github.com/and161185/nutrito/internal/model"
	"go.uber.org/zap"
)

// AuthListener receives auth state transitions. s is nil on sign-out.
type AuthListener func(ev model.AuthEvent, s *model.Session)

// SignUp creates an account. It does not sign in.
func (c *Client) SignUp(ctx context.Context, email, password string) (model.AuthUser, error) {
	resp, err := roundTrip[convert.UserResponse](ctx, c.auth.SignUp, convert.Credentials{Email: email, Password: password})
	if err != nil {
		return model.AuthUser{}, fmt.Errorf("sign up: %w", err)
	}
	return resp.User, nil
}

// SignInWithPassword exchanges credentials for a session and stores it.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error) {
	s, err := roundTrip[model.Session](ctx, c.auth.SignInWithPassword, convert.Credentials{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	if err := c.tokens.Save(s); err != nil {
		return nil, err
	}
	c.log.Info("signed in", zap.String("user", s.User.ID))
	c.notify(model.AuthSignedIn, &s)
	return &s, nil
}

// GetSession returns the stored session after checking it with the server.
// It returns nil when there is no session or the server rejects it.
func (c *Client) GetSession(ctx context.Context) (*model.Session, error) {
	s, err := c.tokens.Load()
	if err != nil || s == nil {
		return nil, err
	}
	if s.Expired(c.now()) {
		return nil, c.tokens.Clear()
	}

	resp, err := roundTrip[convert.UserResponse](ctx, c.auth.GetUser, convert.Empty{})
	if errors.Is(err, errs.ErrUnauthorized) {
		c.log.Info("stored session rejected")
		return nil, c.tokens.Clear()
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	s.User = resp.User
	return s, nil
}

// SignOut forgets the session locally. Tokens are stateless, so no call is made.
func (c *Client) SignOut(context.Context) error {
	if err := c.tokens.Clear(); err != nil {
		return err
	}
	c.notify(model.AuthSignedOut, nil)
	return nil
}

// OnAuthStateChange registers fn and returns a function that removes it.
func (c *Client) OnAuthStateChange(fn AuthListener) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Client) notify(ev model.AuthEvent, s *model.Session) {
	c.mu.Lock()
	fns := make([]AuthListener, 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		var cp *model.Session
		if s != nil {
			v := *s
			cp = &v
		}
		fn(ev, cp)
	}
}

package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"welfare-advisor/internal/domain"
)

// Context is the explicit session handed to the chat controller. It is read
// from the Store once when created and written back through the same Store on
// sign-in, sign-out and profile updates.
type Context struct {
	store Store

	mu      sync.RWMutex
	userID  domain.UserID
	profile domain.Profile
}

// ProfileUpdate carries profile fields returned by the backend. Empty strings
// and a nil BaseTags mean "not provided".
type ProfileUpdate struct {
	UserName  string
	Residence string
	BaseTags  []string
}

func (u ProfileUpdate) empty() bool {
	return u.UserName == "" && u.Residence == "" && u.BaseTags == nil
}

// Load reads the stored session.
func Load(ctx context.Context, store Store) (*Context, error) {
	if store == nil {
		return nil, errors.New("session: store must not be nil")
	}
	id, err := store.LoadUserID(ctx)
	if err != nil {
		return nil, fmt.Errorf("session: load user id: %w", err)
	}
	profile, _, err := store.LoadProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("session: load profile: %w", err)
	}
	if profile.BaseTags == nil {
		profile.BaseTags = []string{}
	}
	return &Context{
		store:   store,
		userID:  domain.UserID(strings.TrimSpace(string(id))),
		profile: profile,
	}, nil
}

// UserID returns the signed-in user id, or "" when signed out.
func (c *Context) UserID() domain.UserID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// Authenticated reports whether a user id is present.
func (c *Context) Authenticated() bool {
	return c.UserID() != ""
}

// Profile returns a copy of the cached profile.
func (c *Context) Profile() domain.Profile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneProfile(c.profile)
}

// SignIn stores the user's id and profile.
func (c *Context) SignIn(ctx context.Context, u domain.User) error {
	if strings.TrimSpace(string(u.ID)) == "" {
		return errors.New("session: user id must not be empty")
	}
	p := u.Profile()
	if p.BaseTags == nil {
		p.BaseTags = []string{}
	}
	if err := c.store.SaveUserID(ctx, u.ID); err != nil {
		return fmt.Errorf("session: save user id: %w", err)
	}
	if err := c.store.SaveProfile(ctx, p); err != nil {
		return fmt.Errorf("session: save profile: %w", err)
	}

	c.mu.Lock()
	c.userID = u.ID
	c.profile = p
	c.mu.Unlock()
	return nil
}

// SignOut forgets the user.
func (c *Context) SignOut(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("session: sign out: %w", err)
	}
	c.mu.Lock()
	c.userID = ""
	c.profile = domain.Profile{BaseTags: []string{}}
	c.mu.Unlock()
	return nil
}

// MergeProfile applies the provided fields over the cached profile and
// persists the result. It returns the merged profile and whether anything was
// provided. The in-memory profile is updated even when persisting fails.
func (c *Context) MergeProfile(ctx context.Context, upd ProfileUpdate) (domain.Profile, bool, error) {
	if upd.empty() {
		return c.Profile(), false, nil
	}

	c.mu.Lock()
	next := cloneProfile(c.profile)
	if upd.UserName != "" {
		next.UserName = upd.UserName
	}
	if upd.Residence != "" {
		next.Residence = upd.Residence
	}
	if upd.BaseTags != nil {
		next.BaseTags = append([]string{}, upd.BaseTags...)
	}
	c.profile = next
	c.mu.Unlock()

	if err := c.store.SaveProfile(ctx, next); err != nil {
		return cloneProfile(next), true, fmt.Errorf("session: save profile: %w", err)
	}
	return cloneProfile(next), true, nil
}

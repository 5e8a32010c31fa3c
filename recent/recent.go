// Package recent tracks the accounts that recently signed in on this device:
// a bounded, deduplicated list ordered by recency, persisted across reloads
// so the login surface can offer one-tap account selection.
package recent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/satoshi-watanabe-0001/accountsync"
	"github.com/satoshi-watanabe-0001/accountsync/storage"
	"github.com/satoshi-watanabe-0001/accountsync/store"
)

// MaxAccounts is the list capacity. Adding beyond it silently drops the
// least recently used entry.
const MaxAccounts = 5

// DefaultName is the durable-storage key used when Options.Name is empty.
const DefaultName = "recent_accounts"

// Account is one remembered login identity.
type Account struct {
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	LastLoginAt time.Time `json:"last_login_at"`
}

type state struct {
	Accounts []Account `json:"accounts"`
}

type Options struct {
	Storage storage.Storage // required
	Name    string          // "" => DefaultName
	Logger  accountsync.Logger
	Now     func() time.Time
}

// List is the bounded recent-accounts list, backed by a persisted store.
type List struct {
	st  *store.Store[state]
	now func() time.Time
}

func New(ctx context.Context, opts Options) (*List, error) {
	if opts.Storage == nil {
		return nil, fmt.Errorf("recent: storage is required")
	}
	name := opts.Name
	if name == "" {
		name = DefaultName
	}
	st, err := store.New(ctx, store.Options[state]{
		Name:    name,
		Storage: opts.Storage,
		Logger:  opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &List{st: st, now: now}, nil
}

// Add records a login for email: any existing entry with the same email is
// removed first, the refreshed entry is prepended, and the list is truncated
// to MaxAccounts. Ordering is by recency alone.
func (l *List) Add(ctx context.Context, email string) {
	acct := Account{
		Email:       email,
		DisplayName: displayName(email),
		LastLoginAt: l.now(),
	}
	l.st.Update(ctx, func(s *state) {
		out := make([]Account, 0, len(s.Accounts)+1)
		out = append(out, acct)
		for _, a := range s.Accounts {
			if a.Email == email {
				continue
			}
			out = append(out, a)
		}
		if len(out) > MaxAccounts {
			out = out[:MaxAccounts]
		}
		s.Accounts = out
	})
}

// Remove drops the entry for email; absent emails are a no-op.
func (l *List) Remove(ctx context.Context, email string) {
	l.st.Update(ctx, func(s *state) {
		out := s.Accounts[:0]
		for _, a := range s.Accounts {
			if a.Email != email {
				out = append(out, a)
			}
		}
		s.Accounts = out
	})
}

// Clear empties the list.
func (l *List) Clear(ctx context.Context) {
	l.st.Update(ctx, func(s *state) {
		s.Accounts = nil
	})
}

// Accounts returns the list, most recent first.
func (l *List) Accounts() []Account {
	s := l.st.Get()
	out := make([]Account, len(s.Accounts))
	copy(out, s.Accounts)
	return out
}

// displayName derives the local part of the email address; an address
// without "@" is used as-is.
func displayName(email string) string {
	if local, _, ok := strings.Cut(email, "@"); ok {
		return local
	}
	return email
}

package portal

import (
	"context"

	"github.com/satoshi-watanabe-0001/accountsync"
	"github.com/satoshi-watanabe-0001/accountsync/apierr"
	"github.com/satoshi-watanabe-0001/accountsync/recent"
)

// Authenticated reports whether a signed-in session is active.
func (p *Portal) Authenticated() bool {
	return p.session.Get().Authenticated
}

// Session returns the current session snapshot.
func (p *Portal) Session() Session {
	return p.session.Get()
}

// Login authenticates the credentials, persists the session, and records the
// account on the recent-logins list.
func (p *Portal) Login(ctx context.Context, req LoginRequest) error {
	if req.Email == "" || req.Password == "" {
		return apierr.Validation("credentials", MsgLoginRequired)
	}
	sess, err := p.api.Login(ctx, req)
	if err != nil {
		return err
	}
	sess.Authenticated = true
	p.session.Update(ctx, func(s *Session) { *s = sess })
	p.recent.Add(ctx, sess.Email)
	p.log.Info("logged in", accountsync.Fields{"account_id": sess.AccountID})
	return nil
}

// Logout ends the session and drops every cached protected read. The server
// call is best effort: a failed revocation still clears local state.
func (p *Portal) Logout(ctx context.Context) {
	if err := p.api.Logout(ctx); err != nil {
		p.log.Warn("logout call failed", accountsync.Fields{"err": err})
	}
	p.session.Reset(ctx)
	p.profile.InvalidatePrefix("")
	p.notif.InvalidatePrefix("")
	p.billing.InvalidatePrefix("")
	p.usage.InvalidatePrefix("")
	p.plan.InvalidatePrefix("")
	p.plans.InvalidatePrefix("")
	p.options.InvalidatePrefix("")
}

// RecentAccounts lists remembered logins, most recent first.
func (p *Portal) RecentAccounts() []recent.Account {
	return p.recent.Accounts()
}

// RemoveRecentAccount forgets one remembered login.
func (p *Portal) RemoveRecentAccount(ctx context.Context, email string) {
	p.recent.Remove(ctx, email)
}

// ClearRecentAccounts forgets every remembered login.
func (p *Portal) ClearRecentAccounts(ctx context.Context) {
	p.recent.Clear(ctx)
}

package portal

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/satoshi-watanabe-0001/accountsync"
	"github.com/satoshi-watanabe-0001/accountsync/apierr"
	"github.com/satoshi-watanabe-0001/accountsync/mutation"
	"github.com/satoshi-watanabe-0001/accountsync/storage"
)

// fakeAPI counts calls and lets tests force failures per concern.
type fakeAPI struct {
	loginErr   error
	fetchErr   error
	mutateErr  error
	planCalls  atomic.Int64
	plansCalls atomic.Int64
	fetchCalls atomic.Int64
	mutCalls   atomic.Int64
}

var _ API = (*fakeAPI)(nil)

func (a *fakeAPI) Login(_ context.Context, req LoginRequest) (Session, error) {
	if a.loginErr != nil {
		return Session{}, a.loginErr
	}
	return Session{AccountID: "acct-1", Email: req.Email, Token: "tok"}, nil
}

func (a *fakeAPI) Logout(context.Context) error { return nil }

func (a *fakeAPI) fetch() error {
	a.fetchCalls.Add(1)
	return a.fetchErr
}

func (a *fakeAPI) FetchProfile(context.Context) (Profile, error) {
	return Profile{Name: "山田太郎", Email: "taro@example.com"}, a.fetch()
}

func (a *fakeAPI) FetchNotificationSettings(context.Context) (NotificationSettings, error) {
	return NotificationSettings{EmailEnabled: true}, a.fetch()
}

func (a *fakeAPI) FetchBilling(_ context.Context, month string) (BillingSummary, error) {
	return BillingSummary{Month: month, TotalAmount: 4980}, a.fetch()
}

func (a *fakeAPI) FetchDataUsage(context.Context) (DataUsage, error) {
	return DataUsage{Month: "2026-08", UsedGB: 12.5, LimitGB: 20}, a.fetch()
}

func (a *fakeAPI) FetchCurrentPlan(context.Context) (Plan, error) {
	a.planCalls.Add(1)
	return Plan{ID: "plan-20gb", Name: "20GBプラン", MonthlyFee: 2980}, a.fetchErr
}

func (a *fakeAPI) FetchAvailablePlans(context.Context) ([]Plan, error) {
	a.plansCalls.Add(1)
	return []Plan{{ID: "plan-20gb"}, {ID: "plan-50gb"}}, a.fetchErr
}

func (a *fakeAPI) FetchOptions(context.Context) ([]Option, error) {
	return []Option{{ID: "opt-intl", Subscribed: false}}, a.fetch()
}

func (a *fakeAPI) mutate() (MutationResult, error) {
	a.mutCalls.Add(1)
	if a.mutateErr != nil {
		return MutationResult{}, a.mutateErr
	}
	return MutationResult{Success: true}, nil
}

func (a *fakeAPI) UpdateContactInfo(context.Context, ContactInfoRequest) (MutationResult, error) {
	return a.mutate()
}

func (a *fakeAPI) ChangePassword(context.Context, PasswordChangeRequest) (MutationResult, error) {
	return a.mutate()
}

func (a *fakeAPI) UpdateNotificationSettings(context.Context, NotificationSettings) (MutationResult, error) {
	return a.mutate()
}

func (a *fakeAPI) ChangePlan(context.Context, PlanChangeRequest) (MutationResult, error) {
	return a.mutate()
}

func (a *fakeAPI) UpdateOption(context.Context, OptionRequest) (MutationResult, error) {
	return a.mutate()
}

func newTestPortal(t *testing.T, st storage.Storage, api API) *Portal {
	t.Helper()
	p, err := New(context.Background(), Config{
		Storage:      st,
		API:          api,
		DismissAfter: -1, // tests assert messages before dismissal
		Retry:        accountsync.RetryPolicy{MaxAttempts: 1},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(p.Close)
	return p
}

func login(t *testing.T, p *Portal) {
	t.Helper()
	err := p.Login(context.Background(), LoginRequest{Email: "taro@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
}

func TestNewRequiresStorageAndAPI(t *testing.T) {
	if _, err := New(context.Background(), Config{API: &fakeAPI{}}); err == nil {
		t.Fatal("expected error for nil storage")
	}
	if _, err := New(context.Background(), Config{Storage: storage.NewMemory()}); err == nil {
		t.Fatal("expected error for nil api")
	}
}

func TestUnauthenticatedReadsAreDisabled(t *testing.T) {
	api := &fakeAPI{}
	p := newTestPortal(t, storage.NewMemory(), api)
	ctx := context.Background()

	if p.Authenticated() {
		t.Fatal("fresh portal must not be authenticated")
	}
	if st := p.Profile(ctx); st.Status != accountsync.StatusIdle || st.HasData {
		t.Fatalf("profile = %+v", st)
	}
	if st := p.Billing(ctx, "2026-08"); st.Status != accountsync.StatusIdle {
		t.Fatalf("billing = %+v", st)
	}
	if api.fetchCalls.Load() != 0 {
		t.Fatalf("fetches while signed out = %d", api.fetchCalls.Load())
	}
}

func TestLoginValidatesCredentials(t *testing.T) {
	p := newTestPortal(t, storage.NewMemory(), &fakeAPI{})

	err := p.Login(context.Background(), LoginRequest{Email: "", Password: ""})
	if !apierr.IsValidation(err) {
		t.Fatalf("err = %v, want validation", err)
	}
	if got := apierr.UserMessage(err); got != MsgLoginRequired {
		t.Fatalf("message = %q", got)
	}
	if p.Authenticated() {
		t.Fatal("validation failure must not authenticate")
	}
}

func TestLoginFailureStaysSignedOut(t *testing.T) {
	api := &fakeAPI{loginErr: apierr.Client(401, "メールアドレスまたはパスワードが違います")}
	p := newTestPortal(t, storage.NewMemory(), api)

	err := p.Login(context.Background(), LoginRequest{Email: "taro@example.com", Password: "wrong"})
	if !apierr.IsClient(err) {
		t.Fatalf("err = %v", err)
	}
	if p.Authenticated() {
		t.Fatal("failed login must not authenticate")
	}
	if got := p.RecentAccounts(); len(got) != 0 {
		t.Fatalf("failed login recorded: %+v", got)
	}
}

func TestLoginRecordsRecentAccount(t *testing.T) {
	p := newTestPortal(t, storage.NewMemory(), &fakeAPI{})
	login(t, p)

	if !p.Authenticated() {
		t.Fatal("not authenticated after login")
	}
	if got := p.Session().Email; got != "taro@example.com" {
		t.Fatalf("session email = %q", got)
	}
	got := p.RecentAccounts()
	if len(got) != 1 || got[0].Email != "taro@example.com" {
		t.Fatalf("recent = %+v", got)
	}
	if got[0].DisplayName != "taro" {
		t.Fatalf("display name = %q", got[0].DisplayName)
	}
}

func TestReadsFetchOnceWhileFresh(t *testing.T) {
	api := &fakeAPI{}
	p := newTestPortal(t, storage.NewMemory(), api)
	login(t, p)
	ctx := context.Background()

	st := p.DataUsage(ctx)
	if !st.IsSuccess() || st.Data.UsedGB != 12.5 {
		t.Fatalf("usage = %+v", st)
	}
	p.DataUsage(ctx)
	p.DataUsage(ctx)
	if api.fetchCalls.Load() != 1 {
		t.Fatalf("fetches = %d, want 1", api.fetchCalls.Load())
	}
}

func TestBillingIsKeyedPerMonth(t *testing.T) {
	api := &fakeAPI{}
	p := newTestPortal(t, storage.NewMemory(), api)
	login(t, p)
	ctx := context.Background()

	jul := p.Billing(ctx, "2026-07")
	aug := p.Billing(ctx, "2026-08")
	if jul.Data.Month != "2026-07" || aug.Data.Month != "2026-08" {
		t.Fatalf("months = %q %q", jul.Data.Month, aug.Data.Month)
	}
	if api.fetchCalls.Load() != 2 {
		t.Fatalf("fetches = %d, want 2", api.fetchCalls.Load())
	}
}

func TestPlanChangeInvalidatesPlanReads(t *testing.T) {
	api := &fakeAPI{}
	p := newTestPortal(t, storage.NewMemory(), api)
	login(t, p)
	ctx := context.Background()

	p.CurrentPlan(ctx)
	p.AvailablePlans(ctx)
	if api.planCalls.Load() != 1 || api.plansCalls.Load() != 1 {
		t.Fatalf("plan fetches = %d/%d", api.planCalls.Load(), api.plansCalls.Load())
	}

	if err := p.ChangePlan(ctx, PlanChangeRequest{PlanID: "plan-50gb"}); err != nil {
		t.Fatalf("ChangePlan: %v", err)
	}
	if st := p.PlanChangeState(); st.Status != mutation.StatusSuccess || st.Message != MsgPlanChanged {
		t.Fatalf("state = %+v", st)
	}

	// both plan resources are stale now and refetch on next read
	p.CurrentPlan(ctx)
	p.AvailablePlans(ctx)
	if api.planCalls.Load() != 2 || api.plansCalls.Load() != 2 {
		t.Fatalf("plan fetches after change = %d/%d", api.planCalls.Load(), api.plansCalls.Load())
	}
}

func TestPlanChangeRequiresPlanID(t *testing.T) {
	api := &fakeAPI{}
	p := newTestPortal(t, storage.NewMemory(), api)
	login(t, p)

	err := p.ChangePlan(context.Background(), PlanChangeRequest{})
	if !apierr.IsValidation(err) {
		t.Fatalf("err = %v", err)
	}
	if api.mutCalls.Load() != 0 {
		t.Fatal("collaborator called despite validation failure")
	}
	if st := p.PlanChangeState(); st.Message != MsgPlanRequired {
		t.Fatalf("message = %q", st.Message)
	}
}

func TestPasswordChangeValidation(t *testing.T) {
	api := &fakeAPI{}
	p := newTestPortal(t, storage.NewMemory(), api)
	login(t, p)
	ctx := context.Background()

	t.Run("mismatch", func(t *testing.T) {
		req := &PasswordChangeRequest{
			CurrentPassword: "oldpass123",
			NewPassword:     "newpass123",
			ConfirmPassword: "different123",
		}
		if err := p.ChangePassword(ctx, req); !apierr.IsValidation(err) {
			t.Fatalf("err = %v", err)
		}
		if got := p.PasswordState().Message; !strings.Contains(got, "一致しません") {
			t.Fatalf("message = %q", got)
		}
		if api.mutCalls.Load() != 0 {
			t.Fatal("collaborator called on mismatch")
		}
		// input survives for correction
		if req.NewPassword != "newpass123" {
			t.Fatalf("input cleared: %+v", req)
		}
	})

	t.Run("too short", func(t *testing.T) {
		req := &PasswordChangeRequest{
			CurrentPassword: "oldpass123",
			NewPassword:     "short",
			ConfirmPassword: "short",
		}
		if err := p.ChangePassword(ctx, req); !apierr.IsValidation(err) {
			t.Fatalf("err = %v", err)
		}
		if got := p.PasswordState().Message; got != MsgPasswordTooShort {
			t.Fatalf("message = %q", got)
		}
	})

	t.Run("missing current", func(t *testing.T) {
		req := &PasswordChangeRequest{NewPassword: "newpass123", ConfirmPassword: "newpass123"}
		if err := p.ChangePassword(ctx, req); !apierr.IsValidation(err) {
			t.Fatalf("err = %v", err)
		}
		if got := p.PasswordState().Message; got != MsgPasswordRequired {
			t.Fatalf("message = %q", got)
		}
	})
}

func TestPasswordChangeClearsInputOnSuccess(t *testing.T) {
	api := &fakeAPI{}
	p := newTestPortal(t, storage.NewMemory(), api)
	login(t, p)

	req := &PasswordChangeRequest{
		CurrentPassword: "oldpass123",
		NewPassword:     "newpass123",
		ConfirmPassword: "newpass123",
	}
	if err := p.ChangePassword(context.Background(), req); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if *req != (PasswordChangeRequest{}) {
		t.Fatalf("sensitive input not cleared: %+v", req)
	}
	if st := p.PasswordState(); st.Message != MsgPasswordChanged {
		t.Fatalf("message = %q", st.Message)
	}
}

func TestPasswordChangeKeepsInputOnServerFailure(t *testing.T) {
	api := &fakeAPI{mutateErr: apierr.Server(500, "")}
	p := newTestPortal(t, storage.NewMemory(), api)
	login(t, p)

	req := &PasswordChangeRequest{
		CurrentPassword: "oldpass123",
		NewPassword:     "newpass123",
		ConfirmPassword: "newpass123",
	}
	if err := p.ChangePassword(context.Background(), req); !apierr.IsServer(err) {
		t.Fatalf("err = %v", err)
	}
	if req.NewPassword != "newpass123" {
		t.Fatalf("input cleared on failure: %+v", req)
	}
	if st := p.PasswordState(); st.Message != apierr.MsgServer {
		t.Fatalf("message = %q", st.Message)
	}
}

func TestContactInfoValidationAndWriteThrough(t *testing.T) {
	api := &fakeAPI{}
	p := newTestPortal(t, storage.NewMemory(), api)
	login(t, p)
	ctx := context.Background()

	err := p.UpdateContactInfo(ctx, ContactInfoRequest{Email: "not-an-email"})
	if !apierr.IsValidation(err) {
		t.Fatalf("err = %v", err)
	}
	if got := p.ContactState().Message; got != MsgContactEmailInvalid {
		t.Fatalf("message = %q", got)
	}

	if err := p.UpdateContactInfo(ctx, ContactInfoRequest{
		Email: "hanako@example.com", Phone: "090-0000-0000",
	}); err != nil {
		t.Fatalf("UpdateContactInfo: %v", err)
	}
	// the settings store reflects the change immediately
	if got := p.settings.Get().Profile.Email; got != "hanako@example.com" {
		t.Fatalf("settings email = %q", got)
	}
}

func TestNotificationUpdateWritesThrough(t *testing.T) {
	api := &fakeAPI{}
	p := newTestPortal(t, storage.NewMemory(), api)
	login(t, p)

	s := NotificationSettings{EmailEnabled: true, PushEnabled: true}
	if err := p.UpdateNotificationSettings(context.Background(), s); err != nil {
		t.Fatalf("UpdateNotificationSettings: %v", err)
	}
	if got := p.settings.Get().Notifications; got != s {
		t.Fatalf("settings notifications = %+v", got)
	}
	if st := p.NotificationState(); st.Message != MsgNotificationUpdated {
		t.Fatalf("message = %q", st.Message)
	}
}

func TestOptionUpdateRequiresID(t *testing.T) {
	p := newTestPortal(t, storage.NewMemory(), &fakeAPI{})
	login(t, p)

	err := p.UpdateOption(context.Background(), OptionRequest{Subscribe: true})
	if !apierr.IsValidation(err) {
		t.Fatalf("err = %v", err)
	}
	if st := p.OptionState(); st.Message != MsgOptionRequired {
		t.Fatalf("message = %q", st.Message)
	}
}

func TestLogoutClearsSessionAndCaches(t *testing.T) {
	api := &fakeAPI{}
	p := newTestPortal(t, storage.NewMemory(), api)
	login(t, p)
	ctx := context.Background()

	p.DataUsage(ctx)
	p.Logout(ctx)

	if p.Authenticated() {
		t.Fatal("still authenticated after logout")
	}
	// reads are gated again but last data stays visible until re-login
	st := p.DataUsage(ctx)
	if !st.HasData {
		t.Fatalf("usage after logout = %+v", st)
	}
	if n := api.fetchCalls.Load(); n != 1 {
		t.Fatalf("fetches after logout = %d, want 1", n)
	}

	// logging back in revalidates the invalidated entry
	login(t, p)
	p.DataUsage(ctx)
	if n := api.fetchCalls.Load(); n != 2 {
		t.Fatalf("fetches after re-login = %d, want 2", n)
	}

	// recent accounts survive logout
	if got := p.RecentAccounts(); len(got) != 1 {
		t.Fatalf("recent after logout = %+v", got)
	}
}

func TestReloadSeedsFromSnapshots(t *testing.T) {
	mem := storage.NewMemory()
	api := &fakeAPI{}

	p := newTestPortal(t, mem, api)
	login(t, p)
	ctx := context.Background()
	p.Billing(ctx, "2026-08")
	p.CurrentPlan(ctx)
	p.Close()

	// a second portal over the same storage: session and snapshots survive
	offline := &fakeAPI{fetchErr: apierr.Network(errors.New("offline"))}
	p2 := newTestPortal(t, mem, offline)

	if !p2.Authenticated() {
		t.Fatal("session did not survive the reload")
	}

	// the seeded snapshot stays visible even though revalidation fails
	st := p2.Billing(ctx, "2026-08")
	if !st.HasData || st.Data.TotalAmount != 4980 {
		t.Fatalf("billing after reload = %+v", st)
	}
	if !st.IsError() {
		t.Fatalf("offline revalidation must surface as error state: %+v", st)
	}

	plan := p2.CurrentPlan(ctx)
	if !plan.HasData || plan.Data.ID != "plan-20gb" {
		t.Fatalf("plan after reload = %+v", plan)
	}
}

func TestRemoveAndClearRecentAccounts(t *testing.T) {
	p := newTestPortal(t, storage.NewMemory(), &fakeAPI{})
	login(t, p)
	ctx := context.Background()

	p.RemoveRecentAccount(ctx, "taro@example.com")
	if got := p.RecentAccounts(); len(got) != 0 {
		t.Fatalf("after remove = %+v", got)
	}

	login(t, p)
	p.ClearRecentAccounts(ctx)
	if got := p.RecentAccounts(); len(got) != 0 {
		t.Fatalf("after clear = %+v", got)
	}
}

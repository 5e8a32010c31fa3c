package portal

import (
	"context"

	"github.com/satoshi-watanabe-0001/accountsync/httpapi"
)

// API is the external collaborator contract. Implementations must reject
// with errors from the apierr taxonomy; the REST implementation below gets
// that from httpapi.Client.
type API interface {
	Login(ctx context.Context, req LoginRequest) (Session, error)
	Logout(ctx context.Context) error

	FetchProfile(ctx context.Context) (Profile, error)
	FetchNotificationSettings(ctx context.Context) (NotificationSettings, error)
	FetchBilling(ctx context.Context, month string) (BillingSummary, error)
	FetchDataUsage(ctx context.Context) (DataUsage, error)
	FetchCurrentPlan(ctx context.Context) (Plan, error)
	FetchAvailablePlans(ctx context.Context) ([]Plan, error)
	FetchOptions(ctx context.Context) ([]Option, error)

	UpdateContactInfo(ctx context.Context, req ContactInfoRequest) (MutationResult, error)
	ChangePassword(ctx context.Context, req PasswordChangeRequest) (MutationResult, error)
	UpdateNotificationSettings(ctx context.Context, s NotificationSettings) (MutationResult, error)
	ChangePlan(ctx context.Context, req PlanChangeRequest) (MutationResult, error)
	UpdateOption(ctx context.Context, req OptionRequest) (MutationResult, error)
}

// restAPI implements API over the portal's REST endpoints.
type restAPI struct {
	c *httpapi.Client
}

// NewAPI wraps an httpapi.Client in the API contract.
func NewAPI(c *httpapi.Client) API { return &restAPI{c: c} }

func (a *restAPI) Login(ctx context.Context, req LoginRequest) (Session, error) {
	var sess Session
	if err := a.c.PostJSON(ctx, "/api/v1/auth/login", req, &sess); err != nil {
		return Session{}, err
	}
	a.c.SetAuthToken(sess.Token)
	return sess, nil
}

func (a *restAPI) Logout(ctx context.Context) error {
	err := a.c.PostJSON(ctx, "/api/v1/auth/logout", nil, nil)
	a.c.SetAuthToken("")
	return err
}

func (a *restAPI) FetchProfile(ctx context.Context) (Profile, error) {
	var v Profile
	err := a.c.GetJSON(ctx, "/api/v1/account/profile", &v)
	return v, err
}

func (a *restAPI) FetchNotificationSettings(ctx context.Context) (NotificationSettings, error) {
	var v NotificationSettings
	err := a.c.GetJSON(ctx, "/api/v1/account/notifications", &v)
	return v, err
}

func (a *restAPI) FetchBilling(ctx context.Context, month string) (BillingSummary, error) {
	var v BillingSummary
	err := a.c.GetJSON(ctx, "/api/v1/billing/"+month, &v)
	return v, err
}

func (a *restAPI) FetchDataUsage(ctx context.Context) (DataUsage, error) {
	var v DataUsage
	err := a.c.GetJSON(ctx, "/api/v1/usage/current", &v)
	return v, err
}

func (a *restAPI) FetchCurrentPlan(ctx context.Context) (Plan, error) {
	var v Plan
	err := a.c.GetJSON(ctx, "/api/v1/plans/current", &v)
	return v, err
}

func (a *restAPI) FetchAvailablePlans(ctx context.Context) ([]Plan, error) {
	var v []Plan
	err := a.c.GetJSON(ctx, "/api/v1/plans", &v)
	return v, err
}

func (a *restAPI) FetchOptions(ctx context.Context) ([]Option, error) {
	var v []Option
	err := a.c.GetJSON(ctx, "/api/v1/options", &v)
	return v, err
}

func (a *restAPI) UpdateContactInfo(ctx context.Context, req ContactInfoRequest) (MutationResult, error) {
	var v MutationResult
	err := a.c.PutJSON(ctx, "/api/v1/account/contact", req, &v)
	return v, err
}

func (a *restAPI) ChangePassword(ctx context.Context, req PasswordChangeRequest) (MutationResult, error) {
	var v MutationResult
	err := a.c.PutJSON(ctx, "/api/v1/account/password", req, &v)
	return v, err
}

func (a *restAPI) UpdateNotificationSettings(ctx context.Context, s NotificationSettings) (MutationResult, error) {
	var v MutationResult
	err := a.c.PutJSON(ctx, "/api/v1/account/notifications", s, &v)
	return v, err
}

func (a *restAPI) ChangePlan(ctx context.Context, req PlanChangeRequest) (MutationResult, error) {
	var v MutationResult
	err := a.c.PostJSON(ctx, "/api/v1/plans/change", req, &v)
	return v, err
}

func (a *restAPI) UpdateOption(ctx context.Context, req OptionRequest) (MutationResult, error) {
	var v MutationResult
	err := a.c.PostJSON(ctx, "/api/v1/options/update", req, &v)
	return v, err
}

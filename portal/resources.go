package portal

import (
	"context"

	"github.com/satoshi-watanabe-0001/accountsync"
)

// Every accessor follows the same shape: serve fresh cached data, join or
// start a revalidation when stale, and write successful fetches through to
// the persisted store so the next process start can seed from them.
// Unauthenticated sessions disable the fetch entirely.

// Profile reads the account profile.
func (p *Portal) Profile(ctx context.Context) accountsync.State[Profile] {
	fetch := func(ctx context.Context) (Profile, error) {
		v, err := p.api.FetchProfile(ctx)
		if err != nil {
			return Profile{}, err
		}
		p.settings.Update(ctx, func(s *AccountSettings) { s.Profile = v })
		return v, nil
	}
	return p.profile.Read(ctx, keyProfile, fetch, p.readOpts())
}

// NotificationSettings reads the notification preferences.
func (p *Portal) NotificationSettings(ctx context.Context) accountsync.State[NotificationSettings] {
	fetch := func(ctx context.Context) (NotificationSettings, error) {
		v, err := p.api.FetchNotificationSettings(ctx)
		if err != nil {
			return NotificationSettings{}, err
		}
		p.settings.Update(ctx, func(s *AccountSettings) { s.Notifications = v })
		return v, nil
	}
	return p.notif.Read(ctx, keyNotifications, fetch, p.readOpts())
}

// Billing reads the bill for one month ("2026-08").
func (p *Portal) Billing(ctx context.Context, month string) accountsync.State[BillingSummary] {
	fetch := func(ctx context.Context) (BillingSummary, error) {
		v, err := p.api.FetchBilling(ctx, month)
		if err != nil {
			return BillingSummary{}, err
		}
		p.billingStore.Update(ctx, func(s *billingState) {
			if s.ByMonth == nil {
				s.ByMonth = make(map[string]BillingSummary)
			}
			s.ByMonth[month] = v
		})
		return v, nil
	}
	return p.billing.Read(ctx, billingKey(month), fetch, p.readOpts())
}

// DataUsage reads the current-month data consumption.
func (p *Portal) DataUsage(ctx context.Context) accountsync.State[DataUsage] {
	fetch := func(ctx context.Context) (DataUsage, error) {
		v, err := p.api.FetchDataUsage(ctx)
		if err != nil {
			return DataUsage{}, err
		}
		p.usageStore.Update(ctx, func(s *usageState) { s.Current = v })
		return v, nil
	}
	return p.usage.Read(ctx, keyUsageCurrent, fetch, p.readOpts())
}

// CurrentPlan reads the account's active plan.
func (p *Portal) CurrentPlan(ctx context.Context) accountsync.State[Plan] {
	fetch := func(ctx context.Context) (Plan, error) {
		v, err := p.api.FetchCurrentPlan(ctx)
		if err != nil {
			return Plan{}, err
		}
		p.planStore.Update(ctx, func(s *planState) { s.Current = v })
		return v, nil
	}
	return p.plan.Read(ctx, keyPlanCurrent, fetch, p.readOpts())
}

// AvailablePlans reads the plans the account may switch to.
func (p *Portal) AvailablePlans(ctx context.Context) accountsync.State[[]Plan] {
	fetch := func(ctx context.Context) ([]Plan, error) {
		v, err := p.api.FetchAvailablePlans(ctx)
		if err != nil {
			return nil, err
		}
		p.planStore.Update(ctx, func(s *planState) { s.Available = v })
		return v, nil
	}
	return p.plans.Read(ctx, keyPlanAvailable, fetch, p.readOpts())
}

// Options reads the option catalog with subscription flags.
func (p *Portal) Options(ctx context.Context) accountsync.State[[]Option] {
	fetch := func(ctx context.Context) ([]Option, error) {
		v, err := p.api.FetchOptions(ctx)
		if err != nil {
			return nil, err
		}
		p.optionStore.Update(ctx, func(s *optionState) { s.List = v })
		return v, nil
	}
	return p.options.Read(ctx, keyOptionList, fetch, p.readOpts())
}

// Package portal wires the synchronization primitives into the self-service
// portal domain: a session store gating every protected read, persisted
// snapshots of billing/plan/option/data-usage state, read caches that
// revalidate those snapshots, the recent-login list, and one mutation flow
// per settings form.
//
// A Portal is constructed once at application start and passed to consumers
// by reference; there is no package-level shared state.
package portal

import (
	"context"
	"fmt"
	"time"

	"github.com/satoshi-watanabe-0001/accountsync"
	"github.com/satoshi-watanabe-0001/accountsync/mutation"
	"github.com/satoshi-watanabe-0001/accountsync/recent"
	"github.com/satoshi-watanabe-0001/accountsync/storage"
	"github.com/satoshi-watanabe-0001/accountsync/store"
)

// Cache keys. Billing is keyed per month; the rest are singletons.
const (
	keyProfile       = "profile"
	keyNotifications = "notifications"
	keyUsageCurrent  = "usage:current"
	keyPlanCurrent   = "plan:current"
	keyPlanAvailable = "plan:available"
	keyOptionList    = "option:list"
)

func billingKey(month string) string { return "billing:" + month }

// Durable store names. Each store owns exactly one storage key.
const (
	storeSession  = "session"
	storeSettings = "account_settings"
	storeBilling  = "billing"
	storeUsage    = "data_usage"
	storePlan     = "plan"
	storeOptions  = "options"
)

type billingState struct {
	ByMonth map[string]BillingSummary `json:"by_month"`
}

type usageState struct {
	Current DataUsage `json:"current"`
}

type planState struct {
	Current   Plan   `json:"current"`
	Available []Plan `json:"available"`
}

type optionState struct {
	List []Option `json:"list"`
}

// Config assembles a Portal. Storage and API are required.
type Config struct {
	Storage storage.Storage
	API     API

	Logger       accountsync.Logger
	Hooks        accountsync.Hooks
	StaleFor     time.Duration           // cache staleness window; 0 => 5m
	DismissAfter time.Duration           // message auto-dismiss; 0 => 3s
	Retry        accountsync.RetryPolicy // fetch retries; zero => default
	Now          func() time.Time
}

// Portal owns every store, cache, and flow of the self-service surface.
type Portal struct {
	api API
	log accountsync.Logger
	now func() time.Time

	session      *store.Store[Session]
	settings     *store.Store[AccountSettings]
	billingStore *store.Store[billingState]
	usageStore   *store.Store[usageState]
	planStore    *store.Store[planState]
	optionStore  *store.Store[optionState]
	recent       *recent.List

	profile accountsync.Cache[Profile]
	notif   accountsync.Cache[NotificationSettings]
	billing accountsync.Cache[BillingSummary]
	usage   accountsync.Cache[DataUsage]
	plan    accountsync.Cache[Plan]
	plans   accountsync.Cache[[]Plan]
	options accountsync.Cache[[]Option]

	contactFlow  *mutation.Flow[ContactInfoRequest, MutationResult]
	passwordFlow *mutation.Flow[*PasswordChangeRequest, MutationResult]
	notifFlow    *mutation.Flow[NotificationSettings, MutationResult]
	planFlow     *mutation.Flow[PlanChangeRequest, MutationResult]
	optionFlow   *mutation.Flow[OptionRequest, MutationResult]
}

func New(ctx context.Context, cfg Config) (*Portal, error) {
	if cfg.Storage == nil {
		return nil, fmt.Errorf("portal: storage is required")
	}
	if cfg.API == nil {
		return nil, fmt.Errorf("portal: api is required")
	}

	p := &Portal{api: cfg.API}
	if cfg.Logger != nil {
		p.log = cfg.Logger
	} else {
		p.log = accountsync.NopLogger{}
	}
	p.now = cfg.Now
	if p.now == nil {
		p.now = time.Now
	}

	if err := p.buildStores(ctx, cfg); err != nil {
		return nil, err
	}
	if err := p.buildCaches(cfg); err != nil {
		return nil, err
	}
	p.seedFromSnapshots()
	if err := p.buildFlows(cfg); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Portal) buildStores(ctx context.Context, cfg Config) error {
	var err error
	if p.session, err = store.New(ctx, store.Options[Session]{
		Name: storeSession, Storage: cfg.Storage, Logger: p.log,
	}); err != nil {
		return err
	}
	if p.settings, err = store.New(ctx, store.Options[AccountSettings]{
		Name: storeSettings, Storage: cfg.Storage, Logger: p.log,
	}); err != nil {
		return err
	}
	if p.billingStore, err = store.New(ctx, store.Options[billingState]{
		Name: storeBilling, Storage: cfg.Storage, Logger: p.log,
	}); err != nil {
		return err
	}
	if p.usageStore, err = store.New(ctx, store.Options[usageState]{
		Name: storeUsage, Storage: cfg.Storage, Logger: p.log,
	}); err != nil {
		return err
	}
	if p.planStore, err = store.New(ctx, store.Options[planState]{
		Name: storePlan, Storage: cfg.Storage, Logger: p.log,
	}); err != nil {
		return err
	}
	if p.optionStore, err = store.New(ctx, store.Options[optionState]{
		Name: storeOptions, Storage: cfg.Storage, Logger: p.log,
	}); err != nil {
		return err
	}
	if p.recent, err = recent.New(ctx, recent.Options{
		Storage: cfg.Storage, Logger: p.log, Now: cfg.Now,
	}); err != nil {
		return err
	}
	return nil
}

func (p *Portal) buildCaches(cfg Config) error {
	var err error
	if p.profile, err = newCache[Profile](cfg, "profile"); err != nil {
		return err
	}
	if p.notif, err = newCache[NotificationSettings](cfg, "notifications"); err != nil {
		return err
	}
	if p.billing, err = newCache[BillingSummary](cfg, "billing"); err != nil {
		return err
	}
	if p.usage, err = newCache[DataUsage](cfg, "usage"); err != nil {
		return err
	}
	if p.plan, err = newCache[Plan](cfg, "plan"); err != nil {
		return err
	}
	if p.plans, err = newCache[[]Plan](cfg, "plans"); err != nil {
		return err
	}
	if p.options, err = newCache[[]Option](cfg, "options"); err != nil {
		return err
	}
	return nil
}

func newCache[V any](cfg Config, ns string) (accountsync.Cache[V], error) {
	return accountsync.New[V](accountsync.Options[V]{
		Namespace:       ns,
		Logger:          cfg.Logger,
		Hooks:           cfg.Hooks,
		DefaultStaleFor: cfg.StaleFor,
		Retry:           cfg.Retry,
		Now:             cfg.Now,
	})
}

// seedFromSnapshots installs hydrated store state into the read caches as
// already-stale entries: the UI can render the last known data right after a
// reload while the first read revalidates it.
func (p *Portal) seedFromSnapshots() {
	if at, ok := p.billingStore.Hydrated(); ok {
		for month, v := range p.billingStore.Get().ByMonth {
			p.billing.Seed(billingKey(month), v, at)
		}
	}
	if at, ok := p.usageStore.Hydrated(); ok {
		if st := p.usageStore.Get(); st.Current.Month != "" {
			p.usage.Seed(keyUsageCurrent, st.Current, at)
		}
	}
	if at, ok := p.planStore.Hydrated(); ok {
		st := p.planStore.Get()
		if st.Current.ID != "" {
			p.plan.Seed(keyPlanCurrent, st.Current, at)
		}
		if len(st.Available) > 0 {
			p.plans.Seed(keyPlanAvailable, st.Available, at)
		}
	}
	if at, ok := p.optionStore.Hydrated(); ok {
		if st := p.optionStore.Get(); len(st.List) > 0 {
			p.options.Seed(keyOptionList, st.List, at)
		}
	}
	if at, ok := p.settings.Hydrated(); ok {
		st := p.settings.Get()
		if st.Profile.Email != "" {
			p.profile.Seed(keyProfile, st.Profile, at)
		}
		p.notif.Seed(keyNotifications, st.Notifications, at)
	}
}

// readOpts gates every protected read behind the session state.
func (p *Portal) readOpts() accountsync.ReadOptions {
	return accountsync.ReadOptions{Disabled: !p.Authenticated()}
}

// Close releases the caches. Stores need no teardown; the storage backend is
// owned by the caller.
func (p *Portal) Close() {
	p.profile.Close()
	p.notif.Close()
	p.billing.Close()
	p.usage.Close()
	p.plan.Close()
	p.plans.Close()
	p.options.Close()
}

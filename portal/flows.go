package portal

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/satoshi-watanabe-0001/accountsync/apierr"
	"github.com/satoshi-watanabe-0001/accountsync/mutation"
)

const minPasswordRunes = 8

func (p *Portal) buildFlows(cfg Config) error {
	var err error

	if p.contactFlow, err = mutation.New(mutation.Options[ContactInfoRequest, MutationResult]{
		Name:     "contact_info",
		Validate: validateContactInfo,
		Submit: func(ctx context.Context, req ContactInfoRequest) (MutationResult, error) {
			return p.api.UpdateContactInfo(ctx, req)
		},
		OnSuccess: func(ctx context.Context, req ContactInfoRequest, _ MutationResult) {
			p.settings.Update(ctx, func(s *AccountSettings) {
				s.Profile.Email = req.Email
				s.Profile.Phone = req.Phone
				s.Profile.PostalCode = req.PostalCode
				s.Profile.Address = req.Address
			})
		},
		SuccessMessage: MsgContactUpdated,
		Invalidates:    []string{keyProfile},
		Invalidators:   []mutation.Invalidator{p.profile},
		DismissAfter:   cfg.DismissAfter,
		Logger:         p.log,
	}); err != nil {
		return err
	}

	if p.passwordFlow, err = mutation.New(mutation.Options[*PasswordChangeRequest, MutationResult]{
		Name:     "password_change",
		Validate: validatePasswordChange,
		Submit: func(ctx context.Context, req *PasswordChangeRequest) (MutationResult, error) {
			return p.api.ChangePassword(ctx, *req)
		},
		OnSuccess: func(_ context.Context, req *PasswordChangeRequest, _ MutationResult) {
			// sensitive fields never outlive a successful change
			*req = PasswordChangeRequest{}
		},
		SuccessMessage: MsgPasswordChanged,
		DismissAfter:   cfg.DismissAfter,
		Logger:         p.log,
	}); err != nil {
		return err
	}

	if p.notifFlow, err = mutation.New(mutation.Options[NotificationSettings, MutationResult]{
		Name: "notification_settings",
		Submit: func(ctx context.Context, s NotificationSettings) (MutationResult, error) {
			return p.api.UpdateNotificationSettings(ctx, s)
		},
		OnSuccess: func(ctx context.Context, in NotificationSettings, _ MutationResult) {
			p.settings.Update(ctx, func(s *AccountSettings) {
				s.Notifications = in
			})
		},
		SuccessMessage: MsgNotificationUpdated,
		Invalidates:    []string{keyNotifications},
		Invalidators:   []mutation.Invalidator{p.notif},
		DismissAfter:   cfg.DismissAfter,
		Logger:         p.log,
	}); err != nil {
		return err
	}

	if p.planFlow, err = mutation.New(mutation.Options[PlanChangeRequest, MutationResult]{
		Name: "plan_change",
		Validate: func(req PlanChangeRequest) error {
			if req.PlanID == "" {
				return apierr.Validation("plan_id", MsgPlanRequired)
			}
			return nil
		},
		Submit: func(ctx context.Context, req PlanChangeRequest) (MutationResult, error) {
			return p.api.ChangePlan(ctx, req)
		},
		SuccessMessage: MsgPlanChanged,
		// both the current plan and the available list change shape
		Invalidates:  []string{"plan:"},
		Invalidators: []mutation.Invalidator{p.plan, p.plans},
		DismissAfter: cfg.DismissAfter,
		Logger:       p.log,
	}); err != nil {
		return err
	}

	if p.optionFlow, err = mutation.New(mutation.Options[OptionRequest, MutationResult]{
		Name: "option_update",
		Validate: func(req OptionRequest) error {
			if req.OptionID == "" {
				return apierr.Validation("option_id", MsgOptionRequired)
			}
			return nil
		},
		Submit: func(ctx context.Context, req OptionRequest) (MutationResult, error) {
			return p.api.UpdateOption(ctx, req)
		},
		SuccessMessage: MsgOptionUpdated,
		Invalidates:    []string{"option:"},
		Invalidators:   []mutation.Invalidator{p.options},
		DismissAfter:   cfg.DismissAfter,
		Logger:         p.log,
	}); err != nil {
		return err
	}

	return nil
}

func validatePasswordChange(req *PasswordChangeRequest) error {
	if req.CurrentPassword == "" {
		return apierr.Validation("current_password", MsgPasswordRequired)
	}
	if req.NewPassword != req.ConfirmPassword {
		return apierr.Validation("confirm_password", MsgPasswordMismatch)
	}
	if utf8.RuneCountInString(req.NewPassword) < minPasswordRunes {
		return apierr.Validation("new_password", MsgPasswordTooShort)
	}
	return nil
}

func validateContactInfo(req ContactInfoRequest) error {
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return apierr.Validation("email", MsgContactEmailInvalid)
	}
	return nil
}

// UpdateContactInfo submits the contact-info form.
func (p *Portal) UpdateContactInfo(ctx context.Context, req ContactInfoRequest) error {
	return p.contactFlow.Submit(ctx, req)
}

// ContactState exposes the contact-info flow state for rendering.
func (p *Portal) ContactState() mutation.State { return p.contactFlow.State() }

// ChangePassword submits the password-change form. req is cleared in place
// on success and preserved on failure so the user can retry.
func (p *Portal) ChangePassword(ctx context.Context, req *PasswordChangeRequest) error {
	return p.passwordFlow.Submit(ctx, req)
}

func (p *Portal) PasswordState() mutation.State { return p.passwordFlow.State() }

// UpdateNotificationSettings submits the notification-settings form.
func (p *Portal) UpdateNotificationSettings(ctx context.Context, s NotificationSettings) error {
	return p.notifFlow.Submit(ctx, s)
}

func (p *Portal) NotificationState() mutation.State { return p.notifFlow.State() }

// ChangePlan submits a plan change; on success the plan resources are
// invalidated so the next read refetches.
func (p *Portal) ChangePlan(ctx context.Context, req PlanChangeRequest) error {
	return p.planFlow.Submit(ctx, req)
}

func (p *Portal) PlanChangeState() mutation.State { return p.planFlow.State() }

// UpdateOption subscribes or unsubscribes an option.
func (p *Portal) UpdateOption(ctx context.Context, req OptionRequest) error {
	return p.optionFlow.Submit(ctx, req)
}

func (p *Portal) OptionState() mutation.State { return p.optionFlow.State() }

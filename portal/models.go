package portal

import "time"

// Session is the signed-in identity of this device.
type Session struct {
	AccountID     string    `json:"account_id"`
	Email         string    `json:"email"`
	Token         string    `json:"token"`
	Authenticated bool      `json:"authenticated"`
	LoggedInAt    time.Time `json:"logged_in_at"`
}

// Profile is the account holder's contact information.
type Profile struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	PostalCode string `json:"postal_code"`
	Address    string `json:"address"`
}

// NotificationSettings mirror the account's notification preferences.
type NotificationSettings struct {
	EmailEnabled bool `json:"email_enabled"`
	SMSEnabled   bool `json:"sms_enabled"`
	PushEnabled  bool `json:"push_enabled"`
}

// AccountSettings is the persisted profile + notification state.
type AccountSettings struct {
	Profile       Profile              `json:"profile"`
	Notifications NotificationSettings `json:"notifications"`
}

// BillingItem is one line of a monthly bill.
type BillingItem struct {
	Label  string `json:"label"`
	Amount int    `json:"amount"` // yen
}

// BillingSummary is the bill for one month.
type BillingSummary struct {
	Month       string        `json:"month"` // "2026-08"
	TotalAmount int           `json:"total_amount"`
	Items       []BillingItem `json:"items"`
	PaidAt      *time.Time    `json:"paid_at,omitempty"`
}

// DailyUsage is one day of mobile data consumption.
type DailyUsage struct {
	Date   string  `json:"date"` // "2026-08-30"
	UsedGB float64 `json:"used_gb"`
}

// DataUsage is the current-month data consumption.
type DataUsage struct {
	Month   string       `json:"month"`
	UsedGB  float64      `json:"used_gb"`
	LimitGB float64      `json:"limit_gb"`
	Daily   []DailyUsage `json:"daily"`
}

// Plan is a mobile rate plan.
type Plan struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	MonthlyFee int     `json:"monthly_fee"`
	DataCapGB  float64 `json:"data_cap_gb"`
}

// Option is a subscribable add-on service.
type Option struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	MonthlyFee int    `json:"monthly_fee"`
	Subscribed bool   `json:"subscribed"`
}

// MutationResult is what mutation endpoints return; only Success and Message
// are consumed by this layer.
type MutationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// LoginRequest carries the credentials of a login attempt.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ContactInfoRequest updates the account's contact information.
type ContactInfoRequest struct {
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	PostalCode string `json:"postal_code"`
	Address    string `json:"address"`
}

// PasswordChangeRequest carries the password-change form fields. Flows take
// it by pointer so the sensitive fields can be cleared in place on success
// and preserved for retry on failure.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// PlanChangeRequest switches the account to another plan.
type PlanChangeRequest struct {
	PlanID string `json:"plan_id"`
}

// OptionRequest subscribes or unsubscribes one option.
type OptionRequest struct {
	OptionID  string `json:"option_id"`
	Subscribe bool   `json:"subscribe"`
}

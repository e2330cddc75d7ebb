package domain

import "time"

// Account is the per-user ledger record: free daily quotas, spendable star
// balance and referral linkage. ID is the Telegram user id.
type Account struct {
	ID             int64     `db:"id" json:"id"`
	StarBalance    int64     `db:"star_balance" json:"star_balance"`
	FreeStylize    int       `db:"free_stylize" json:"free_stylize"`
	FreeRemoveBg   int       `db:"free_remove_bg" json:"free_remove_bg"`
	FreeEnhance    int       `db:"free_enhance" json:"free_enhance"`
	QuotaResetDate time.Time `db:"quota_reset_date" json:"quota_reset_date"`
	ReferredBy     *int64    `db:"referred_by" json:"referred_by,omitempty"`
	RefBonusGiven  bool      `db:"ref_bonus_given" json:"ref_bonus_given"`
	RefEarnings    int64     `db:"ref_earnings" json:"ref_earnings"`
	RefPaidCount   int       `db:"ref_paid_count" json:"ref_paid_count"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// FreeQuota returns the remaining free uses for mode.
func (a *Account) FreeQuota(mode Mode) int {
	switch mode {
	case ModeStylize:
		return a.FreeStylize
	case ModeRemoveBg:
		return a.FreeRemoveBg
	case ModeEnhance:
		return a.FreeEnhance
	}
	return 0
}

// SetFreeQuota overwrites the counter for mode. Unknown modes are ignored.
func (a *Account) SetFreeQuota(mode Mode, n int) {
	switch mode {
	case ModeStylize:
		a.FreeStylize = n
	case ModeRemoveBg:
		a.FreeRemoveBg = n
	case ModeEnhance:
		a.FreeEnhance = n
	}
}

// Referrer returns the referrer id, or 0 when the account was not referred.
func (a *Account) Referrer() int64 {
	if a.ReferredBy == nil {
		return 0
	}
	return *a.ReferredBy
}

// DateOf truncates t to its UTC calendar date. Quota resets are keyed on it.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

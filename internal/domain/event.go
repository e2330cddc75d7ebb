package domain

import "time"

// EventKind identifies a ledger notification.
type EventKind string

const (
	EventReferralSignup EventKind = "referral_signup"
	EventReferralBonus  EventKind = "referral_bonus"
	EventBalance        EventKind = "balance"
)

// Event is emitted after a ledger change has been committed. UserID is the
// account the event is addressed to.
type Event struct {
	Kind      EventKind `json:"type"`
	UserID    int64     `json:"user_id"`
	RelatedID int64     `json:"related_id,omitempty"`
	Amount    int64     `json:"amount,omitempty"`
	Balance   int64     `json:"balance"`
	At        time.Time `json:"at"`
}

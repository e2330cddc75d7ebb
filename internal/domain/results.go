package domain

// QuotaResult is the outcome of a free-use consumption attempt.
type QuotaResult struct {
	Granted   bool `json:"granted"`
	Remaining int  `json:"remaining"`
}

// DebitResult is the outcome of a conditional debit. Success=false means the
// balance was insufficient; NewBalance is then the untouched balance.
type DebitResult struct {
	Success    bool  `json:"success"`
	NewBalance int64 `json:"new_balance"`
}

// AttributionResult reports whether a referral link was recorded.
type AttributionResult struct {
	Applied bool `json:"applied"`
}

// SettlementResult reports a referral bonus payout. Paid=false covers every
// no-op: no referrer, already settled, unknown referrer, lost race.
type SettlementResult struct {
	Paid       bool  `json:"paid"`
	ReferrerID int64 `json:"referrer_id,omitempty"`
	Bonus      int64 `json:"bonus,omitempty"`
}

// ChargeSource tells how a generation was paid for.
type ChargeSource string

const (
	ChargeFree ChargeSource = "free"
	ChargePaid ChargeSource = "paid"
	ChargeNone ChargeSource = "none"
)

// ChargeResult is the outcome of charging one generation: free quota first,
// then stars. Source=none means neither was available.
type ChargeResult struct {
	Source          ChargeSource      `json:"source"`
	Mode            Mode              `json:"mode"`
	Remaining       int               `json:"remaining"`
	Price           int64             `json:"price"`
	NewBalance      int64             `json:"new_balance"`
	Settlement      *SettlementResult `json:"settlement,omitempty"`
	SettlementError string            `json:"settlement_error,omitempty"`
}

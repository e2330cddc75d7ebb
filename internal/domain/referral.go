package domain

import (
	"strconv"
	"strings"
	"time"
)

// ReferralTierSize is how many paid referrals make up one bonus tier.
const ReferralTierSize = 5

// ReferralPayloadPrefix prefixes the referrer id in /start and startapp payloads.
const ReferralPayloadPrefix = "ref_"

// ReferralBonus returns the stars paid for the next referral of a referrer
// that already has paidCount paid referrals: 1 for referrals 1-5, 2 for 6-10
// and so on, uncapped.
func ReferralBonus(paidCount int) int64 {
	if paidCount < 0 {
		paidCount = 0
	}
	return int64(paidCount/ReferralTierSize) + 1
}

// ParseReferralPayload extracts the referrer id from "ref_<id>". Anything
// else, including non-positive ids, yields 0.
func ParseReferralPayload(payload string) int64 {
	payload = strings.TrimSpace(payload)
	if !strings.HasPrefix(payload, ReferralPayloadPrefix) {
		return 0
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(payload, ReferralPayloadPrefix), 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

// ReferralPayload is the inverse of ParseReferralPayload.
func ReferralPayload(referrerID int64) string {
	return ReferralPayloadPrefix + strconv.FormatInt(referrerID, 10)
}

// ReferralEntry is one referred account as seen by its referrer.
type ReferralEntry struct {
	AccountID int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Paid      bool      `json:"paid"`
}

// ReferralStats summarises a referrer's program.
type ReferralStats struct {
	TotalReferrals int             `json:"total_referrals"`
	PaidReferrals  int             `json:"paid_referrals"`
	TotalEarnings  int64           `json:"total_earnings"`
	NextBonus      int64           `json:"next_bonus"`
	Recent         []ReferralEntry `json:"recent_referrals"`
}

package domain

import "time"

// AuditEntry records an operator or login action. Ledger mutations driven by
// users are not audited here; the account row is the source of truth.
type AuditEntry struct {
	ID        int64          `db:"id" json:"id"`
	UserID    int64          `db:"user_id" json:"user_id"`
	ActorID   int64          `db:"actor_id" json:"actor_id,omitempty"`
	Action    string         `db:"action" json:"action"`
	Details   map[string]any `db:"details" json:"details"`
	IP        string         `db:"ip" json:"ip,omitempty"`
	UserAgent string         `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

const (
	AuditActionAdminCredit = "admin_credit"
	AuditActionLogin       = "login"
)

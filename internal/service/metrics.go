package service

import "github.com/prometheus/client_golang/prometheus"

var (
	quotaConsumeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_quota_consume_total",
			Help: "Free quota consumption attempts",
		},
		[]string{"mode", "result"},
	)
	debitTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_debit_total",
			Help: "Star debit attempts",
		},
		[]string{"result"},
	)
	creditStarsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_credit_stars_total",
			Help: "Stars credited to balances",
		},
	)
	referralAttributionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_referral_attributions_total",
			Help: "Referral attribution attempts",
		},
		[]string{"result"},
	)
	referralBonusTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_referral_bonus_total",
			Help: "Referral bonus settlement attempts",
		},
		[]string{"result"},
	)
	referralBonusStarsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_referral_bonus_stars_total",
			Help: "Stars paid out as referral bonuses",
		},
	)
	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_notifications_total",
			Help: "Post-commit notifications by outcome",
		},
		[]string{"kind", "result"},
	)
)

func init() {
	prometheus.MustRegister(
		quotaConsumeTotal,
		debitTotal,
		creditStarsTotal,
		referralAttributionsTotal,
		referralBonusTotal,
		referralBonusStarsTotal,
		notificationsTotal,
	)
}

func outcome(ok bool, err error, yes, no string) string {
	switch {
	case err != nil:
		return "error"
	case ok:
		return yes
	default:
		return no
	}
}

// Package metrics provides Prometheus metrics for hackgrid: reward flow,
// level-ups, mission and achievement activity, HTTP and health.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Rewards ────────────────────────────────────────────────────────────────

// XPGranted tracks XP granted by reward source.
var XPGranted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "hackgrid",
	Name:      "xp_granted_total",
	Help:      "Total XP granted.",
}, []string{"source"})

// CoinsGranted tracks coins granted by reward source, level-up bonuses included.
var CoinsGranted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "hackgrid",
	Name:      "coins_granted_total",
	Help:      "Total coins granted.",
}, []string{"source"})

// LevelUps counts levels gained across all users.
var LevelUps = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "hackgrid",
	Name:      "level_ups_total",
	Help:      "Total levels gained.",
})

// ─── Activity ───────────────────────────────────────────────────────────────

// SolvesRecorded counts verified solves by difficulty.
var SolvesRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "hackgrid",
	Name:      "solves_recorded_total",
	Help:      "Total verified puzzle solves.",
}, []string{"difficulty"})

// Logins counts first-of-day logins.
var Logins = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "hackgrid",
	Name:      "daily_logins_total",
	Help:      "Total first-of-day logins.",
})

// ─── Missions & Achievements ────────────────────────────────────────────────

// MissionSetsRolled counts mission windows opened by period.
var MissionSetsRolled = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "hackgrid",
	Name:      "mission_sets_rolled_total",
	Help:      "Total mission windows rolled.",
}, []string{"period"})

// MissionsClaimed counts claimed missions by mission id.
var MissionsClaimed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "hackgrid",
	Name:      "missions_claimed_total",
	Help:      "Total mission rewards claimed.",
}, []string{"mission"})

// AchievementsUnlocked counts unlocks by achievement id.
var AchievementsUnlocked = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "hackgrid",
	Name:      "achievements_unlocked_total",
	Help:      "Total achievements unlocked.",
}, []string{"achievement"})

// NotificationsSuppressed counts notifications dropped by the daily cap.
var NotificationsSuppressed = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "hackgrid",
	Name:      "notifications_suppressed_total",
	Help:      "Notifications dropped by the per-day cap.",
})

// ─── HTTP ───────────────────────────────────────────────────────────────────

// HTTPRequestDuration tracks API latency by route pattern and status.
var HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "hackgrid",
	Name:      "http_request_duration_seconds",
	Help:      "HTTP request duration in seconds.",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
}, []string{"route", "method", "status"})

// ─── Health ─────────────────────────────────────────────────────────────────

// HealthCheckStatus reports each health check (1 = healthy, 0 = unhealthy).
var HealthCheckStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "hackgrid",
	Name:      "health_check_status",
	Help:      "Health check status (1 = healthy, 0 = unhealthy).",
}, []string{"check"})

// HealthRecoveries counts recovery attempts by check.
var HealthRecoveries = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "hackgrid",
	Name:      "health_recoveries_total",
	Help:      "Total health recovery attempts.",
}, []string{"check"})

// ─── Store ──────────────────────────────────────────────────────────────────

// UsersTotal reports the number of known users.
var UsersTotal = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "hackgrid",
	Name:      "users",
	Help:      "Number of users with progression state.",
})

// ExpiredMissionsPurged counts mission instances deleted by maintenance.
var ExpiredMissionsPurged = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "hackgrid",
	Name:      "expired_missions_purged_total",
	Help:      "Expired mission instances removed by maintenance.",
})

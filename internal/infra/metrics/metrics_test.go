package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func gatheredNames(t *testing.T) map[string]bool {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	return names
}

func TestRewardCounters(t *testing.T) {
	XPGranted.WithLabelValues("PUZZLE_SOLVE").Add(125)
	CoinsGranted.WithLabelValues("PUZZLE_SOLVE").Add(60)
	LevelUps.Inc()

	if got := testutil.ToFloat64(XPGranted.WithLabelValues("PUZZLE_SOLVE")); got < 125 {
		t.Errorf("xp counter = %v, want >= 125", got)
	}

	names := gatheredNames(t)
	for _, want := range []string{
		"hackgrid_xp_granted_total",
		"hackgrid_coins_granted_total",
		"hackgrid_level_ups_total",
	} {
		if !names[want] {
			t.Errorf("%s not found in gathered metrics", want)
		}
	}
}

func TestActivityCounters(t *testing.T) {
	SolvesRecorded.WithLabelValues("HARD").Inc()
	Logins.Inc()
	MissionSetsRolled.WithLabelValues("DAILY").Inc()
	MissionsClaimed.WithLabelValues("daily_login").Inc()
	AchievementsUnlocked.WithLabelValues("first_hack").Inc()
	NotificationsSuppressed.Inc()

	names := gatheredNames(t)
	for _, want := range []string{
		"hackgrid_solves_recorded_total",
		"hackgrid_daily_logins_total",
		"hackgrid_mission_sets_rolled_total",
		"hackgrid_missions_claimed_total",
		"hackgrid_achievements_unlocked_total",
		"hackgrid_notifications_suppressed_total",
	} {
		if !names[want] {
			t.Errorf("%s not found in gathered metrics", want)
		}
	}
}

func TestHealthGauge(t *testing.T) {
	HealthCheckStatus.WithLabelValues("database").Set(1)
	HealthCheckStatus.WithLabelValues("catalog").Set(0)

	if got := testutil.ToFloat64(HealthCheckStatus.WithLabelValues("database")); got != 1 {
		t.Errorf("database gauge = %v, want 1", got)
	}
	if got := testutil.ToFloat64(HealthCheckStatus.WithLabelValues("catalog")); got != 0 {
		t.Errorf("catalog gauge = %v, want 0", got)
	}
}

func TestHTTPHistogram(t *testing.T) {
	HTTPRequestDuration.WithLabelValues("/api/users/{id}", "GET", "200").Observe(0.003)
	if !gatheredNames(t)["hackgrid_http_request_duration_seconds"] {
		t.Error("hackgrid_http_request_duration_seconds not found")
	}
}

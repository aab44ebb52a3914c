package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	loginSuccess = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vivint2mqtt_session_login_success_total",
			Help: "Successful Vivint cloud logins",
		},
	)
	loginFailure = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vivint2mqtt_session_login_failure_total",
			Help: "Failed Vivint cloud logins",
		},
		[]string{"reason"},
	)
	mfaChallenges = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vivint2mqtt_session_mfa_challenges_total",
			Help: "Logins interrupted by a multi-factor challenge",
		},
	)
	sessionUp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vivint2mqtt_session_up",
			Help: "Vivint session state (1=logged in, 0=logged out)",
		},
	)
	refreshSuccess = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vivint2mqtt_refresh_success_total",
			Help: "Completed full device refreshes",
		},
	)
	refreshFailure = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vivint2mqtt_refresh_failure_total",
			Help: "Failed full device refreshes",
		},
	)
	apiCallSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "vivint2mqtt_api_call_duration_seconds",
			Help: "Vivint cloud API call latency",
		},
		[]string{"op"},
	)
)

// MetricsCollectors returns collectors for the session service.
func MetricsCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		loginSuccess,
		loginFailure,
		mfaChallenges,
		sessionUp,
		refreshSuccess,
		refreshFailure,
		apiCallSeconds,
	}
}

// CountRefresh records the outcome of a periodic full refresh.
func CountRefresh(err error) {
	if err != nil {
		refreshFailure.Inc()
		return
	}
	refreshSuccess.Inc()
}

func observeAPICall(op string, elapsed time.Duration) {
	apiCallSeconds.WithLabelValues(op).Observe(elapsed.Seconds())
}

package internaldefs

import (
	noted "github.com/MrEthical07/noted"
)

// CounterDef names one counter for exporters.
type CounterDef struct {
	ID   noted.MetricID
	Name string
	Help string
}

// HistogramDef names one histogram for exporters.
type HistogramDef struct {
	ID   noted.MetricID
	Name string
	Help string
}

// EventsDroppedName is the counter exporting Client.EventsDropped.
const EventsDroppedName = "noted_events_dropped_total"

// EventsDroppedHelp describes EventsDroppedName.
const EventsDroppedHelp = "Client events dropped on a full queue or after the emitting context ended."

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: noted.MetricNavigationAllowed, Name: "noted_navigation_allowed_total", Help: "Navigations the guard allowed."},
	{ID: noted.MetricNavigationRedirectLogin, Name: "noted_navigation_redirect_login_total", Help: "Navigations redirected to the login route."},
	{ID: noted.MetricNavigationRedirectLanding, Name: "noted_navigation_redirect_landing_total", Help: "Navigations redirected to the landing route."},
	{ID: noted.MetricRequestAuthorized, Name: "noted_requests_authorized_total", Help: "Requests sent with a bearer token."},
	{ID: noted.MetricRequestAnonymous, Name: "noted_requests_anonymous_total", Help: "Requests sent without a bearer token."},
	{ID: noted.MetricAuthFailure, Name: "noted_auth_failures_total", Help: "Responses answered with HTTP 401."},
	{ID: noted.MetricSessionCleared, Name: "noted_sessions_cleared_total", Help: "Session clears that removed a token."},
	{ID: noted.MetricLoginSuccess, Name: "noted_login_success_total", Help: "Logins that stored a session."},
	{ID: noted.MetricLoginFailure, Name: "noted_login_failure_total", Help: "Rejected or failed logins."},
	{ID: noted.MetricLogout, Name: "noted_logout_total", Help: "Explicit logouts."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: noted.MetricRequestLatency, Name: "noted_request_latency_seconds", Help: "HTTP round-trip latency through the interceptor pipeline."},
}

// HistogramBounds are the bucket upper bounds in seconds, as Prometheus le labels.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix spells HistogramBounds for instrument names.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to eight buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}

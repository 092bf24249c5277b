package internaldefs

import (
	"strconv"

	goSession "github.com/MrEthical07/goSession"
)

// CounterDef names one exported counter.
type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// HistogramDef names one exported latency histogram.
type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// CounterDefs lists every counter in export order.
var CounterDefs = []CounterDef{
	{ID: goSession.MetricLoadRestored, Name: "gosession_load_restored_total", Help: "Initial loads that restored a persisted session."},
	{ID: goSession.MetricLoadEmpty, Name: "gosession_load_empty_total", Help: "Initial loads that found no complete session."},
	{ID: goSession.MetricLoadCorrupt, Name: "gosession_load_corrupt_total", Help: "Initial loads whose user record failed to decode."},
	{ID: goSession.MetricLoadUnavailable, Name: "gosession_load_unavailable_total", Help: "Initial loads that could not read storage."},
	{ID: goSession.MetricLoginSuccess, Name: "gosession_login_success_total", Help: "Logins persisted and published."},
	{ID: goSession.MetricLoginFailure, Name: "gosession_login_failure_total", Help: "Logins that failed to persist."},
	{ID: goSession.MetricLoginRollbackFailure, Name: "gosession_login_rollback_failure_total", Help: "Failed storage restores after a failed login."},
	{ID: goSession.MetricLogout, Name: "gosession_logout_total", Help: "Completed logouts."},
	{ID: goSession.MetricLogoutStorageFailure, Name: "gosession_logout_storage_failure_total", Help: "Logouts whose key removal failed."},
	{ID: goSession.MetricRemoteRevokeSuccess, Name: "gosession_remote_revoke_success_total", Help: "Remote revokes accepted by the service."},
	{ID: goSession.MetricRemoteRevokeRejected, Name: "gosession_remote_revoke_rejected_total", Help: "Remote revokes rejected by the service."},
	{ID: goSession.MetricRemoteRevokeError, Name: "gosession_remote_revoke_error_total", Help: "Remote revokes that failed in transport."},
	{ID: goSession.MetricUpdateUserSuccess, Name: "gosession_update_user_success_total", Help: "Persisted user updates."},
	{ID: goSession.MetricUpdateUserFailure, Name: "gosession_update_user_failure_total", Help: "User updates that failed or were refused."},
}

// HistogramDefs lists every latency histogram in export order.
var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricLoadLatency, Name: "gosession_load_latency_seconds", Help: "Initial load latency."},
	{ID: goSession.MetricLoginLatency, Name: "gosession_login_latency_seconds", Help: "Login persistence latency."},
	{ID: goSession.MetricLogoutLatency, Name: "gosession_logout_latency_seconds", Help: "End-to-end logout latency."},
	{ID: goSession.MetricUpdateUserLatency, Name: "gosession_update_user_latency_seconds", Help: "User update latency."},
}

// AuditLostName counts audit events that never reached the sink, split by
// the reason label.
const (
	AuditLostName = "gosession_audit_lost_total"
	AuditLostHelp = "Audit events that never reached the sink."
	ReasonLabel   = "reason"

	// AuditLostDropped marks events dropped because the buffer was full.
	AuditLostDropped = "dropped"
	// AuditLostFailed marks events lost to a panicking sink.
	AuditLostFailed = "failed"
)

// BucketCount is the number of histogram buckets, including +Inf.
const BucketCount = len(goSession.HistogramBucketBounds) + 1

// HistogramBounds returns the finite bucket upper bounds in seconds.
func HistogramBounds() []float64 {
	out := make([]float64, len(goSession.HistogramBucketBounds))
	for i, d := range goSession.HistogramBucketBounds {
		out[i] = d.Seconds()
	}
	return out
}

// HistogramBoundLabel returns the "le" label of bucket i in Prometheus
// notation, e.g. "0.005" or "+Inf".
func HistogramBoundLabel(i int) string {
	if i >= len(goSession.HistogramBucketBounds) {
		return "+Inf"
	}
	return strconv.FormatFloat(goSession.HistogramBucketBounds[i].Seconds(), 'f', -1, 64)
}

// NormalizeBuckets copies raw into a fixed-size array, zero-filling when
// latency histograms are disabled.
func NormalizeBuckets(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	copy(out[:], raw)
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [BucketCount]uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}

// Package prometheus renders goGuard metrics in Prometheus text exposition
// format.
//
// [NewExporter] wraps a Guard and exposes an [http.Handler]. Counter names
// are prefixed goguard_ and suffixed _total; the single histogram is
// goguard_verify_latency_seconds and is only rendered when latency
// histograms are enabled.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry; callers mount the Handler.
//   - Mutate guard state.
package prometheus

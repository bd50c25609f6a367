// Package metrics exports dispatcher activity as Prometheus metrics.
//
// A Collector is a diagnostics.Observer. It counts issued and completed
// requests, records their durations and reports the number pending, all on
// its own registry so tests and embedders never share global state.
//
//	m := metrics.New(nil)
//	dispatcher := diagnostics.NewDispatcher(bridge, bridge, policy, diagnostics.Observers{m, journalObserver})
//	m.TrackPending(dispatcher.Registry())
//	http.Handle("/metrics", m.Handler())
package metrics

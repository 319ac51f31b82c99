// Package ripple is the root of a small demand-driven stream engine.
//
// The protocol types live in [github.com/gordian-engine/ripple/rflow].
// Producers are in rtimer and rsource,
// multicast with bounded replay is in rreplay,
// and rpause contains a one-value-at-a-time consumer.
//
// Every producer in this module honors pull-based backpressure:
// it never delivers more values than its subscriber has requested.
package ripple

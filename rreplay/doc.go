// Package rreplay contains [Hub], a multicast publisher with bounded replay.
//
// A Hub subscribes to its upstream publisher once,
// with unbounded demand, the first time anything subscribes to the Hub.
// Every downstream subscriber then gets its own demand accounting,
// and late subscribers first receive the most recent values
// the Hub has buffered.
//
// Unlike [github.com/gordian-engine/ripple/rsource.Subject],
// a slow downstream subscriber never misses a value outright
// until its private backlog exceeds the replay capacity;
// after that, the oldest pending values are dropped first.
package rreplay

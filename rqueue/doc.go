// Package rqueue contains execution contexts for producer callbacks.
//
// A producer such as [github.com/gordian-engine/ripple/rtimer.Publisher]
// does not decide where its callbacks run.
// The host supplies a [Queue], and the producer dispatches work onto it.
package rqueue

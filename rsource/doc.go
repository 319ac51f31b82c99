// Package rsource contains publishers that bridge plain Go values
// into the demand protocol of [github.com/gordian-engine/ripple/rflow].
//
// [Subject] is pushed to by the host and drops values for subscribers
// without demand, [FromSlice] replays a fixed sequence on demand,
// and [FromChannel] pulls from a channel only while there is demand.
package rsource

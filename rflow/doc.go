// Package rflow contains the demand protocol shared by every producer
// and consumer in ripple.
//
// A [Publisher] hands each [Subscriber] a [Subscription].
// The subscriber pulls values by calling [Subscription.Request]
// with a [Demand], and a publisher never delivers more values
// than the net demand it has been granted.
// A stream ends with exactly one [Completion],
// or earlier if the subscriber calls [Subscription.Cancel].
package rflow

package rflow

// Subscription is the live link between one [Publisher] and one [Subscriber].
//
// Once a subscription is cancelled or has delivered its [Completion],
// both methods are no-ops.
type Subscription interface {
	// Request adds d to the outstanding demand.
	// Requesting [None] is allowed and has no effect
	// beyond possibly flushing a pending completion.
	Request(d Demand)

	// Cancel stops delivery to the subscriber and releases
	// any resources the subscription holds.
	// Cancel is idempotent.
	Cancel()
}

// Subscriber consumes values from a [Publisher].
//
// A publisher calls ReceiveSubscription exactly once,
// then ReceiveValue zero or more times in emission order,
// then ReceiveCompletion at most once.
// Calls for a single subscription never overlap.
type Subscriber[T any] interface {
	ReceiveSubscription(s Subscription)

	// ReceiveValue returns additional demand,
	// which the publisher adds to the outstanding demand.
	// Return [None] to leave demand unchanged.
	ReceiveValue(v T) Demand

	ReceiveCompletion(c Completion)
}

// Publisher produces values for any number of subscribers,
// honoring the demand each of them requests.
type Publisher[T any] interface {
	// Subscribe attaches s and returns the new subscription.
	// The same subscription is passed to s.ReceiveSubscription
	// before Subscribe returns.
	Subscribe(s Subscriber[T]) Subscription
}

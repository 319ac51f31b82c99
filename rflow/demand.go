package rflow

import (
	"fmt"
	"math"
)

// Demand is the number of values a subscriber is currently willing to accept.
// It is either a bounded non-negative count or unbounded.
//
// The zero value is equal to [None].
type Demand struct {
	n         int64
	unbounded bool
}

var (
	// None is a demand for no further values.
	None = Demand{}

	// Unbounded is a demand for every value the publisher will ever produce.
	Unbounded = Demand{unbounded: true}
)

// Max returns a bounded demand for n values.
// Max panics if n is negative.
func Max(n int) Demand {
	if n < 0 {
		panic(fmt.Errorf("BUG: demand must not be negative (got %d)", n))
	}
	return Demand{n: int64(n)}
}

// Add returns the sum of d and o.
// Unbounded absorbs everything, and bounded sums saturate
// rather than overflow.
func (d Demand) Add(o Demand) Demand {
	if d.unbounded || o.unbounded {
		return Unbounded
	}
	if d.n > math.MaxInt64-o.n {
		return Demand{n: math.MaxInt64}
	}
	return Demand{n: d.n + o.n}
}

// Sub returns d reduced by n values, saturating at [None].
// Unbounded minus anything is still Unbounded.
func (d Demand) Sub(n int) Demand {
	if n < 0 {
		panic(fmt.Errorf("BUG: cannot subtract negative count %d from demand", n))
	}
	if d.unbounded {
		return d
	}
	if int64(n) >= d.n {
		return None
	}
	return Demand{n: d.n - int64(n)}
}

// SubOne is shorthand for d.Sub(1),
// which is how producers account for a single emitted value.
func (d Demand) SubOne() Demand {
	return d.Sub(1)
}

// IsPositive reports whether d permits at least one more value.
func (d Demand) IsPositive() bool {
	return d.unbounded || d.n > 0
}

// IsUnbounded reports whether d is [Unbounded].
func (d Demand) IsUnbounded() bool {
	return d.unbounded
}

// Count returns the bounded count of d.
// If d is unbounded, bounded is false and n is meaningless.
func (d Demand) Count() (n int64, bounded bool) {
	if d.unbounded {
		return 0, false
	}
	return d.n, true
}

func (d Demand) String() string {
	if d.unbounded {
		return "unbounded"
	}
	return fmt.Sprintf("max(%d)", d.n)
}

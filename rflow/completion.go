package rflow

// Completion is the terminal outcome of a stream.
// A subscription delivers at most one Completion.
//
// The zero value is a successful completion, equal to [Finished].
type Completion struct {
	err error
}

// Finished returns the successful terminal outcome.
func Finished() Completion {
	return Completion{}
}

// Failed returns a failure outcome carrying err.
// Failed panics if err is nil, since that would be indistinguishable from [Finished].
func Failed(err error) Completion {
	if err == nil {
		panic("BUG: Failed requires a non-nil error")
	}
	return Completion{err: err}
}

// Err returns the cause of a failed completion,
// or nil if the stream finished successfully.
func (c Completion) Err() error {
	return c.err
}

// IsFinished reports whether c is a successful completion.
func (c Completion) IsFinished() bool {
	return c.err == nil
}

func (c Completion) String() string {
	if c.err == nil {
		return "finished"
	}
	return "failed: " + c.err.Error()
}

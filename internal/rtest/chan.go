package rtest

import (
	"testing"
	"time"
)

// soonTimeout bounds how long the *Soon helpers wait.
// Generous so that loaded CI machines do not flake.
const soonTimeout = 2 * time.Second

// ReceiveSoon fails the test if no value arrives on ch
// within a short timeout, and otherwise returns the received value.
func ReceiveSoon[T any](t testing.TB, ch <-chan T) T {
	t.Helper()

	select {
	case v := <-ch:
		return v
	case <-time.After(soonTimeout):
		t.Fatalf("no value received within %s", soonTimeout)
	}

	panic("unreachable")
}

// SendSoon fails the test if v cannot be sent on ch within a short timeout.
func SendSoon[T any](t testing.TB, ch chan<- T, v T) {
	t.Helper()

	select {
	case ch <- v:
	case <-time.After(soonTimeout):
		t.Fatalf("could not send within %s", soonTimeout)
	}
}

// IsSending fails the test if ch is not immediately readable.
func IsSending[T any](t testing.TB, ch <-chan T) {
	t.Helper()

	select {
	case <-ch:
	default:
		t.Fatal("channel should have been sending")
	}
}

// NotSending fails the test if ch becomes readable within a brief window.
func NotSending[T any](t testing.TB, ch <-chan T) {
	t.Helper()

	select {
	case v := <-ch:
		t.Fatalf("channel should not have been sending, but received %v", v)
	case <-time.After(10 * time.Millisecond):
	}
}

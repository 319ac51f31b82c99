// Package rtest contains test helpers shared across ripple packages.
package rtest

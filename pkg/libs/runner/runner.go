// Package runner decides where host work runs: inline or on its own goroutine.
package runner

type Runner interface {
	Go(f func())
}

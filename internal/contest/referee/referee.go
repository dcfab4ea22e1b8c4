// Package referee defines the scoring contract between the callback
// pipeline and the grading algorithm.
package referee

// Referee awards points for a run's output against the expected output.
//
// Implementations must be deterministic: two calls with identical inputs
// must award identical points. The callback pipeline relies on this to keep
// redelivered callbacks idempotent. A referee never mutates submission
// state; it only computes a value in [0, maxPoints].
type Referee interface {
	Evaluate(actual []byte, expected string, maxPoints int) int
}

// Func adapts a plain function to the Referee interface.
type Func func(actual []byte, expected string, maxPoints int) int

// Evaluate calls f.
func (f Func) Evaluate(actual []byte, expected string, maxPoints int) int {
	return f(actual, expected, maxPoints)
}

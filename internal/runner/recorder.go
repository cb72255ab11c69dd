package runner

import "context"

// Recorder is a Runner test double that records every invocation instead of
// executing anything.
type Recorder struct {
	// Invocations holds every Spec passed to Run, in call order.
	Invocations []Spec
	// Err, when set, is returned by every Run call.
	Err error
}

// Run implements Runner.
func (r *Recorder) Run(_ context.Context, spec Spec) error {
	r.Invocations = append(r.Invocations, spec)

	return r.Err
}

package runner

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/aseprite-builder/aseprite-builder/errdefs"
)

// Recorder is a Runner that records steps instead of executing them.
// Steps whose command line contains FailOn fail with ErrCommandFailed.
type Recorder struct {
	Steps  []Step
	FailOn string
	// Probes maps a probed command line to its answer. Missing entries
	// answer true.
	Probes map[string]bool
}

var _ Runner = (*Recorder)(nil)

func (r *Recorder) Run(_ context.Context, step Step) error {
	r.Steps = append(r.Steps, step)
	if r.FailOn != "" && strings.Contains(step.String(), r.FailOn) {
		return errors.Wrapf(errdefs.ErrCommandFailed, "%s", step)
	}
	return nil
}

func (r *Recorder) Probe(_ context.Context, args ...string) bool {
	ok, found := r.Probes[strings.Join(args, " ")]
	return !found || ok
}

// Commands returns the recorded steps as command lines.
func (r *Recorder) Commands() []string {
	out := make([]string, 0, len(r.Steps))
	for _, s := range r.Steps {
		out = append(out, s.String())
	}
	return out
}

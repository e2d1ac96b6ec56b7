// Package runner executes external commands as discrete steps. A failing
// step is reported as errdefs.ErrCommandFailed; nothing is retried.
package runner

import (
	"context"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/aseprite-builder/aseprite-builder/errdefs"
	"github.com/aseprite-builder/aseprite-builder/log"
)

// Step is a single process invocation. Args is passed to exec without a
// shell, Env overrides entries of the inherited environment.
type Step struct {
	Args       []string
	Dir        string
	Env        map[string]string
	Stdin      string
	Privileged bool

	Success string
	Failure string
}

func (s Step) String() string {
	cmd := strings.Join(s.Args, " ")
	if s.Privileged {
		cmd = "sudo " + cmd
	}
	return cmd
}

type Runner interface {
	Run(ctx context.Context, step Step) error
	// Probe reports whether the command exits with status 0.
	Probe(ctx context.Context, args ...string) bool
}

// Exec runs steps on the host.
type Exec struct {
	// Quiet discards the child's stdout.
	Quiet bool
	// Root is true when the current process already runs as root, in which
	// case privileged steps are not prefixed with sudo.
	Root bool
}

var _ Runner = (*Exec)(nil)

func (e *Exec) Run(ctx context.Context, step Step) error {
	if len(step.Args) == 0 {
		return errors.New("empty command")
	}
	args := step.Args
	if step.Privileged && !e.Root {
		args = append([]string{"sudo"}, args...)
	}

	log.G(ctx).Debugf("Running: %s", strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = step.Dir
	if !e.Quiet {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = os.Stderr
	if step.Stdin != "" {
		cmd.Stdin = strings.NewReader(step.Stdin)
	}
	if len(step.Env) > 0 {
		cmd.Env = MergeEnv(os.Environ(), step.Env)
	}

	if err := cmd.Run(); err != nil {
		if step.Failure != "" {
			log.G(ctx).Error(step.Failure)
		}
		return errors.Wrapf(errdefs.ErrCommandFailed, "%s: %v", step, err)
	}
	if step.Success != "" {
		log.G(ctx).Info(step.Success)
	}
	return nil
}

func (e *Exec) Probe(ctx context.Context, args ...string) bool {
	if len(args) == 0 {
		return false
	}
	return exec.CommandContext(ctx, args[0], args[1:]...).Run() == nil
}

// RunAll runs steps in order and stops at the first failure.
func RunAll(ctx context.Context, r Runner, steps ...Step) error {
	for _, step := range steps {
		if err := r.Run(ctx, step); err != nil {
			return err
		}
	}
	return nil
}

// MergeEnv applies override on top of base and returns a sorted KEY=VALUE list.
func MergeEnv(base []string, override map[string]string) []string {
	envMap := make(map[string]string, len(base))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range override {
		envMap[k] = v
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
}

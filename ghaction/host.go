// Package ghaction connects the deployment workflow to the GitHub Actions
// runner: annotations, secret masking and step outputs.
package ghaction

import (
	"github.com/sethvargo/go-githubactions"
)

// Host reports to the GitHub Actions runner through workflow commands
type Host struct {
	action *githubactions.Action
	failed bool
}

// New creates a Host writing to the runner's stdout and GITHUB_OUTPUT file
func New(opts ...githubactions.Option) *Host {
	return &Host{action: githubactions.New(opts...)}
}

// Infof prints an informational line to the step log
func (h *Host) Infof(format string, args ...any) {
	h.action.Infof(format, args...)
}

// Mask hides value in all later log output
func (h *Host) Mask(value string) {
	if value == "" {
		return
	}
	h.action.AddMask(value)
}

// SetOutput publishes a named step output
func (h *Host) SetOutput(name, value string) {
	h.action.SetOutput(name, value)
}

// Fail emits an error annotation and marks the step as failed.
// The exit code is applied by the caller via ExitCode.
func (h *Host) Fail(message string) {
	h.failed = true
	h.action.Errorf("%s", message)
}

// Failed reports whether Fail was called
func (h *Host) Failed() bool {
	return h.failed
}

// ExitCode returns the process exit code for the step
func (h *Host) ExitCode() int {
	if h.failed {
		return 1
	}
	return 0
}

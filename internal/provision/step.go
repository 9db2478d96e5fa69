// SPDX-License-Identifier: MPL-2.0

package provision

import "context"

// StepStatus values, in the order a step can report them.
const (
	// StatusSkipped means the presence check passed and no work was done.
	StatusSkipped StepStatus = "skipped"
	// StatusInstalled means the component was absent and was installed.
	StatusInstalled StepStatus = "installed"
	// StatusRefreshed means the component was present and was updated in place.
	StatusRefreshed StepStatus = "refreshed"
	// StatusFailed means the step failed and aborted the provisioning run.
	StatusFailed StepStatus = "failed"
	// StatusSoftFailed means a non-fatal verification step failed; the run
	// continues and the failure is surfaced for manual diagnosis.
	StatusSoftFailed StepStatus = "soft-failed"
)

type (
	// StepStatus is the outcome of a single provisioning step.
	StepStatus string

	// Step is one unit of the provisioning workflow.
	Step struct {
		// Name identifies the step in logs and results.
		Name string

		// Present reports whether the component already exists. A nil Present
		// means the step runs unconditionally (cache dirs, generated scripts).
		Present func(ctx context.Context) (bool, error)

		// Install brings the component into existence. Required.
		Install func(ctx context.Context) error

		// Refresh updates an already-present component in place. Optional;
		// when nil, a present component is skipped. The model source tree
		// uses this for its "always stay current" policy.
		Refresh func(ctx context.Context) error

		// Soft marks the step's failure as non-fatal (the import self-test).
		Soft bool
	}

	// StepResult records the outcome of one executed step.
	StepResult struct {
		// Step is the step name.
		Step string

		// Status is the step outcome.
		Status StepStatus

		// Err is the failure cause for failed and soft-failed steps.
		Err error
	}
)

// run executes a single step and returns its result.
func (s Step) run(ctx context.Context) StepResult {
	if s.Present != nil {
		present, err := s.Present(ctx)
		if err != nil {
			return StepResult{Step: s.Name, Status: StatusFailed, Err: err}
		}
		if present {
			if s.Refresh == nil {
				return StepResult{Step: s.Name, Status: StatusSkipped}
			}
			if err := s.Refresh(ctx); err != nil {
				return s.failure(err)
			}
			return StepResult{Step: s.Name, Status: StatusRefreshed}
		}
	}

	if err := s.Install(ctx); err != nil {
		return s.failure(err)
	}
	return StepResult{Step: s.Name, Status: StatusInstalled}
}

func (s Step) failure(err error) StepResult {
	status := StatusFailed
	if s.Soft {
		status = StatusSoftFailed
	}
	return StepResult{Step: s.Name, Status: status, Err: err}
}

// Fatal reports whether this result must abort a fail-fast run.
func (r StepResult) Fatal() bool {
	return r.Status == StatusFailed
}

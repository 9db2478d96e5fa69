// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"errors"
	"testing"
)

func TestStep_PresentSkips(t *testing.T) {
	installed := false
	step := Step{
		Name:    "demo",
		Present: func(ctx context.Context) (bool, error) { return true, nil },
		Install: func(ctx context.Context) error { installed = true; return nil },
	}

	result := step.run(context.Background())

	if result.Status != StatusSkipped {
		t.Errorf("expected skipped, got %s", result.Status)
	}
	if installed {
		t.Error("install must not run for a present component")
	}
}

func TestStep_AbsentInstalls(t *testing.T) {
	step := Step{
		Name:    "demo",
		Present: func(ctx context.Context) (bool, error) { return false, nil },
		Install: func(ctx context.Context) error { return nil },
	}

	if got := step.run(context.Background()).Status; got != StatusInstalled {
		t.Errorf("expected installed, got %s", got)
	}
}

func TestStep_PresentWithRefreshRefreshes(t *testing.T) {
	refreshed := false
	step := Step{
		Name:    "demo",
		Present: func(ctx context.Context) (bool, error) { return true, nil },
		Install: func(ctx context.Context) error { t.Fatal("install must not run"); return nil },
		Refresh: func(ctx context.Context) error { refreshed = true; return nil },
	}

	result := step.run(context.Background())

	if result.Status != StatusRefreshed {
		t.Errorf("expected refreshed, got %s", result.Status)
	}
	if !refreshed {
		t.Error("refresh did not run")
	}
}

func TestStep_NilPresentRunsUnconditionally(t *testing.T) {
	runs := 0
	step := Step{
		Name:    "demo",
		Install: func(ctx context.Context) error { runs++; return nil },
	}

	step.run(context.Background())
	step.run(context.Background())

	if runs != 2 {
		t.Errorf("expected unconditional step to run every time, ran %d times", runs)
	}
}

func TestStep_InstallFailure(t *testing.T) {
	cause := errors.New("boom")
	step := Step{
		Name:    "demo",
		Present: func(ctx context.Context) (bool, error) { return false, nil },
		Install: func(ctx context.Context) error { return cause },
	}

	result := step.run(context.Background())

	if result.Status != StatusFailed {
		t.Errorf("expected failed, got %s", result.Status)
	}
	if !errors.Is(result.Err, cause) {
		t.Errorf("expected cause to be preserved, got %v", result.Err)
	}
	if !result.Fatal() {
		t.Error("a failed step must be fatal")
	}
}

func TestStep_SoftFailureIsNotFatal(t *testing.T) {
	step := Step{
		Name:    "demo",
		Soft:    true,
		Install: func(ctx context.Context) error { return errors.New("import error") },
	}

	result := step.run(context.Background())

	if result.Status != StatusSoftFailed {
		t.Errorf("expected soft-failed, got %s", result.Status)
	}
	if result.Fatal() {
		t.Error("a soft failure must not abort the run")
	}
}

func TestStep_PresenceCheckErrorIsFatal(t *testing.T) {
	cause := errors.New("stat failed")
	step := Step{
		Name:    "demo",
		Present: func(ctx context.Context) (bool, error) { return false, cause },
		Install: func(ctx context.Context) error { t.Fatal("install must not run"); return nil },
	}

	result := step.run(context.Background())

	if result.Status != StatusFailed {
		t.Errorf("expected failed, got %s", result.Status)
	}
	if !errors.Is(result.Err, cause) {
		t.Errorf("expected presence-check error, got %v", result.Err)
	}
}

// SPDX-License-Identifier: MPL-2.0

package cmd

import "fmt"

// ExitError carries the process exit code through the RunE error path so
// handlers never call os.Exit directly. Execute inspects it after fang
// has rendered the error.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"
	"strconv"
	"strings"

	"cuelang.org/go/cue/errors"
)

// DefaultMaxFileSize caps config files before they reach the CUE compiler.
const DefaultMaxFileSize int64 = 1 << 20

// FormatError rewrites a CUE error so each line reads
// <file>: <json-path>: <message>, with the path in familiar
// bracket notation (provision.system_packages[1]) instead of CUE's
// flat path slices.
func FormatError(err error, filePath string) error {
	if err == nil {
		return nil
	}

	cueErrs := errors.Errors(err)
	if len(cueErrs) == 0 {
		return fmt.Errorf("%s: %w", filePath, err)
	}

	lines := make([]string, 0, len(cueErrs))
	for _, e := range cueErrs {
		lines = append(lines, formatOne(e))
	}

	if len(lines) == 1 {
		return fmt.Errorf("%s: %s", filePath, lines[0])
	}
	return fmt.Errorf("%s: validation failed:\n  %s", filePath, strings.Join(lines, "\n  "))
}

func formatOne(e errors.Error) string {
	path := formatPath(errors.Path(e))
	msg := e.Error()

	// CUE sometimes repeats the path inside the message. Strip it so the
	// prefixed form does not say it twice.
	if path != "" {
		msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, path), ":"))
		return path + ": " + msg
	}
	return msg
}

// formatPath renders a CUE error path as a JSON path. Numeric elements are
// list indices, so ["steps", "0", "name"] becomes "steps[0].name".
func formatPath(path []string) string {
	var b strings.Builder
	for i, part := range path {
		if _, err := strconv.Atoi(part); err == nil && i > 0 {
			fmt.Fprintf(&b, "[%s]", part)
			continue
		}
		if i > 0 {
			b.WriteString(".")
		}
		b.WriteString(part)
	}
	return b.String()
}

// CheckFileSize rejects inputs larger than maxSize before they reach the
// CUE compiler.
func CheckFileSize(data []byte, maxSize int64, filename string) error {
	if int64(len(data)) > maxSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes",
			filename, len(data), maxSize)
	}
	return nil
}

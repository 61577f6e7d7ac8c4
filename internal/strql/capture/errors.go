// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STRQL Contributors

package capture

import "fmt"

// CaptureConflict is returned when two captures try to write
// incompatible values at the same JSON location — e.g. a scalar
// capture and an array-append capture both targeting the same field,
// or two captures targeting the same object key (spec.md §4.3,
// §7 "Errors").
type CaptureConflict struct {
	Path string
}

func (e *CaptureConflict) Error() string {
	return fmt.Sprintf("capture conflict at %s: incompatible writes to the same location", e.Path)
}

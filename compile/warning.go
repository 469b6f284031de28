// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compile

import (
	"fmt"
	"strings"
)

// WarningKind classifies a non-fatal compilation finding.
type WarningKind uint8

const (
	// WarnUnknownResource flags a pass binding that references a resource
	// that was never registered.
	WarnUnknownResource WarningKind = iota

	// WarnNoWriter flags a resource that is read but never written.
	WarnNoWriter

	// WarnReadBeforeWrite flags a reader scheduled before every writer of
	// the resource, which would consume undefined data.
	WarnReadBeforeWrite

	// WarnInvalidTransition flags a resource-state machine violation found
	// during execution simulation.
	WarnInvalidTransition
)

// String returns a human-readable name for the warning kind.
func (k WarningKind) String() string {
	switch k {
	case WarnUnknownResource:
		return "UnknownResource"
	case WarnNoWriter:
		return "NoWriter"
	case WarnReadBeforeWrite:
		return "ReadBeforeWrite"
	case WarnInvalidTransition:
		return "InvalidTransition"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(k))
	}
}

// Warning is a non-fatal finding produced by Compile. The graph stays
// runnable; warnings describe likely-degraded output, not hard failures.
type Warning struct {
	// Kind classifies the finding.
	Kind WarningKind

	// Resource is the resource identifier involved, if any.
	Resource string

	// Pass is the pass identifier involved, if any.
	Pass string

	// Message is the human-readable description.
	Message string
}

// String formats the warning for logs.
func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Kind, w.Message)
}

// CycleError is the fatal result of compiling a graph whose passes form a
// dependency cycle. It names the members of one cycle; the caller must fix
// the declared graph, there is no runtime recovery.
type CycleError struct {
	// Passes lists the pass identifiers on the detected cycle, in edge order.
	Passes []string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return fmt.Sprintf("compile: dependency cycle: %s", strings.Join(e.Passes, " -> "))
}

/*
Copyright © 2025 Jayson Grace <jayson.e.grace@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/

// Package errors provides error wrapping utilities and the typed pipeline
// errors returned by the jdkbuild stages.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Wrap wraps an error with a descriptive action and optional detail.
// It returns a formatted error in the form "failed to <action> [(<detail>)]: <error>".
//
// Example usage:
//
//	if err := resolver.Resolve(ctx, cfg); err != nil {
//	    return errors.Wrap("resolve version", cfg.Variant.String(), err)
//	}
func Wrap(action, detail string, err error) error {
	if err == nil {
		return nil
	}

	if detail != "" {
		return fmt.Errorf("failed to %s (%s): %w", action, detail, err)
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

// Kind classifies a PipelineError.
type Kind int

const (
	// KindUnknown is the zero value and never produced by the pipeline.
	KindUnknown Kind = iota
	// KindResolution means no usable version tag could be determined.
	KindResolution
	// KindConfigure means the toolchain configure step exited with code 2.
	KindConfigure
	// KindMake means the toolchain make step exited with code 3.
	KindMake
	// KindToolchain is any other non-zero toolchain exit.
	KindToolchain
	// KindArchiveVerification means an expected artifact is missing or empty.
	KindArchiveVerification
	// KindMissingPropertySource means an SBOM from-file property had no file.
	KindMissingPropertySource
	// KindEnvironment means the host lacks a required capability.
	KindEnvironment
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case KindResolution:
		return "resolution"
	case KindConfigure:
		return "configure"
	case KindMake:
		return "make"
	case KindToolchain:
		return "toolchain"
	case KindArchiveVerification:
		return "archive verification"
	case KindMissingPropertySource:
		return "missing property source"
	case KindEnvironment:
		return "environment"
	default:
		return "unknown"
	}
}

// PipelineError is a fatal pipeline failure carrying a remediation hint.
type PipelineError struct {
	Kind        Kind
	Message     string
	Cause       error
	Remediation string
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.String())
	sb.WriteString(" error: ")
	sb.WriteString(e.Message)
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	if e.Remediation != "" {
		sb.WriteString("\n\nRemediation: ")
		sb.WriteString(e.Remediation)
	}
	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a PipelineError of the same kind.
func (e *PipelineError) Is(target error) bool {
	t, ok := target.(*PipelineError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// New creates a PipelineError of the given kind.
func New(kind Kind, message string, cause error) *PipelineError {
	return &PipelineError{Kind: kind, Message: message, Cause: cause}
}

// WithRemediation sets the remediation hint and returns the error.
func (e *PipelineError) WithRemediation(hint string) *PipelineError {
	e.Remediation = hint
	return e
}

// IsKind reports whether any error in err's chain is a PipelineError of kind.
func IsKind(err error, kind Kind) bool {
	var pe *PipelineError
	for err != nil {
		if stderrors.As(err, &pe) {
			if pe.Kind == kind {
				return true
			}
			err = pe.Cause
			continue
		}
		return false
	}
	return false
}

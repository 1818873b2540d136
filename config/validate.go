package config

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/yaklabco/ripple/pkg/env"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Field   string
	Message string
}

func (w ValidationWarning) String() string {
	return fmt.Sprintf("config warning: %s: %s", w.Field, w.Message)
}

// ValidationResults holds the results of configuration validation.
type ValidationResults struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// HasErrors returns true if there are validation errors.
func (r ValidationResults) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are validation warnings.
func (r ValidationResults) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// ErrorMessage returns a combined error message for all validation errors.
func (r ValidationResults) ErrorMessage() string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

// WriteWarnings writes all warnings to the given writer.
func (r ValidationResults) WriteWarnings(w io.Writer) {
	for _, warn := range r.Warnings {
		_, _ = fmt.Fprintln(w, warn.String())
	}
}

// Validate checks the configuration. Unknown formats and an empty manifest
// path are errors; asking for GitHub Actions files outside Actions is a
// warning, since the files may still be provided by hand.
func (c *Config) Validate() ValidationResults {
	var result ValidationResults

	if strings.TrimSpace(c.Manifest) == "" {
		result.Errors = append(result.Errors, ValidationError{
			Field:   KeyManifest,
			Message: "must not be empty",
		})
	}

	if !slices.Contains(Formats(), c.Format) {
		result.Errors = append(result.Errors, ValidationError{
			Field:   KeyFormat,
			Message: fmt.Sprintf("invalid format %q, must be one of: %s", c.Format, strings.Join(Formats(), ", ")),
		})
	}

	if (c.ActionsOutput || c.StepSummary) && !env.InGitHubActions() {
		field := KeyActionsOutput
		if !c.ActionsOutput {
			field = KeyStepSummary
		}
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   field,
			Message: "enabled outside GitHub Actions",
		})
	}

	return result
}

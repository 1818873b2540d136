package config

import (
	"github.com/spf13/viper"
	"github.com/yaklabco/ripple/pkg/manifest"
)

// Output formats accepted by the format setting.
const (
	FormatJSON     = "json"
	FormatTable    = "table"
	FormatMarkdown = "markdown"
	FormatNames    = "names"
)

// Formats lists every output format.
func Formats() []string {
	return []string{FormatJSON, FormatTable, FormatMarkdown, FormatNames}
}

// Default configuration values.
const (
	DefaultManifest      = manifest.DefaultFileName
	DefaultFormat        = FormatJSON
	DefaultVerbose       = false
	DefaultDebug         = false
	DefaultEnableColor   = false
	DefaultForceOnBase   = false
	DefaultActionsOutput = false
	DefaultStepSummary   = false
)

// Configuration keys, shared by config files and command-line flag binding.
const (
	KeyManifest      = "manifest"
	KeyFormat        = "format"
	KeyVerbose       = "verbose"
	KeyDebug         = "debug"
	KeyEnableColor   = "enable_color"
	KeyForceOnBase   = "force_on_base"
	KeyActionsOutput = "actions_output"
	KeyStepSummary   = "step_summary"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyManifest, DefaultManifest)
	v.SetDefault(KeyFormat, DefaultFormat)
	v.SetDefault(KeyVerbose, DefaultVerbose)
	v.SetDefault(KeyDebug, DefaultDebug)
	v.SetDefault(KeyEnableColor, DefaultEnableColor)
	v.SetDefault(KeyForceOnBase, DefaultForceOnBase)
	v.SetDefault(KeyActionsOutput, DefaultActionsOutput)
	v.SetDefault(KeyStepSummary, DefaultStepSummary)
}

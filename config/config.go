package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/yaklabco/ripple/pkg/env"
)

// EnvPrefix prefixes every environment variable ripple reads.
const EnvPrefix = "RIPPLE_"

// Config holds all ripple configuration values.
type Config struct {
	// Manifest is the manifest path, relative to the repository directory.
	Manifest string `mapstructure:"manifest"`

	// Format is the output format of derive: json, table, markdown, or names.
	Format string `mapstructure:"format"`

	// Verbose enables informational log messages.
	Verbose bool `mapstructure:"verbose"`

	// Debug enables debug messages.
	Debug bool `mapstructure:"debug"`

	// EnableColor enables colored output in terminal.
	EnableColor bool `mapstructure:"enable_color"`

	// ForceOnBase marks every target changed when the head is the base branch.
	ForceOnBase bool `mapstructure:"force_on_base"`

	// ActionsOutput appends results to the $GITHUB_OUTPUT file.
	ActionsOutput bool `mapstructure:"actions_output"`

	// StepSummary appends a markdown summary to the $GITHUB_STEP_SUMMARY file.
	StepSummary bool `mapstructure:"step_summary"`

	// configFile is the path to the config file that was loaded (if any).
	configFile string
}

// ConfigFile returns the path to the configuration file that was loaded,
// or an empty string if no file was loaded.
func (c *Config) ConfigFile() string {
	return c.configFile
}

// LoadOptions configures how configuration is loaded.
type LoadOptions struct {
	// ProjectDir is the directory to search for project-level config.
	// If empty, the current working directory is used.
	ProjectDir string

	// Flags holds command-line flags. Flags the user set override every
	// other source.
	Flags *pflag.FlagSet

	// Stderr is where warnings are written.
	// If nil, os.Stderr is used.
	Stderr io.Writer

	// SkipProjectConfig skips loading project-level configuration.
	SkipProjectConfig bool

	// SkipUserConfig skips loading user-level configuration.
	SkipUserConfig bool

	// SkipEnv skips reading environment variables.
	SkipEnv bool
}

// Load reads configuration from all sources and returns a Config struct.
// Configuration is loaded in the following order (later sources override earlier):
//  1. Defaults
//  2. User config file (~/.config/ripple/config.yaml)
//  3. Project config file (ripple.yaml in the project directory)
//  4. Environment variables (RIPPLE_*)
//  5. Command-line flags
//
// If opts is nil, default options are used.
func Load(opts *LoadOptions) (*Config, error) {
	if opts == nil {
		opts = &LoadOptions{}
	}

	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	viperInstance := viper.New()
	setDefaults(viperInstance)
	viperInstance.SetConfigType("yaml")

	var configFileUsed string

	if !opts.SkipUserConfig {
		paths := ResolveXDGPaths()
		viperInstance.SetConfigName(ConfigFileName)
		viperInstance.AddConfigPath(paths.ConfigDir())

		if err := viperInstance.ReadInConfig(); err != nil {
			var configFileNotFoundError viper.ConfigFileNotFoundError
			if !errors.As(err, &configFileNotFoundError) {
				return nil, fmt.Errorf("failed to read user config file: %w", err)
			}
		} else {
			configFileUsed = viperInstance.ConfigFileUsed()
		}
	}

	if !opts.SkipProjectConfig {
		projectDir := opts.ProjectDir
		if projectDir == "" {
			var err error
			projectDir, err = os.Getwd()
			if err != nil {
				return nil, fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		projectConfigPath := ProjectConfigPath(projectDir)
		if _, err := os.Stat(projectConfigPath); err == nil {
			viperInstance.SetConfigFile(projectConfigPath)
			if err := viperInstance.MergeInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read project config file: %w", err)
			}
			configFileUsed = projectConfigPath
		}
	}

	var cfg Config
	if err := viperInstance.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	var result ValidationResults

	if !opts.SkipEnv {
		result.Errors = append(result.Errors, applyEnvironmentOverrides(&cfg)...)
	}

	if opts.Flags != nil {
		if err := applyFlagOverrides(&cfg, opts.Flags); err != nil {
			return nil, err
		}
	}

	cfg.configFile = configFileUsed

	validation := cfg.Validate()
	result.Errors = append(result.Errors, validation.Errors...)
	result.Warnings = append(result.Warnings, validation.Warnings...)

	if result.HasWarnings() {
		result.WriteWarnings(opts.Stderr)
	}
	if result.HasErrors() {
		return nil, errors.New(result.ErrorMessage())
	}

	return &cfg, nil
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(key)
}

// applyEnvironmentOverrides applies RIPPLE_* variables to cfg. Booleans that
// do not parse are reported rather than silently read as false.
func applyEnvironmentOverrides(cfg *Config) []ValidationError {
	var errs []ValidationError

	if v := os.Getenv(EnvName(KeyManifest)); v != "" {
		cfg.Manifest = v
	}
	if v := os.Getenv(EnvName(KeyFormat)); v != "" {
		cfg.Format = v
	}

	for key, field := range cfg.boolFields() {
		name := EnvName(key)
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		b, err := env.ParseBool(v)
		if err != nil {
			errs = append(errs, ValidationError{Field: name, Message: err.Error()})
			continue
		}
		*field = b
	}

	return errs
}

// applyFlagOverrides copies flags the user set into cfg. Flag names are the
// keys with dashes, so actions_output is --actions-output.
func applyFlagOverrides(cfg *Config, flags *pflag.FlagSet) error {
	for _, key := range []string{KeyManifest, KeyFormat} {
		name := FlagName(key)
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetString(name)
		if err != nil {
			return fmt.Errorf("reading flag --%s: %w", name, err)
		}
		if key == KeyManifest {
			cfg.Manifest = v
		} else {
			cfg.Format = v
		}
	}

	for key, field := range cfg.boolFields() {
		name := FlagName(key)
		if !flags.Changed(name) {
			continue
		}
		b, err := flags.GetBool(name)
		if err != nil {
			return fmt.Errorf("reading flag --%s: %w", name, err)
		}
		*field = b
	}

	return nil
}

// FlagName returns the command-line flag that overrides key.
func FlagName(key string) string {
	if key == KeyManifest {
		return "config"
	}
	return strings.ReplaceAll(key, "_", "-")
}

func (c *Config) boolFields() map[string]*bool {
	return map[string]*bool{
		KeyVerbose:       &c.Verbose,
		KeyDebug:         &c.Debug,
		KeyEnableColor:   &c.EnableColor,
		KeyForceOnBase:   &c.ForceOnBase,
		KeyActionsOutput: &c.ActionsOutput,
		KeyStepSummary:   &c.StepSummary,
	}
}

// DefaultConfig returns a Config with all default values.
func DefaultConfig() *Config {
	return &Config{
		Manifest:      DefaultManifest,
		Format:        DefaultFormat,
		Verbose:       DefaultVerbose,
		Debug:         DefaultDebug,
		EnableColor:   DefaultEnableColor,
		ForceOnBase:   DefaultForceOnBase,
		ActionsOutput: DefaultActionsOutput,
		StepSummary:   DefaultStepSummary,
	}
}

// WriteDefaultConfig writes a default configuration file to path, creating
// its directory. It refuses to overwrite an existing file.
func WriteDefaultConfig(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}

	if err := os.WriteFile(path, []byte(defaultConfigYAML()), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// defaultConfigYAML returns the default configuration as YAML.
func defaultConfigYAML() string {
	return `# ripple configuration
# Project settings go in ripple.yaml at the repository root; user settings in
# ~/.config/ripple/config.yaml. RIPPLE_<KEY> variables and flags override both.

# Manifest path, relative to the repository root.
manifest: ` + DefaultManifest + `

# Output format of "ripple derive": json, table, markdown, or names.
format: ` + DefaultFormat + `

# Enable informational and debug logging.
verbose: false
debug: false

# Enable colored output in terminal.
enable_color: false

# Mark every target changed when the head is the manifest's base branch.
force_on_base: false

# Append results to $GITHUB_OUTPUT and a summary to $GITHUB_STEP_SUMMARY.
actions_output: false
step_summary: false
`
}

// Package config loads ripple's own settings: where the manifest lives, how
// results are printed, and which GitHub Actions files are written.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName is the application name used in configuration paths.
const AppName = "ripple"

// ConfigFileName is the name of the user configuration file (without extension).
const ConfigFileName = "config"

// ProjectConfigFileName is the name of the project configuration file (without extension).
const ProjectConfigFileName = "ripple"

const osWindows = "windows"

// XDGPaths holds the resolved XDG base directories ripple uses.
type XDGPaths struct {
	ConfigHome string
}

// ResolveXDGPaths returns the XDG base directory paths for the current platform.
func ResolveXDGPaths() XDGPaths {
	return XDGPaths{ConfigHome: resolveConfigHome()}
}

// ConfigDir returns the application-specific configuration directory.
func (p XDGPaths) ConfigDir() string {
	return filepath.Join(p.ConfigHome, AppName)
}

// ConfigFilePath returns the full path to the user configuration file.
func (p XDGPaths) ConfigFilePath() string {
	return filepath.Join(p.ConfigDir(), ConfigFileName+".yaml")
}

// ProjectConfigPath returns the project configuration file in dir.
func ProjectConfigPath(dir string) string {
	return filepath.Join(dir, ProjectConfigFileName+".yaml")
}

func resolveConfigHome() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}

	home := userHomeDir()

	if runtime.GOOS == osWindows {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return appData
		}
		return filepath.Join(home, "AppData", "Roaming")
	}

	// macOS included: CLI tools conventionally use ~/.config there too.
	return filepath.Join(home, ".config")
}

func userHomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if home := os.Getenv("USERPROFILE"); home != "" {
		return home
	}
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return ""
}

// Package platform resolves per-OS locations for tasklist's config and data.
package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// DefaultAppName names the config and data directories.
const DefaultAppName = "tasklist"

// Environment overrides read by the CLI.
const (
	EnvConfigPath = "TASKLIST_CONFIG"
	EnvDBPath     = "TASKLIST_DB_PATH"
	EnvDevMode    = "TASKLIST_DEV_MODE"
)

type Paths struct {
	ConfigPath string
	DataDir    string
	DBPath     string
}

type Options struct {
	AppName string
	DevMode bool
}

func DefaultPaths() (Paths, error) {
	return DefaultPathsWithOptions(Options{AppName: DefaultAppName})
}

// DefaultPathsWithOptions resolves paths for the running OS. Dev mode appends
// "-dev" to the app name so dev builds never touch real data.
func DefaultPathsWithOptions(opts Options) (Paths, error) {
	appName := strings.TrimSpace(opts.AppName)
	if appName == "" {
		appName = DefaultAppName
	}
	if opts.DevMode {
		appName += "-dev"
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return Paths{}, fmt.Errorf("user config dir: %w", err)
	}
	dataDir := configDir
	switch runtime.GOOS {
	case "linux":
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return Paths{}, fmt.Errorf("user home dir: %w", homeErr)
		}
		dataDir = filepath.Join(home, ".local", "share")
	case "windows":
		if v := strings.TrimSpace(os.Getenv("LOCALAPPDATA")); v != "" {
			dataDir = v
		}
	}

	env := map[string]string{
		"XDG_CONFIG_HOME": os.Getenv("XDG_CONFIG_HOME"),
		"XDG_DATA_HOME":   os.Getenv("XDG_DATA_HOME"),
		"APPDATA":         os.Getenv("APPDATA"),
		"LOCALAPPDATA":    os.Getenv("LOCALAPPDATA"),
	}
	return PathsFor(runtime.GOOS, env, configDir, dataDir, appName)
}

// PathsFor is the pure form of DefaultPathsWithOptions.
func PathsFor(goos string, env map[string]string, userConfigDir, userDataDir, appName string) (Paths, error) {
	if userConfigDir == "" || userDataDir == "" {
		return Paths{}, fmt.Errorf("empty base dirs")
	}
	appName = strings.TrimSpace(appName)
	if appName == "" {
		return Paths{}, fmt.Errorf("empty app name")
	}

	configBase := userConfigDir
	dataBase := userDataDir
	switch goos {
	case "linux":
		if v := env["XDG_CONFIG_HOME"]; v != "" {
			configBase = v
		}
		if v := env["XDG_DATA_HOME"]; v != "" {
			dataBase = v
		}
	case "windows":
		if v := env["APPDATA"]; v != "" {
			configBase = v
		}
		if v := env["LOCALAPPDATA"]; v != "" {
			dataBase = v
		}
	}

	appDataDir := filepath.Join(dataBase, appName)
	return Paths{
		ConfigPath: filepath.Join(configBase, appName, "config.toml"),
		DataDir:    appDataDir,
		DBPath:     filepath.Join(appDataDir, appName+".db"),
	}, nil
}

// WithOverrides applies explicit flag values first, then the TASKLIST_CONFIG
// and TASKLIST_DB_PATH variables read through getenv. dbOverridden reports
// whether the database path no longer comes from the platform default.
func (p Paths) WithOverrides(configFlag, dbFlag string, getenv func(string) string) (out Paths, dbOverridden bool) {
	if getenv == nil {
		getenv = func(string) string { return "" }
	}
	out = p
	switch {
	case strings.TrimSpace(configFlag) != "":
		out.ConfigPath = strings.TrimSpace(configFlag)
	case strings.TrimSpace(getenv(EnvConfigPath)) != "":
		out.ConfigPath = strings.TrimSpace(getenv(EnvConfigPath))
	}
	switch {
	case strings.TrimSpace(dbFlag) != "":
		out.DBPath = strings.TrimSpace(dbFlag)
		dbOverridden = true
	case strings.TrimSpace(getenv(EnvDBPath)) != "":
		out.DBPath = strings.TrimSpace(getenv(EnvDBPath))
		dbOverridden = true
	}
	return out, dbOverridden
}

// DevModeFromEnv reads TASKLIST_DEV_MODE, returning fallback when it is unset
// or not a boolean.
func DevModeFromEnv(getenv func(string) string, fallback bool) bool {
	if getenv == nil {
		return fallback
	}
	raw := strings.TrimSpace(getenv(EnvDevMode))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

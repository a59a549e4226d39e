// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config holds the ambient user defaults read from the config file, layered
// underneath environment variables and command-line flags (flags > env >
// config file > built-in default).
type Config struct {
	Root   string `yaml:"root,omitempty"`
	APIURL string `yaml:"api_url,omitempty"`
	Token  string `yaml:"token,omitempty"`
}

// DefaultPath returns the platform-appropriate config file location:
// %APPDATA%\ghri\config.yaml on Windows, ~/.config/ghri/config.yaml
// elsewhere.
func DefaultPath() string {
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "ghri", "config.yaml")
		}
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "ghri", "config.yaml")
}

// Load reads the config file at path (or DefaultPath() when path is empty).
// A missing file is not an error; it yields a zero-value Config.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to path (or DefaultPath() when path is empty), creating
// its parent directory as needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	header := "# ghri configuration\n# Flags and environment variables override these values.\n\n"
	if err := os.WriteFile(path, []byte(header+string(data)), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Resolved holds the final, fully-layered settings for one invocation.
type Resolved struct {
	Root   string
	APIURL string
	Token  string
}

// Resolve applies the precedence chain flags > env > config file > built-in
// default for root, api-url, and token. Pass the empty string for a flag
// that was not set on the command line.
func Resolve(cfg *Config, runtime privilegeChecker, flagRoot, flagAPIURL string) Resolved {
	root := firstNonEmpty(flagRoot, os.Getenv("GHRI_ROOT"), cfg.Root, defaultRoot(runtime))
	apiURL := firstNonEmpty(flagAPIURL, os.Getenv("GHRI_API_URL"), cfg.APIURL, "https://api.github.com")
	token := firstNonEmpty(os.Getenv("GITHUB_TOKEN"), cfg.Token)
	return Resolved{Root: root, APIURL: apiURL, Token: token}
}

// privilegeChecker is the minimal capability Resolve needs from a
// ghri.RuntimePort, kept as its own small interface here so this package
// does not import pkg/ghri (avoiding an import cycle with internal/cli,
// which imports both).
type privilegeChecker interface {
	IsPrivileged() bool
}

// defaultRoot implements §6's install-root defaults: per-user under $HOME,
// system-wide under a platform-specific path when running privileged.
func defaultRoot(rt privilegeChecker) string {
	if rt != nil && rt.IsPrivileged() {
		switch runtime.GOOS {
		case "darwin":
			return "/opt/ghri"
		case "windows":
			return `C:\ProgramData\ghri`
		default:
			return "/usr/local/ghri"
		}
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".ghri")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

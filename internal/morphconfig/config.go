// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package morphconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents morph's on-disk configuration.
type Config struct {
	RepoAlias              []string    `yaml:"repo-alias"`
	BuildRefPrefix         string      `yaml:"build-ref-prefix"`
	NoGitUpdate            bool        `yaml:"no-git-update"`
	Verbose                bool        `yaml:"verbose"`
	SyslinuxMBRSearchPaths []string    `yaml:"syslinux-mbr-search-paths"`
	Build                  BuildConfig `yaml:"build"`
	Forge                  ForgeConfig `yaml:"forge"`
}

// BuildConfig configures the external build-engine handoff (pkg/buildhook).
type BuildConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

// ForgeConfig holds credentials for the optional default-branch enrichers
// in pkg/reposource.
type ForgeConfig struct {
	GitHub ForgeEndpoint `yaml:"github"`
	GitLab ForgeEndpoint `yaml:"gitlab"`
	Gitea  ForgeEndpoint `yaml:"gitea"`
}

// ForgeEndpoint holds one forge's token and optional self-hosted base URL.
type ForgeEndpoint struct {
	Token   string `yaml:"token"`
	BaseURL string `yaml:"base_url"`
}

// DefaultConfig returns a config with morph's default values.
func DefaultConfig() *Config {
	return &Config{
		BuildRefPrefix: "baserock/builds",
		Build: BuildConfig{
			Command: "morph-build-engine",
		},
	}
}

// Load loads configuration from the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// LoadDefault loads configuration from the first of morph's default
// locations that exists, falling back to DefaultConfig with environment
// overrides applied.
func LoadDefault() (*Config, error) {
	locations := []string{
		"morph.yaml",
		".morph.yaml",
		filepath.Join(os.Getenv("HOME"), ".config", "morph", "config.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return Load(loc)
		}
	}

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if token := os.Getenv("MORPH_GITHUB_TOKEN"); token != "" {
		c.Forge.GitHub.Token = token
	}
	if token := os.Getenv("MORPH_GITLAB_TOKEN"); token != "" {
		c.Forge.GitLab.Token = token
	}
	if token := os.Getenv("MORPH_GITEA_TOKEN"); token != "" {
		c.Forge.Gitea.Token = token
	}
	if prefix := os.Getenv("MORPH_BUILD_REF_PREFIX"); prefix != "" {
		c.BuildRefPrefix = prefix
	}
}

// CommitterIdentity returns the "Morph (on behalf of <user.name>)
// <LOGNAME@HOSTNAME>" identity used for ephemeral build commits, per
// component G. userName is the repo-local user.name (the real author being
// impersonated); LOGNAME and HOSTNAME are read from the environment, with
// HOSTNAME falling back to os.Hostname() when unset.
func CommitterIdentity(userName string) (name, email string) {
	name = fmt.Sprintf("Morph (on behalf of %s)", userName)

	logname := os.Getenv("LOGNAME")
	if logname == "" {
		logname = "unknown"
	}

	hostname := os.Getenv("HOSTNAME")
	if hostname == "" {
		if h, err := os.Hostname(); err == nil {
			hostname = h
		} else {
			hostname = "localhost"
		}
	}

	email = fmt.Sprintf("%s@%s", logname, hostname)
	return name, email
}

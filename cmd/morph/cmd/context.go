// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"
	"os"

	"github.com/baserock/morph/internal/gitcmd"
	"github.com/baserock/morph/internal/morphconfig"
	"github.com/baserock/morph/pkg/lifecycle"
	"github.com/baserock/morph/pkg/reposource"
)

// app bundles every collaborator a subcommand needs, built once per
// invocation from the loaded configuration.
type app struct {
	Config    *morphconfig.Config
	Exec      *gitcmd.Executor
	Aliases   *reposource.AliasResolver
	Cache     *reposource.Cache
	Lifecycle *lifecycle.Lifecycle
}

// stderrLogger satisfies pkg/buildref.Logger and pkg/petrify.Logger,
// writing key=value pairs to stderr only when verbose is set.
type stderrLogger struct{ verbose bool }

func (l stderrLogger) Info(msg string, keysAndValues ...interface{}) {
	if !l.verbose {
		return
	}
	fmt.Fprintf(os.Stderr, "-- %s", msg)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fmt.Fprintf(os.Stderr, " %v=%v", keysAndValues[i], keysAndValues[i+1])
	}
	fmt.Fprintln(os.Stderr)
}

// newApp loads configuration and wires the repo alias resolver, repo cache,
// and lifecycle manager every other command needs.
func newApp() (*app, error) {
	cfg, err := morphconfig.LoadDefault()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if verbose {
		cfg.Verbose = true
	}

	exec := gitcmd.NewExecutor()

	aliases, err := reposource.NewAliasResolver(cfg.RepoAlias)
	if err != nil {
		return nil, fmt.Errorf("build repo alias resolver: %w", err)
	}

	cacheDir, err := cacheDir()
	if err != nil {
		return nil, err
	}
	cache, err := reposource.NewCache(cacheDir, exec, cfg.NoGitUpdate, buildForgeEnricher(cfg))
	if err != nil {
		return nil, fmt.Errorf("build repo cache: %w", err)
	}

	return &app{
		Config:    cfg,
		Exec:      exec,
		Aliases:   aliases,
		Cache:     cache,
		Lifecycle: lifecycle.New(exec, aliases, cache),
	}, nil
}

// cacheDir returns $XDG_CACHE_HOME/morph/repos, falling back to
// $HOME/.cache/morph/repos when XDG_CACHE_HOME is unset.
func cacheDir() (string, error) {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return dir + "/morph/repos", nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve cache directory: %w", err)
	}
	return home + "/.cache/morph/repos", nil
}

// buildForgeEnricher wires a reposource.MultiEnricher out of whichever forge
// credentials are configured, or nil if none are.
func buildForgeEnricher(cfg *morphconfig.Config) reposource.ForgeEnricher {
	byHost := map[string]reposource.ForgeEnricher{}

	if cfg.Forge.GitHub.Token != "" {
		byHost["github.com"] = reposource.NewGitHubEnricher(cfg.Forge.GitHub.Token)
	}
	if cfg.Forge.GitLab.Token != "" {
		if e, err := reposource.NewGitLabEnricher(cfg.Forge.GitLab.Token, cfg.Forge.GitLab.BaseURL); err == nil {
			byHost["gitlab.com"] = e
		}
	}
	if cfg.Forge.Gitea.Token != "" && cfg.Forge.Gitea.BaseURL != "" {
		if e, err := reposource.NewGiteaEnricher(cfg.Forge.Gitea.Token, cfg.Forge.Gitea.BaseURL); err == nil {
			byHost[cfg.Forge.Gitea.BaseURL] = e
		}
	}

	if len(byHost) == 0 {
		return nil
	}
	return reposource.NewMultiEnricher(byHost)
}

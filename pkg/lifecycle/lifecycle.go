// Package lifecycle implements the branch lifecycle: init, branch,
// checkout, and the shared CloneToDirectory helper used to materialize a
// repo into a system-branch directory.
package lifecycle

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/baserock/morph/internal/gitcmd"
	"github.com/baserock/morph/internal/morpherr"
	"github.com/baserock/morph/pkg/reposource"
	"github.com/baserock/morph/pkg/workspace"
)

// Lifecycle implements init/branch/checkout and the clone_to_directory
// helper shared by the edit propagator and merge orchestrator.
type Lifecycle struct {
	Exec    *gitcmd.Executor
	Aliases *reposource.AliasResolver
	Cache   *reposource.Cache
}

// New constructs a Lifecycle.
func New(exec *gitcmd.Executor, aliases *reposource.AliasResolver, cache *reposource.Cache) *Lifecycle {
	return &Lifecycle{Exec: exec, Aliases: aliases, Cache: cache}
}

// Init creates a new workspace at dir, which must be empty or not exist.
func (l *Lifecycle) Init(dir string) error {
	entries, err := os.ReadDir(dir)
	switch {
	case os.IsNotExist(err):
		if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
			return fmt.Errorf("lifecycle: create workspace dir: %w", mkErr)
		}
	case err != nil:
		return fmt.Errorf("lifecycle: stat workspace dir: %w", err)
	case len(entries) > 0:
		return fmt.Errorf("can only initialize empty directory: %s", dir)
	}

	if err := os.Mkdir(filepath.Join(dir, workspace.WorkspaceMarker), 0o755); err != nil {
		return fmt.Errorf("lifecycle: create workspace marker: %w", err)
	}
	return nil
}

// Branch creates a new system branch: it creates the branch directory and
// marker, records branch.name/root/uuid, clones rootRepo at commit (default
// "master"), fails if newName already exists as a ref in the clone, then
// checks out a new local branch named newName. On any failure after the
// directory is created, the partially-built branch directory (and now-empty
// ancestor directories up to but not including workspaceDir) is removed and
// the original error is returned.
func (l *Lifecycle) Branch(ctx context.Context, workspaceDir, rootRepo, newName, commit string) (dir string, err error) {
	if commit == "" {
		commit = "master"
	}

	branchDir := filepath.Join(workspaceDir, newName)
	if err := os.MkdirAll(filepath.Join(branchDir, workspace.BranchMarker), 0o755); err != nil {
		return "", fmt.Errorf("lifecycle: create branch dir: %w", err)
	}

	defer func() {
		if err != nil {
			rollback(workspaceDir, branchDir)
		}
	}()

	cfgPath := filepath.Join(branchDir, workspace.BranchMarker, "config")
	branchUUID := newUUID()
	if err = writeBranchConfig(ctx, l.Exec, cfgPath, newName, rootRepo, branchUUID); err != nil {
		return "", err
	}

	cloneDir := filepath.Join(branchDir, workspace.ConvertURIToPath(rootRepo))
	if err = l.CloneToDirectory(ctx, cloneDir, rootRepo, commit); err != nil {
		return "", err
	}

	if existing, _ := l.Exec.ShowRef(ctx, cloneDir, "refs/heads/"+newName); existing != "" {
		err = morpherr.Wrap(fmt.Errorf("branch %s already exists", newName), morpherr.ErrBranchAlreadyExists)
		return "", err
	}
	if existing, _ := l.Exec.ShowRef(ctx, cloneDir, "refs/remotes/origin/"+newName); existing != "" {
		err = morpherr.Wrap(fmt.Errorf("branch %s already exists", newName), morpherr.ErrBranchAlreadyExists)
		return "", err
	}

	if _, runErr := l.Exec.RunOutput(ctx, cloneDir, "checkout", "-b", newName, commit); runErr != nil {
		err = fmt.Errorf("lifecycle: checkout -b %s: %w", newName, runErr)
		return "", err
	}

	return branchDir, nil
}

// Checkout clones an existing system branch: like Branch, but checks out
// the existing branch rather than creating a new one.
func (l *Lifecycle) Checkout(ctx context.Context, workspaceDir, rootRepo, existingName string) (dir string, err error) {
	branchDir := filepath.Join(workspaceDir, existingName)
	if err := os.MkdirAll(filepath.Join(branchDir, workspace.BranchMarker), 0o755); err != nil {
		return "", fmt.Errorf("lifecycle: create branch dir: %w", err)
	}

	defer func() {
		if err != nil {
			rollback(workspaceDir, branchDir)
		}
	}()

	cfgPath := filepath.Join(branchDir, workspace.BranchMarker, "config")
	branchUUID := newUUID()
	if err = writeBranchConfig(ctx, l.Exec, cfgPath, existingName, rootRepo, branchUUID); err != nil {
		return "", err
	}

	cloneDir := filepath.Join(branchDir, workspace.ConvertURIToPath(rootRepo))
	if err = l.CloneToDirectory(ctx, cloneDir, rootRepo, existingName); err != nil {
		return "", err
	}

	return branchDir, nil
}

// CloneToDirectory is the shared helper used by the edit propagator and
// merge orchestrator to materialize a logical repo inside a branch
// directory: it ensures the repo cache entry, checks out ref into dir,
// stamps morph.repository/morph.uuid, restores the canonical origin URL
// (bypassing the cache), installs a pushInsteadOf rewrite so pushes still
// reach upstream, and refreshes remotes.
func (l *Lifecycle) CloneToDirectory(ctx context.Context, dir, reponame, ref string) error {
	pullURL, pushURL, err := l.Aliases.Resolve(reponame)
	if err != nil {
		return fmt.Errorf("lifecycle: resolve %q: %w", reponame, err)
	}

	cached, err := l.Cache.EnsureCached(ctx, pullURL)
	if err != nil {
		return err
	}

	if err := cached.CheckoutInto(ctx, ref, dir); err != nil {
		return err
	}

	if _, err := l.Exec.Run(ctx, dir, "config", "morph.repository", reponame); err != nil {
		return fmt.Errorf("lifecycle: set morph.repository: %w", err)
	}
	if _, err := l.Exec.Run(ctx, dir, "config", "morph.uuid", newUUID()); err != nil {
		return fmt.Errorf("lifecycle: set morph.uuid: %w", err)
	}
	if _, err := l.Exec.Run(ctx, dir, "remote", "set-url", "origin", pullURL); err != nil {
		return fmt.Errorf("lifecycle: set origin url: %w", err)
	}
	if _, err := l.Exec.Run(ctx, dir, "config", fmt.Sprintf("url.%s.pushInsteadOf", pushURL), pullURL); err != nil {
		return fmt.Errorf("lifecycle: install pushInsteadOf rewrite: %w", err)
	}
	if _, err := l.Exec.Run(ctx, dir, "remote", "update"); err != nil {
		return fmt.Errorf("lifecycle: remote update: %w", err)
	}

	return nil
}

func writeBranchConfig(ctx context.Context, exec *gitcmd.Executor, cfgPath, name, root, uuid string) error {
	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		return fmt.Errorf("lifecycle: create config dir: %w", err)
	}
	if _, err := os.Create(cfgPath); err != nil {
		return fmt.Errorf("lifecycle: create branch config: %w", err)
	}
	dir := filepath.Dir(cfgPath)
	for key, value := range map[string]string{
		"branch.name": name,
		"branch.root": root,
		"branch.uuid": uuid,
	} {
		if _, err := exec.Run(ctx, dir, "config", "--file", cfgPath, key, value); err != nil {
			return fmt.Errorf("lifecycle: write branch config %s: %w", key, err)
		}
	}
	return nil
}

// ReadBranchConfig reads branch.name/root/uuid back out of a branch
// directory's marker config.
func ReadBranchConfig(ctx context.Context, exec *gitcmd.Executor, branchDir string) (name, root, uuid string, err error) {
	cfgPath := filepath.Join(branchDir, workspace.BranchMarker, "config")
	get := func(key string) (string, error) {
		return exec.RunOutput(ctx, branchDir, "config", "--file", cfgPath, "--get", key)
	}
	if name, err = get("branch.name"); err != nil {
		return "", "", "", fmt.Errorf("lifecycle: read branch.name: %w", err)
	}
	if root, err = get("branch.root"); err != nil {
		return "", "", "", fmt.Errorf("lifecycle: read branch.root: %w", err)
	}
	if uuid, err = get("branch.uuid"); err != nil {
		return "", "", "", fmt.Errorf("lifecycle: read branch.uuid: %w", err)
	}
	return name, root, uuid, nil
}

// rollback removes branchDir and then removes now-empty ancestor
// directories up to but not including workspaceDir, best-effort.
func rollback(workspaceDir, branchDir string) {
	_ = os.RemoveAll(branchDir)

	dir := filepath.Dir(branchDir)
	for dir != workspaceDir && dir != filepath.Dir(dir) {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if os.Remove(dir) != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

// newUUID returns 32 lowercase hex characters (128 bits of randomness). No
// UUID library appears anywhere in the retrieved example pack, so this
// uses crypto/rand directly rather than pulling in a new dependency for a
// one-line need.
func newUUID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("lifecycle: read random bytes: %v", err))
	}
	return hex.EncodeToString(b)
}

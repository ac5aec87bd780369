package merge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/baserock/morph/internal/gitcmd"
	"github.com/baserock/morph/internal/morpherr"
	"github.com/baserock/morph/pkg/lifecycle"
	"github.com/baserock/morph/pkg/morphology"
	"github.com/baserock/morph/pkg/workspace"
)

// Options configures a merge operation.
type Options struct {
	// FromBranch is the system branch being merged into Receiving.
	FromBranch *workspace.Branch
	// Receiving is the system branch the merge lands on.
	Receiving *workspace.Branch
}

// Result reports which repos were touched by a merge.
type Result struct {
	ReposMerged []string
}

// Orchestrator merges one system branch into another across every repo
// the two share.
type Orchestrator struct {
	Exec      *gitcmd.Executor
	Lifecycle *lifecycle.Lifecycle
}

// New constructs an Orchestrator.
func New(exec *gitcmd.Executor, lc *lifecycle.Lifecycle) *Orchestrator {
	return &Orchestrator{Exec: exec, Lifecycle: lc}
}

// Merge requires opts.Receiving and opts.FromBranch to share a branch.root,
// then merges the root repo (always treated as morphology-bearing),
// descending into any stratum or chunk repo whose ref in a *.morph file
// equals FromBranch.Name, merging that repo too, and rewriting the ref
// back to Receiving.Name once the nested merge lands.
func (o *Orchestrator) Merge(ctx context.Context, opts Options) (*Result, error) {
	_, receivingRoot, _, err := lifecycle.ReadBranchConfig(ctx, o.Exec, opts.Receiving.Dir)
	if err != nil {
		return nil, fmt.Errorf("merge: read receiving branch config: %w", err)
	}
	_, fromRoot, _, err := lifecycle.ReadBranchConfig(ctx, o.Exec, opts.FromBranch.Dir)
	if err != nil {
		return nil, fmt.Errorf("merge: read source branch config: %w", err)
	}
	if receivingRoot != fromRoot {
		return nil, morpherr.Wrap(fmt.Errorf("%q and %q", receivingRoot, fromRoot), morpherr.ErrRootMismatch)
	}

	visited := map[string]bool{}
	if err := o.mergeRepo(ctx, opts.Receiving, opts.FromBranch, receivingRoot, visited, true); err != nil {
		return nil, err
	}

	merged := make([]string, 0, len(visited))
	for name := range visited {
		merged = append(merged, name)
	}
	return &Result{ReposMerged: merged}, nil
}

// mergeRepo merges a single repo identified by its logical name. forceRoot
// is true only for the branch-root repo, which is always treated as
// morphology-bearing regardless of whether *.morph files are present.
func (o *Orchestrator) mergeRepo(ctx context.Context, receiving, from *workspace.Branch, repoName string, visited map[string]bool, forceRoot bool) error {
	if visited[repoName] {
		return nil
	}
	visited[repoName] = true

	srcDir, err := workspace.FindRepository(ctx, o.Exec, from.Dir, repoName)
	if err != nil {
		return err
	}
	if srcDir == "" {
		return morpherr.Wrap(fmt.Errorf("repo %q not found in branch %s", repoName, from.Name), morpherr.ErrComponentNotFound)
	}

	changed, err := o.Exec.StatusPorcelain(ctx, srcDir, nil)
	if err != nil {
		return fmt.Errorf("merge: status %s: %w", srcDir, err)
	}
	if len(changed) > 0 {
		return morpherr.Wrap(fmt.Errorf("repo %q has uncommitted changes on branch %s", repoName, from.Name), morpherr.ErrUncommittedChanges)
	}

	dstDir, err := o.ensureReceivingClone(ctx, receiving, repoName)
	if err != nil {
		return err
	}

	morphFiles, err := filepath.Glob(filepath.Join(dstDir, "*.morph"))
	if err != nil {
		return fmt.Errorf("merge: glob %s: %w", dstDir, err)
	}
	bearsMorphology := forceRoot || len(morphFiles) > 0

	fileURL := "file://" + filepath.ToSlash(srcDir)
	pullArgs := []string{"pull", fileURL, from.Name, "--no-ff"}
	if bearsMorphology {
		pullArgs = append(pullArgs, "--no-commit")
	}
	if _, err := o.Exec.RunOutput(ctx, dstDir, pullArgs...); err != nil {
		return fmt.Errorf("merge: pull %s into %s: %w", from.Name, repoName, err)
	}

	if !bearsMorphology {
		return nil
	}

	rewrote := false
	for _, mf := range morphFiles {
		changed, err := o.rewriteMergedRefs(ctx, receiving, from, mf, visited)
		if err != nil {
			return err
		}
		rewrote = rewrote || changed
	}

	if !mergeInProgress(dstDir) && !rewrote {
		// The --no-commit pull found nothing to merge (already up to
		// date) and no stratum/chunk ref needed rewriting: nothing to seal.
		return nil
	}

	message := fmt.Sprintf("Merge system branch '%s'", from.Name)
	if _, err := o.Exec.Run(ctx, dstDir, "commit", "-a", "-m", message); err != nil {
		return fmt.Errorf("merge: commit in %s: %w", repoName, err)
	}
	return nil
}

// ensureReceivingClone returns repoName's clone directory inside receiving,
// cloning it fresh (checked out at receiving.Name) if this merge is the
// first thing to introduce that repo to the receiving branch.
func (o *Orchestrator) ensureReceivingClone(ctx context.Context, receiving *workspace.Branch, repoName string) (string, error) {
	existing, err := workspace.FindRepository(ctx, o.Exec, receiving.Dir, repoName)
	if err != nil {
		return "", err
	}
	if existing != "" {
		return existing, nil
	}

	dir := filepath.Join(receiving.Dir, workspace.ConvertURIToPath(repoName))
	if err := o.Lifecycle.CloneToDirectory(ctx, dir, repoName, receiving.Name); err != nil {
		return "", err
	}
	if _, err := o.Exec.Run(ctx, dir, "checkout", "-b", receiving.Name); err != nil {
		if _, err := o.Exec.Run(ctx, dir, "checkout", receiving.Name); err != nil {
			return "", fmt.Errorf("merge: checkout %s in %s: %w", receiving.Name, dir, err)
		}
	}
	return dir, nil
}

// mergeInProgress reports whether dstDir has a pending merge left by a
// --no-commit pull.
func mergeInProgress(dstDir string) bool {
	_, err := os.Stat(filepath.Join(dstDir, ".git", "MERGE_HEAD"))
	return err == nil
}

// rewriteMergedRefs walks every strata/chunks entry in path whose ref
// equals from.Name: it merges that entry's repo first (a nested call to
// mergeRepo, so a chunk shared by two strata is only merged once), then
// rewrites the entry's ref to receiving.Name. Reports whether it changed
// anything, so the caller knows whether path needs committing even when
// the pull itself found nothing new.
func (o *Orchestrator) rewriteMergedRefs(ctx context.Context, receiving, from *workspace.Branch, path string, visited map[string]bool) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("merge: read %s: %w", path, err)
	}
	doc, err := morphology.Parse(data)
	if err != nil {
		return false, fmt.Errorf("merge: parse %s: %w", path, err)
	}

	rewrote := false
	for _, collection := range []string{morphology.CollectionStrata, morphology.CollectionChunks} {
		for _, entry := range doc.Entries(collection) {
			if entry.Ref != from.Name {
				continue
			}
			if err := o.mergeRepo(ctx, receiving, from, entry.Repo, visited, false); err != nil {
				return false, err
			}
			morphology.SetRef(entry.Node, receiving.Name)
			rewrote = true
		}
	}
	if !rewrote {
		return false, nil
	}
	return true, doc.Save(path)
}

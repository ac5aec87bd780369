package statusview

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/baserock/morph/internal/gitcmd"
	"github.com/baserock/morph/pkg/lifecycle"
	"github.com/baserock/morph/pkg/workspace"
)

// Clone is the health of one repository clone found under a system-branch
// directory.
type Clone struct {
	RepoName string // morph.repository config value, or the relative dir if unset
	Dir      string // absolute path
	Ref      string // abbreviated symbolic ref, or a short SHA if detached
	Dirty    bool
}

// Branch is one system-branch directory and the clones found under it.
type Branch struct {
	Name   string
	Root   string // branch.root: the system-branch this one was branched from
	UUID   string
	Dir    string
	Clones []Clone
}

// Collect gathers every system-branch directly under workspaceDir and the
// health of every clone nested inside each one. Branches are returned sorted
// by name; clones within a branch are sorted by repo name.
func Collect(ctx context.Context, exec *gitcmd.Executor, workspaceDir string) ([]Branch, error) {
	entries, err := os.ReadDir(workspaceDir)
	if err != nil {
		return nil, fmt.Errorf("statusview: read workspace %s: %w", workspaceDir, err)
	}

	var branches []Branch
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		dir := filepath.Join(workspaceDir, e.Name())
		markerPath := filepath.Join(dir, workspace.BranchMarker)
		if info, err := os.Stat(markerPath); err != nil || !info.IsDir() {
			continue
		}

		name, root, uuid, err := lifecycle.ReadBranchConfig(ctx, exec, dir)
		if err != nil {
			return nil, fmt.Errorf("statusview: read branch config for %s: %w", dir, err)
		}

		clones, err := collectClones(ctx, exec, dir, dir, map[string]bool{})
		if err != nil {
			return nil, fmt.Errorf("statusview: collect clones under %s: %w", dir, err)
		}
		sort.Slice(clones, func(i, j int) bool { return clones[i].RepoName < clones[j].RepoName })

		branches = append(branches, Branch{Name: name, Root: root, UUID: uuid, Dir: dir, Clones: clones})
	}

	sort.Slice(branches, func(i, j int) bool { return branches[i].Name < branches[j].Name })
	return branches, nil
}

// collectClones walks branchDir looking for git working trees, the same
// bounded-descent shape workspace.FindRepository uses to locate one clone,
// generalized here to collect every clone found.
func collectClones(ctx context.Context, exec *gitcmd.Executor, branchDir, dir string, visited map[string]bool) ([]Clone, error) {
	real, err := filepath.EvalSymlinks(dir)
	if err != nil {
		real = dir
	}
	if visited[real] {
		return nil, nil
	}
	visited[real] = true

	if isGitWorkTree(dir) {
		clone, err := inspectClone(ctx, exec, branchDir, dir)
		if err != nil {
			return nil, err
		}
		return []Clone{clone}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil
	}

	var clones []Clone
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		sub := filepath.Join(dir, e.Name())
		found, err := collectClones(ctx, exec, branchDir, sub, visited)
		if err != nil {
			return nil, err
		}
		clones = append(clones, found...)
	}
	return clones, nil
}

func isGitWorkTree(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil && (info.IsDir() || info.Mode().IsRegular())
}

func inspectClone(ctx context.Context, exec *gitcmd.Executor, branchDir, dir string) (Clone, error) {
	name, _ := exec.RunOutput(ctx, dir, "config", "--get", "morph.repository")
	if name == "" {
		rel, err := filepath.Rel(branchDir, dir)
		if err != nil {
			rel = dir
		}
		name = rel
	}

	ref, err := exec.RunOutput(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		ref = "?"
	} else if ref == "HEAD" {
		short, err := exec.RunOutput(ctx, dir, "rev-parse", "--short", "HEAD")
		if err == nil {
			ref = short
		}
	}

	status, err := exec.StatusPorcelain(ctx, dir, nil)
	if err != nil {
		return Clone{}, fmt.Errorf("status %s: %w", dir, err)
	}

	return Clone{RepoName: name, Dir: dir, Ref: ref, Dirty: len(status) > 0}, nil
}

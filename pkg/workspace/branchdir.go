package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/baserock/morph/internal/gitcmd"
	"github.com/baserock/morph/internal/morpherr"
)

// Branch identifies a discovered system-branch directory.
type Branch struct {
	Name string
	Dir  string
}

// DeduceSystemBranch finds the system-branch enclosing dir. If dir itself
// (or an ancestor, up to the workspace root) carries BranchMarker, that
// directory is returned directly. Otherwise, if dir is inside workspaceDir
// but not inside any branch, and exactly one branch directory exists
// strictly below dir (stopping descent as soon as more than one candidate
// subdirectory is seen at any level), that branch is adopted. Hidden
// directories are never descended, and symlink cycles are broken by a
// visited set of resolved real paths.
func DeduceSystemBranch(workspaceDir, dir string) (*Branch, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("workspace: resolve %q: %w", dir, err)
	}

	if b := ancestorBranch(workspaceDir, abs); b != nil {
		return b, nil
	}

	candidate, err := singleDescendantBranch(abs)
	if err != nil {
		return nil, err
	}
	if candidate == nil {
		return nil, morpherr.Wrap(fmt.Errorf("no system branch found at or below %s", abs), morpherr.ErrBranchNotFound)
	}
	return candidate, nil
}

// ancestorBranch walks upward from dir to workspaceDir (inclusive of
// workspaceDir's immediate children only, since a branch is always a
// direct child of the workspace) looking for BranchMarker.
func ancestorBranch(workspaceDir, dir string) *Branch {
	current := dir
	for {
		if isDir(filepath.Join(current, BranchMarker)) {
			return &Branch{Name: filepath.Base(current), Dir: current}
		}
		parent := filepath.Dir(current)
		if parent == current || current == workspaceDir {
			return nil
		}
		current = parent
	}
}

// singleDescendantBranch performs a bounded BFS below root. Descent stops
// at the first level where more than one candidate subdirectory exists
// (ambiguous) or where a branch marker is found (adopted). Hidden
// directories are skipped; a visited set of resolved real paths prevents
// symlink-cycle infinite descent.
func singleDescendantBranch(root string) (*Branch, error) {
	visited := map[string]bool{}
	current := root

	for {
		real, err := filepath.EvalSymlinks(current)
		if err != nil {
			real = current
		}
		if visited[real] {
			return nil, morpherr.Wrap(fmt.Errorf("symlink cycle detected descending from %s", root), morpherr.ErrBranchAmbiguous)
		}
		visited[real] = true

		entries, err := os.ReadDir(current)
		if err != nil {
			return nil, fmt.Errorf("workspace: read directory %s: %w", current, err)
		}

		var subdirs []string
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			name := e.Name()
			if strings.HasPrefix(name, ".") {
				continue
			}
			subdirs = append(subdirs, filepath.Join(current, name))
		}

		var found *Branch
		for _, sub := range subdirs {
			if isDir(filepath.Join(sub, BranchMarker)) {
				if found != nil {
					return nil, morpherr.Wrap(fmt.Errorf("multiple system branches below %s", root), morpherr.ErrBranchAmbiguous)
				}
				found = &Branch{Name: filepath.Base(sub), Dir: sub}
			}
		}
		if found != nil {
			return found, nil
		}

		switch len(subdirs) {
		case 0:
			return nil, nil
		case 1:
			current = subdirs[0]
		default:
			return nil, morpherr.Wrap(fmt.Errorf("ambiguous descent below %s: %d candidate subdirectories", root, len(subdirs)), morpherr.ErrBranchAmbiguous)
		}
	}
}

// FindRepository scans directly and recursively under branchDir for a
// clone whose local git config has morph.repository == logicalName.
// Returns ("", nil) if none is found. Identity survives a clone directory
// being renamed, since it is keyed on the config value, not the path.
func FindRepository(ctx context.Context, exec *gitcmd.Executor, branchDir, logicalName string) (string, error) {
	found, err := findRepositoryIn(ctx, exec, branchDir, logicalName, map[string]bool{})
	if err != nil {
		return "", fmt.Errorf("workspace: find repository %q: %w", logicalName, err)
	}
	return found, nil
}

func findRepositoryIn(ctx context.Context, exec *gitcmd.Executor, dir, logicalName string, visited map[string]bool) (string, error) {
	real, err := filepath.EvalSymlinks(dir)
	if err != nil {
		real = dir
	}
	if visited[real] {
		return "", nil
	}
	visited[real] = true

	if isDir(filepath.Join(dir, ".git")) {
		name, err := exec.RunOutput(ctx, dir, "config", "--get", "morph.repository")
		if err == nil && name == logicalName {
			return dir, nil
		}
		return "", nil // a repo's own working tree is never descended into
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", nil
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		sub := filepath.Join(dir, e.Name())
		found, err := findRepositoryIn(ctx, exec, sub, logicalName, visited)
		if err != nil {
			return "", err
		}
		if found != "" {
			return found, nil
		}
	}
	return "", nil
}

package statusview

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/baserock/morph/internal/gitcmd"
	"github.com/baserock/morph/internal/testutil"
	"github.com/baserock/morph/pkg/workspace"
)

// makeBranchDir builds a system-branch directory by hand: marker + config,
// the same shape lifecycle.Branch produces, without needing a real clone.
func makeBranchDir(t *testing.T, exec *gitcmd.Executor, workspaceDir, name, root, uuid string) string {
	t.Helper()
	branchDir := filepath.Join(workspaceDir, name)
	markerDir := filepath.Join(branchDir, workspace.BranchMarker)
	if err := os.MkdirAll(markerDir, 0o755); err != nil {
		t.Fatalf("mkdir marker: %v", err)
	}
	cfgPath := filepath.Join(markerDir, "config")
	if _, err := os.Create(cfgPath); err != nil {
		t.Fatalf("create config: %v", err)
	}
	ctx := context.Background()
	for key, value := range map[string]string{
		"branch.name": name,
		"branch.root": root,
		"branch.uuid": uuid,
	} {
		if _, err := exec.Run(ctx, markerDir, "config", "--file", cfgPath, key, value); err != nil {
			t.Fatalf("write config %s: %v", key, err)
		}
	}
	return branchDir
}

func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	return testutil.RunGit(t, dir, args...)
}

func initClone(t *testing.T, dir, repoName string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	runGit(t, dir, "init", "-q", "-b", "master")
	runGit(t, dir, "config", "user.email", "test@example.com")
	runGit(t, dir, "config", "user.name", "Test User")
	runGit(t, dir, "config", "morph.repository", repoName)
	if err := os.WriteFile(filepath.Join(dir, "README"), []byte("hi\n"), 0o644); err != nil {
		t.Fatalf("write README: %v", err)
	}
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-q", "-m", "initial")
}

func TestCollectFindsBranchesAndClones(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}

	ws := t.TempDir()
	real, err := filepath.EvalSymlinks(ws)
	if err != nil {
		real = ws
	}
	if err := os.Mkdir(filepath.Join(real, workspace.WorkspaceMarker), 0o755); err != nil {
		t.Fatalf("mkdir marker: %v", err)
	}

	exec := gitcmd.NewExecutor()
	branchDir := makeBranchDir(t, exec, real, "mybranch", "baserock:morphs", "abc123")

	initClone(t, filepath.Join(branchDir, "repos", "core"), "core")
	dirtyDir := filepath.Join(branchDir, "repos", "dirty-one")
	initClone(t, dirtyDir, "dirty-one")
	if err := os.WriteFile(filepath.Join(dirtyDir, "untracked"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write untracked: %v", err)
	}

	branches, err := Collect(context.Background(), exec, real)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(branches) != 1 {
		t.Fatalf("expected 1 branch, got %d", len(branches))
	}
	b := branches[0]
	if b.Name != "mybranch" {
		t.Errorf("branch name = %q, want mybranch", b.Name)
	}
	if len(b.Clones) != 2 {
		t.Fatalf("expected 2 clones, got %d: %+v", len(b.Clones), b.Clones)
	}

	byName := map[string]Clone{}
	for _, c := range b.Clones {
		byName[c.RepoName] = c
	}
	if byName["core"].Dirty {
		t.Errorf("expected core clone to be clean")
	}
	if !byName["dirty-one"].Dirty {
		t.Errorf("expected dirty-one clone to be dirty")
	}
}

func TestFlattenFiltersByDirtyState(t *testing.T) {
	branches := []Branch{
		{
			Name: "b1",
			Clones: []Clone{
				{RepoName: "clean-repo", Dirty: false},
				{RepoName: "dirty-repo", Dirty: true},
			},
		},
	}

	dirty := flatten(branches, FilterDirty)
	if countClones(dirty) != 1 {
		t.Fatalf("expected 1 dirty clone row, got %d", countClones(dirty))
	}

	clean := flatten(branches, FilterClean)
	if countClones(clean) != 1 {
		t.Fatalf("expected 1 clean clone row, got %d", countClones(clean))
	}

	all := flatten(branches, FilterNone)
	if countClones(all) != 2 {
		t.Fatalf("expected 2 clone rows unfiltered, got %d", countClones(all))
	}
}

func countClones(rows []row) int {
	n := 0
	for _, r := range rows {
		if !r.isHeader {
			n++
		}
	}
	return n
}

package merge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/baserock/morph/internal/gitcmd"
	"github.com/baserock/morph/internal/morpherr"
	"github.com/baserock/morph/internal/testutil"
	"github.com/baserock/morph/pkg/lifecycle"
	"github.com/baserock/morph/pkg/reposource"
	"github.com/baserock/morph/pkg/workspace"
)

func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	return testutil.RunGit(t, dir, args...)
}

func initGitRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	return testutil.InitGitRepo(t, files)
}

func newOrchestrator(t *testing.T) (*lifecycle.Lifecycle, *Orchestrator) {
	t.Helper()
	e := gitcmd.NewExecutor()
	aliases, err := reposource.NewAliasResolver(nil)
	if err != nil {
		t.Fatalf("NewAliasResolver: %v", err)
	}
	cache, err := reposource.NewCache(t.TempDir(), e, false, nil)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	lc := lifecycle.New(e, aliases, cache)
	return lc, New(e, lc)
}

func TestMergeRequiresSameRoot(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	rootA := initGitRepo(t, map[string]string{"README.md": "a\n"})
	rootB := initGitRepo(t, map[string]string{"README.md": "b\n"})

	lc, orch := newOrchestrator(t)
	ws := t.TempDir()
	if err := lc.Init(ws); err != nil {
		t.Fatalf("Init: %v", err)
	}

	receivingDir, err := lc.Branch(context.Background(), ws, rootA, "main-branch", "master")
	if err != nil {
		t.Fatalf("Branch: %v", err)
	}
	fromDir, err := lc.Branch(context.Background(), ws, rootB, "edit-branch", "master")
	if err != nil {
		t.Fatalf("Branch: %v", err)
	}

	_, err = orch.Merge(context.Background(), Options{
		Receiving:  &workspace.Branch{Name: "main-branch", Dir: receivingDir},
		FromBranch: &workspace.Branch{Name: "edit-branch", Dir: fromDir},
	})
	if !errors.Is(err, morpherr.ErrRootMismatch) {
		t.Fatalf("expected ErrRootMismatch, got %v", err)
	}
}

func TestMergeRejectsUncommittedChangesInSourceRepo(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}

	rootUpstream := initGitRepo(t, map[string]string{"system.morph": "kind: system\nstrata: []\n"})

	lc, orch := newOrchestrator(t)
	ws := t.TempDir()
	if err := lc.Init(ws); err != nil {
		t.Fatalf("Init: %v", err)
	}

	receivingDir, err := lc.Branch(context.Background(), ws, rootUpstream, "main-branch", "master")
	if err != nil {
		t.Fatalf("Branch (receiving): %v", err)
	}
	fromDir, err := lc.Branch(context.Background(), ws, rootUpstream, "edit-branch", "master")
	if err != nil {
		t.Fatalf("Branch (from): %v", err)
	}

	// Dirty the source branch's root clone without committing.
	rootClone := filepath.Join(fromDir, workspace.ConvertURIToPath(rootUpstream))
	if err := os.WriteFile(filepath.Join(rootClone, "system.morph"), []byte("kind: system\nstrata: []\nextra: uncommitted\n"), 0o644); err != nil {
		t.Fatalf("write system.morph: %v", err)
	}

	_, err = orch.Merge(context.Background(), Options{
		Receiving:  &workspace.Branch{Name: "main-branch", Dir: receivingDir},
		FromBranch: &workspace.Branch{Name: "edit-branch", Dir: fromDir},
	})
	if !errors.Is(err, morpherr.ErrUncommittedChanges) {
		t.Fatalf("expected ErrUncommittedChanges, got %v", err)
	}
}

func TestMergeDescendsIntoStratumRepo(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}

	stratumUpstream := initGitRepo(t, map[string]string{
		"core.morph": "kind: stratum\nname: core\nchunks: []\n",
	})

	systemMorph := `kind: system
strata:
  - name: core
    repo: ` + stratumUpstream + `
    ref: edit-branch
    morph: core.morph
`
	rootUpstream := initGitRepo(t, map[string]string{"system.morph": systemMorph})

	lc, orch := newOrchestrator(t)
	ws := t.TempDir()
	if err := lc.Init(ws); err != nil {
		t.Fatalf("Init: %v", err)
	}

	receivingDir, err := lc.Branch(context.Background(), ws, rootUpstream, "main-branch", "master")
	if err != nil {
		t.Fatalf("Branch (receiving): %v", err)
	}
	fromDir, err := lc.Branch(context.Background(), ws, rootUpstream, "edit-branch", "master")
	if err != nil {
		t.Fatalf("Branch (from): %v", err)
	}

	// Make the stratum repo available on both sides, as `edit` would have
	// on the source side and a prior checkout would have on the receiving
	// side.
	stratumInFrom := filepath.Join(fromDir, workspace.ConvertURIToPath(stratumUpstream))
	if err := lc.CloneToDirectory(context.Background(), stratumInFrom, stratumUpstream, "master"); err != nil {
		t.Fatalf("clone stratum into from branch: %v", err)
	}
	runGit(t, stratumInFrom, "checkout", "-b", "edit-branch")

	stratumInReceiving := filepath.Join(receivingDir, workspace.ConvertURIToPath(stratumUpstream))
	if err := lc.CloneToDirectory(context.Background(), stratumInReceiving, stratumUpstream, "master"); err != nil {
		t.Fatalf("clone stratum into receiving branch: %v", err)
	}
	runGit(t, stratumInReceiving, "checkout", "-b", "main-branch")

	// Simulate an edit: add a description field to the stratum morphology
	// on the source side.
	corePath := filepath.Join(stratumInFrom, "core.morph")
	data, err := os.ReadFile(corePath)
	if err != nil {
		t.Fatalf("read core.morph: %v", err)
	}
	edited := string(data) + "description: edited\n"
	if err := os.WriteFile(corePath, []byte(edited), 0o644); err != nil {
		t.Fatalf("write core.morph: %v", err)
	}
	runGit(t, stratumInFrom, "commit", "-a", "-q", "-m", "edit core.morph")

	result, err := orch.Merge(context.Background(), Options{
		Receiving:  &workspace.Branch{Name: "main-branch", Dir: receivingDir},
		FromBranch: &workspace.Branch{Name: "edit-branch", Dir: fromDir},
	})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if len(result.ReposMerged) != 2 {
		t.Errorf("expected 2 repos merged (root + stratum), got %v", result.ReposMerged)
	}

	mergedCore, err := os.ReadFile(filepath.Join(stratumInReceiving, "core.morph"))
	if err != nil {
		t.Fatalf("read merged core.morph: %v", err)
	}
	if !strings.Contains(string(mergedCore), "description: edited") {
		t.Errorf("expected the stratum edit to land in the receiving clone, got:\n%s", mergedCore)
	}

	mergedSystem, err := os.ReadFile(filepath.Join(receivingDir, workspace.ConvertURIToPath(rootUpstream), "system.morph"))
	if err != nil {
		t.Fatalf("read merged system.morph: %v", err)
	}
	if !strings.Contains(string(mergedSystem), "ref: main-branch") {
		t.Errorf("expected the stratum ref to be rewritten to main-branch, got:\n%s", mergedSystem)
	}
	if strings.Contains(string(mergedSystem), "ref: edit-branch") {
		t.Errorf("did not expect edit-branch to remain as a ref, got:\n%s", mergedSystem)
	}
}

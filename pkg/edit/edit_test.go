package edit

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/baserock/morph/internal/gitcmd"
	"github.com/baserock/morph/internal/testutil"
	"github.com/baserock/morph/pkg/lifecycle"
	"github.com/baserock/morph/pkg/reposource"
	"github.com/baserock/morph/pkg/workspace"
)

const systemMorph = `kind: system
strata:
  - name: core
    repo: ROOT
    ref: master
    morph: core.morph
`

const coreMorph = `kind: stratum
name: core
chunks:
  - name: bar
    repo: ROOT
    ref: master
    morph: bar.morph
`

func initRepoWithMorphs(t *testing.T) string {
	t.Helper()
	return testutil.InitGitRepo(t, map[string]string{
		"system.morph": systemMorph,
		"core.morph":   coreMorph,
		"bar.morph":    "kind: chunk\nname: bar\n",
	})
}

func setup(t *testing.T) (*lifecycle.Lifecycle, *Propagator) {
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

func TestEditRewritesStratumRefInSameRepo(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	upstream := initRepoWithMorphs(t)

	lc, prop := setup(t)

	ws := t.TempDir()
	if err := lc.Init(ws); err != nil {
		t.Fatalf("Init: %v", err)
	}

	branchDir, err := lc.Branch(context.Background(), ws, upstream, "new-feature", "master")
	if err != nil {
		t.Fatalf("Branch: %v", err)
	}

	branch := &workspace.Branch{Name: "new-feature", Dir: branchDir}

	rootDir, err := workspace.FindRepository(context.Background(), prop.Exec, branchDir, upstream)
	if err != nil {
		t.Fatalf("FindRepository: %v", err)
	}
	if rootDir == "" {
		t.Fatal("expected the root repo to already be cloned by Branch")
	}

	// Point the stratum/chunk repo fields at the real upstream path so
	// makeRepositoryAvailable resolves them to the same clone.
	for _, name := range []string{"system.morph", "core.morph"} {
		path := filepath.Join(rootDir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		fixed := strings.ReplaceAll(string(data), "ROOT", upstream)
		if err := os.WriteFile(path, []byte(fixed), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	commit := exec.Command("git", "commit", "-a", "-q", "-m", "point at real upstream path")
	commit.Dir = rootDir
	if out, err := commit.CombinedOutput(); err != nil {
		t.Fatalf("git commit: %v\n%s", err, out)
	}

	log, err := prop.Edit(context.Background(), branch, upstream, "system.morph", "core", "")
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}

	if msgs := log.Messages(upstream); len(msgs) != 1 {
		t.Fatalf("expected one changelog message for %s, got %v", upstream, msgs)
	}

	data, err := os.ReadFile(filepath.Join(rootDir, "system.morph"))
	if err != nil {
		t.Fatalf("read system.morph: %v", err)
	}
	if !strings.Contains(string(data), "ref: new-feature") {
		t.Errorf("expected system.morph to reference ref: new-feature, got:\n%s", data)
	}
}

func TestEditRewritesChunkRef(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	upstream := initRepoWithMorphs(t)

	lc, prop := setup(t)
	ws := t.TempDir()
	if err := lc.Init(ws); err != nil {
		t.Fatalf("Init: %v", err)
	}
	branchDir, err := lc.Branch(context.Background(), ws, upstream, "new-feature", "master")
	if err != nil {
		t.Fatalf("Branch: %v", err)
	}
	branch := &workspace.Branch{Name: "new-feature", Dir: branchDir}

	rootDir, err := workspace.FindRepository(context.Background(), prop.Exec, branchDir, upstream)
	if err != nil {
		t.Fatalf("FindRepository: %v", err)
	}

	for _, name := range []string{"system.morph", "core.morph"} {
		path := filepath.Join(rootDir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		fixed := strings.ReplaceAll(string(data), "ROOT", upstream)
		if err := os.WriteFile(path, []byte(fixed), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	commit := exec.Command("git", "commit", "-a", "-q", "-m", "point at real upstream path")
	commit.Dir = rootDir
	if out, err := commit.CombinedOutput(); err != nil {
		t.Fatalf("git commit: %v\n%s", err, out)
	}

	log, err := prop.Edit(context.Background(), branch, upstream, "system.morph", "core", "bar")
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if len(log.Repos()) == 0 {
		t.Error("expected at least one changelog entry")
	}

	data, err := os.ReadFile(filepath.Join(rootDir, "core.morph"))
	if err != nil {
		t.Fatalf("read core.morph: %v", err)
	}
	if !strings.Contains(string(data), "ref: new-feature") {
		t.Errorf("expected core.morph's chunk to reference ref: new-feature, got:\n%s", data)
	}
}


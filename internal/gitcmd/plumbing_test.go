package gitcmd

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// initTestGitRepo creates a temporary git repository with an initial commit.
// Returns the resolved (real) path to avoid symlink issues on macOS.
func initTestGitRepo(t *testing.T, dir string) string {
	t.Helper()

	realDir, err := filepath.EvalSymlinks(dir)
	if err != nil {
		realDir = dir
	}

	if err := os.WriteFile(filepath.Join(realDir, "README.md"), []byte("# test\n"), 0o644); err != nil {
		t.Fatalf("write README: %v", err)
	}

	cmds := [][]string{
		{"git", "init", "-q"},
		{"git", "config", "user.email", "test@example.com"},
		{"git", "config", "user.name", "Test User"},
		{"git", "add", "."},
		{"git", "commit", "-q", "-m", "initial"},
	}
	for _, args := range cmds {
		cmd := exec.Command(args[0], args[1:]...)
		cmd.Dir = realDir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("run %v: %v\n%s", args, err, out)
		}
	}
	return realDir
}

func TestShowRef(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	dir := initTestGitRepo(t, t.TempDir())
	e := NewExecutor()
	ctx := context.Background()

	sha, err := e.ShowRef(ctx, dir, "refs/heads/master")
	if err != nil {
		t.Fatalf("ShowRef: %v", err)
	}
	if sha == "" {
		// Some git defaults use "main" for init.
		sha, err = e.ShowRef(ctx, dir, "refs/heads/main")
		if err != nil {
			t.Fatalf("ShowRef(main): %v", err)
		}
	}
	if sha == "" {
		t.Fatal("expected a resolvable ref")
	}
	if len(sha) != 40 {
		t.Fatalf("expected 40-hex SHA, got %q", sha)
	}
}

func TestShowRefMissing(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	dir := initTestGitRepo(t, t.TempDir())
	e := NewExecutor()

	sha, err := e.ShowRef(context.Background(), dir, "refs/heads/does-not-exist")
	if err != nil {
		t.Fatalf("ShowRef: %v", err)
	}
	if sha != "" {
		t.Fatalf("expected empty SHA for missing ref, got %q", sha)
	}
}

func TestRevParseVerify(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	dir := initTestGitRepo(t, t.TempDir())
	e := NewExecutor()
	ctx := context.Background()

	head, err := e.RunOutput(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		t.Fatalf("rev-parse HEAD: %v", err)
	}

	ok, err := e.RevParseVerify(ctx, dir, head)
	if err != nil {
		t.Fatalf("RevParseVerify: %v", err)
	}
	if !ok {
		t.Fatal("expected HEAD sha to verify")
	}

	ok, err = e.RevParseVerify(ctx, dir, strings.Repeat("0", 40))
	if err != nil {
		t.Fatalf("RevParseVerify(zero sha): %v", err)
	}
	if ok {
		t.Fatal("expected all-zero sha not to verify")
	}
}

func TestStatusPorcelainIncludesUntracked(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	dir := initTestGitRepo(t, t.TempDir())
	e := NewExecutor()
	ctx := context.Background()

	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("# changed\n"), 0o644); err != nil {
		t.Fatalf("modify tracked file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "untracked.txt"), []byte("new\n"), 0o644); err != nil {
		t.Fatalf("create untracked file: %v", err)
	}

	changed, err := e.StatusPorcelain(ctx, dir, nil)
	if err != nil {
		t.Fatalf("StatusPorcelain: %v", err)
	}
	want := map[string]bool{"README.md": true, "untracked.txt": true}
	if len(changed) != len(want) {
		t.Fatalf("expected %v, got %v", want, changed)
	}
	for _, p := range changed {
		if !want[p] {
			t.Fatalf("unexpected path %q in %v", p, changed)
		}
	}
}

func TestIsolatedIndexRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	dir := initTestGitRepo(t, t.TempDir())
	e := NewExecutor()
	ctx := context.Background()

	head, err := e.RunOutput(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		t.Fatalf("rev-parse HEAD: %v", err)
	}

	env := IsolatedIndexEnv(filepath.Join(dir, ".git"), "Morph (on behalf of Test User)", "test@example.com")

	if err := e.ReadTree(ctx, dir, head, env); err != nil {
		t.Fatalf("ReadTree: %v", err)
	}

	newFile := filepath.Join(dir, "ephemeral.txt")
	if err := os.WriteFile(newFile, []byte("ephemeral\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	sha, err := e.HashObjectWrite(ctx, dir, "ephemeral.txt", env)
	if err != nil {
		t.Fatalf("HashObjectWrite: %v", err)
	}
	if err := e.UpdateIndexCacheInfo(ctx, dir, sha, "ephemeral.txt", env); err != nil {
		t.Fatalf("UpdateIndexCacheInfo: %v", err)
	}

	tree, err := e.WriteTree(ctx, dir, env)
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}

	commit, err := e.CommitTree(ctx, dir, tree, head, "ephemeral commit", env)
	if err != nil {
		t.Fatalf("CommitTree: %v", err)
	}

	if err := e.UpdateRef(ctx, dir, "refs/heads/morph-ephemeral", commit, "ephemeral build", env); err != nil {
		t.Fatalf("UpdateRef: %v", err)
	}

	// The working tree and the real index must remain untouched: the real
	// status should not show ephemeral.txt as staged, only as untracked.
	status, err := e.RunOutput(ctx, dir, "status", "--porcelain")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(status, "?? ephemeral.txt") {
		t.Fatalf("expected ephemeral.txt to remain untracked in the real index, got: %q", status)
	}

	resolved, err := e.ShowRef(ctx, dir, "refs/heads/morph-ephemeral")
	if err != nil {
		t.Fatalf("ShowRef: %v", err)
	}
	if resolved != commit {
		t.Fatalf("expected ref to resolve to %s, got %s", commit, resolved)
	}
}

package reposource

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/baserock/morph/internal/gitcmd"
)

func TestMirrorDirIsDeterministic(t *testing.T) {
	c := &Cache{Dir: t.TempDir(), Exec: gitcmd.NewExecutor()}

	a := c.mirrorDir("https://example.com/foo.git")
	b := c.mirrorDir("https://example.com/foo.git")
	if a != b {
		t.Errorf("mirrorDir should be deterministic: %q != %q", a, b)
	}

	other := c.mirrorDir("https://example.com/bar.git")
	if a == other {
		t.Error("mirrorDir should differ for different URLs")
	}
}

func initUpstreamRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	real, err := filepath.EvalSymlinks(dir)
	if err != nil {
		real = dir
	}
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = real
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}
	run("init", "-q")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "Test User")
	if err := os.WriteFile(filepath.Join(real, "README.md"), []byte("hi\n"), 0o644); err != nil {
		t.Fatalf("write README: %v", err)
	}
	run("add", ".")
	run("commit", "-q", "-m", "initial")
	return real
}

func TestEnsureCachedAndCheckoutInto(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	upstream := initUpstreamRepo(t)

	cacheDir := t.TempDir()
	c, err := NewCache(cacheDir, gitcmd.NewExecutor(), false, nil)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}

	cached, err := c.EnsureCached(context.Background(), upstream)
	if err != nil {
		t.Fatalf("EnsureCached: %v", err)
	}

	dest := filepath.Join(t.TempDir(), "checkout")
	if err := cached.CheckoutInto(context.Background(), "master", dest); err != nil {
		t.Fatalf("CheckoutInto: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dest, "README.md")); err != nil {
		t.Errorf("expected README.md in checkout: %v", err)
	}
}

package workspace

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/baserock/morph/internal/gitcmd"
	"github.com/baserock/morph/internal/morpherr"
)

func initRepoWithGitmodules(t *testing.T, gitmodules string) string {
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

	if gitmodules != "" {
		if err := os.WriteFile(filepath.Join(real, ".gitmodules"), []byte(gitmodules), 0o644); err != nil {
			t.Fatalf("write .gitmodules: %v", err)
		}
		if err := os.MkdirAll(filepath.Join(real, "vendor", "lib"), 0o755); err != nil {
			t.Fatalf("mkdir submodule path: %v", err)
		}
		if err := os.WriteFile(filepath.Join(real, "vendor", "lib", ".keep"), nil, 0o644); err != nil {
			t.Fatalf("write placeholder: %v", err)
		}
	}

	run("add", ".")
	run("commit", "-q", "-m", "initial")

	if gitmodules != "" {
		// Fake a commit-mode tree entry for the submodule path by recording
		// it directly in the index, since we aren't using a real nested repo.
		// The entry points at this repo's own HEAD commit and replaces the
		// vendor/lib/.keep placeholder.
		hashOut, err := gitRunOutput(real, "rev-parse", "HEAD")
		if err != nil {
			t.Fatalf("rev-parse: %v", err)
		}
		run("update-index", "--add", "--replace", "--cacheinfo", "160000", hashOut, "vendor/lib")
		run("commit", "-q", "-m", "add submodule entry")
	}

	return real
}

func gitRunOutput(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	line := string(out)
	if len(line) > 0 && line[len(line)-1] == '\n' {
		line = line[:len(line)-1]
	}
	return line, nil
}

func TestLoadSubmodules(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	gitmodules := `[submodule "lib"]
	path = vendor/lib
	url = https://example.com/lib.git
`
	dir := initRepoWithGitmodules(t, gitmodules)
	e := gitcmd.NewExecutor()

	subs, err := LoadSubmodules(context.Background(), e, dir, "HEAD")
	if err != nil {
		t.Fatalf("LoadSubmodules: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("expected 1 submodule, got %d", len(subs))
	}
	if subs[0].Name != "lib" || subs[0].Path != "vendor/lib" || subs[0].URL != "https://example.com/lib.git" {
		t.Errorf("unexpected submodule record: %+v", subs[0])
	}
	if len(subs[0].Commit) != 40 {
		t.Errorf("expected a 40-hex commit, got %q", subs[0].Commit)
	}
}

func TestLoadSubmodulesMissing(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	dir := initRepoWithGitmodules(t, "")
	e := gitcmd.NewExecutor()

	_, err := LoadSubmodules(context.Background(), e, dir, "HEAD")
	if !errors.Is(err, morpherr.ErrMissingGitmodules) {
		t.Fatalf("expected ErrMissingGitmodules, got %v", err)
	}
}

func TestLoadSubmodulesMalformedSection(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	gitmodules := `[notasubmodule]
	foo = bar
`
	dir := initRepoWithGitmodules(t, gitmodules)
	e := gitcmd.NewExecutor()

	_, err := LoadSubmodules(context.Background(), e, dir, "HEAD")
	if !errors.Is(err, morpherr.ErrMalformedSection) {
		t.Fatalf("expected ErrMalformedSection, got %v", err)
	}
}

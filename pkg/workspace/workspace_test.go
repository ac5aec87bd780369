package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/baserock/morph/internal/morpherr"
)

func TestDeduceWorkspaceFromRoot(t *testing.T) {
	ws := t.TempDir()
	if err := os.Mkdir(filepath.Join(ws, WorkspaceMarker), 0o755); err != nil {
		t.Fatalf("mkdir marker: %v", err)
	}

	found, err := DeduceWorkspace(ws)
	if err != nil {
		t.Fatalf("DeduceWorkspace: %v", err)
	}
	if found != ws {
		t.Errorf("DeduceWorkspace() = %q, want %q", found, ws)
	}
}

func TestDeduceWorkspaceFromDescendant(t *testing.T) {
	ws := t.TempDir()
	if err := os.Mkdir(filepath.Join(ws, WorkspaceMarker), 0o755); err != nil {
		t.Fatalf("mkdir marker: %v", err)
	}
	deep := filepath.Join(ws, "branch", "host", "repo", "subdir")
	if err := os.MkdirAll(deep, 0o755); err != nil {
		t.Fatalf("mkdir deep: %v", err)
	}

	found, err := DeduceWorkspace(deep)
	if err != nil {
		t.Fatalf("DeduceWorkspace: %v", err)
	}
	if found != ws {
		t.Errorf("DeduceWorkspace() = %q, want %q", found, ws)
	}
}

func TestDeduceWorkspaceNotFound(t *testing.T) {
	dir := t.TempDir()
	_, err := DeduceWorkspace(dir)
	if !errors.Is(err, morpherr.ErrWorkspaceNotFound) {
		t.Fatalf("expected ErrWorkspaceNotFound, got %v", err)
	}
}

func TestConvertURIToPath(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"baserock:morphs", "baserock:morphs"},
		{"https://github.com/baserock/morphs.git", "github.com/baserock/morphs"},
		{"git@github.com:baserock/morphs.git", "github.com/baserock/morphs"},
		{"/local/path/to/repo.git", "local/path/to/repo"},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			got := ConvertURIToPath(tt.uri)
			if got != tt.want {
				t.Errorf("ConvertURIToPath(%q) = %q, want %q", tt.uri, got, tt.want)
			}
		})
	}
}

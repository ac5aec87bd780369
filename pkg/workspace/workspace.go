// Package workspace implements the repository layout registry: discovering
// the enclosing workspace and system-branch directories, mapping a logical
// repo name to its on-disk clone, and parsing .gitmodules records. Directory
// discovery is a bounded, depth-limited walk that stops at the first
// workspace/branch marker it finds, rather than scanning for every git repo
// underneath.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/baserock/morph/internal/morpherr"
)

// WorkspaceMarker is the marker subdirectory naming a workspace root.
const WorkspaceMarker = ".morph"

// BranchMarker is the marker subdirectory naming a system-branch directory.
const BranchMarker = ".morph-system-branch"

// DeduceWorkspace walks from dir upward looking for a directory containing
// WorkspaceMarker. Returns morpherr.ErrWorkspaceNotFound if none is found
// before reaching the filesystem root.
func DeduceWorkspace(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("workspace: resolve %q: %w", dir, err)
	}

	current := abs
	for {
		if isDir(filepath.Join(current, WorkspaceMarker)) {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", morpherr.Wrap(fmt.Errorf("no %s marker found above %s", WorkspaceMarker, abs), morpherr.ErrWorkspaceNotFound)
		}
		current = parent
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// ConvertURIToPath derives the deterministic, collision-resistant
// subdirectory a clone of uri lives at, relative to a branch directory. A
// relative-looking URI (no scheme, not rooted) is an alias-style name
// (e.g. "baserock:morphs") and passes through unchanged; anything else has
// its scheme stripped, a trailing ".git" removed, and is rejoined as
// host/path.
func ConvertURIToPath(uri string) string {
	rest, hasScheme := splitScheme(uri)
	if !hasScheme {
		return uri
	}
	rest = strings.TrimSuffix(rest, ".git")
	return strings.TrimPrefix(rest, "/")
}

// splitScheme reports the host+path remainder of a non-relative URI.
// Recognizes "scheme://host/path", the SCP-like "user@host:path" form
// (rewritten to "host/path"), and a bare absolute local path. Returns
// hasScheme=false for relative/alias-style names ("baserock:morphs",
// "./foo", "../foo"), which ConvertURIToPath passes through unchanged.
func splitScheme(uri string) (rest string, hasScheme bool) {
	if idx := strings.Index(uri, "://"); idx >= 0 {
		return uri[idx+3:], true
	}
	if at := strings.Index(uri, "@"); at >= 0 {
		if colon := strings.Index(uri[at+1:], ":"); colon >= 0 {
			host := uri[at+1 : at+1+colon]
			path := uri[at+1+colon+1:]
			return host + "/" + path, true
		}
	}
	if strings.HasPrefix(uri, "/") {
		return uri, true
	}
	return "", false
}

package workspace

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/baserock/morph/internal/gitcmd"
	"github.com/baserock/morph/internal/morpherr"
)

// Submodule is a single entry parsed from a tree's .gitmodules file, with
// its commit resolved from the parent tree.
type Submodule struct {
	Name   string
	URL    string
	Path   string
	Commit string
}

var submoduleSectionPattern = regexp.MustCompile(`^submodule "(.*)"$`)

// LoadSubmodules reads and parses the .gitmodules file stored at ref in
// repoDir, resolving each submodule's recorded commit via `git ls-tree`.
// Returns morpherr.ErrMissingGitmodules if the ref has no .gitmodules blob,
// morpherr.ErrMalformedSection if a section doesn't match `submodule
// "<name>"`, and morpherr.ErrMissingSubmoduleCommit if a submodule has no
// 40-hex commit recorded in the tree.
func LoadSubmodules(ctx context.Context, exec *gitcmd.Executor, repoDir, ref string) ([]Submodule, error) {
	content, err := exec.CatFileBlob(ctx, repoDir, ref, ".gitmodules")
	if err != nil {
		return nil, morpherr.Wrap(fmt.Errorf("%s:.gitmodules: %w", ref, err), morpherr.ErrMissingGitmodules)
	}

	subs, err := parseGitmodules(ref, content)
	if err != nil {
		return nil, err
	}

	for i := range subs {
		commit, err := resolveSubmoduleCommit(ctx, exec, repoDir, ref, subs[i].Path)
		if err != nil {
			return nil, err
		}
		subs[i].Commit = commit
	}

	return subs, nil
}

// parseGitmodules strips per-line indentation (RawConfigParser's Python
// equivalent rejects indented sections) before feeding the content to a
// permissive INI parser, and validates every section name against
// `submodule "<name>"`.
func parseGitmodules(ref, content string) ([]Submodule, error) {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	stripped := strings.Join(lines, "\n")

	cfg, err := ini.LoadSources(ini.LoadOptions{AllowNonUniqueSections: true}, []byte(stripped))
	if err != nil {
		return nil, fmt.Errorf("%s:.gitmodules: parse: %w", ref, err)
	}

	var subs []Submodule
	for _, section := range cfg.Sections() {
		name := section.Name()
		if name == ini.DefaultSection {
			continue
		}
		m := submoduleSectionPattern.FindStringSubmatch(name)
		if m == nil {
			return nil, morpherr.Wrap(fmt.Errorf("%s:.gitmodules: found a misformatted section title: [%s]", ref, name), morpherr.ErrMalformedSection)
		}
		subs = append(subs, Submodule{
			Name: m[1],
			URL:  section.Key("url").String(),
			Path: section.Key("path").String(),
		})
	}
	return subs, nil
}

func resolveSubmoduleCommit(ctx context.Context, exec *gitcmd.Executor, repoDir, ref, path string) (string, error) {
	line, err := exec.LsTree(ctx, repoDir, ref, path)
	fields := strings.Fields(line)
	if err != nil || len(fields) < 3 || len(fields[2]) != 40 {
		return "", morpherr.Wrap(fmt.Errorf("%s:.gitmodules: no commit object found for submodule %q", ref, path), morpherr.ErrMissingSubmoduleCommit)
	}
	return fields[2], nil
}

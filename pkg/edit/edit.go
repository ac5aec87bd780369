// Package edit implements the edit propagator: given a system branch and a
// stratum (and optionally a chunk) name, it fetches whatever repo holds
// that component into the branch directory and rewrites the edit path's
// morphology refs to point at the branch name, so a subsequent build sees
// the user's edits.
package edit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/baserock/morph/internal/gitcmd"
	"github.com/baserock/morph/internal/morpherr"
	"github.com/baserock/morph/pkg/lifecycle"
	"github.com/baserock/morph/pkg/morphology"
	"github.com/baserock/morph/pkg/workspace"
)

// ChangeLog is a process-local record of human-readable change messages,
// keyed by logical repo name, in the order they were emitted. It replaces
// the original plugin's mutable global changelog with a value threaded
// explicitly through Edit.
type ChangeLog struct {
	entries map[string][]string
	order   []string
}

// NewChangeLog returns an empty ChangeLog.
func NewChangeLog() *ChangeLog {
	return &ChangeLog{entries: map[string][]string{}}
}

// Add appends a message for repo, tracking first-seen repo order.
func (c *ChangeLog) Add(repo, message string) {
	if _, ok := c.entries[repo]; !ok {
		c.order = append(c.order, repo)
	}
	c.entries[repo] = append(c.entries[repo], message)
}

// Messages returns the messages recorded for repo, in emission order.
func (c *ChangeLog) Messages(repo string) []string {
	return c.entries[repo]
}

// Repos returns every repo with at least one message, in first-seen order.
func (c *ChangeLog) Repos() []string {
	return c.order
}

// Propagator implements edit against a workspace's branch directories.
type Propagator struct {
	Exec      *gitcmd.Executor
	Lifecycle *lifecycle.Lifecycle
}

// New constructs a Propagator.
func New(exec *gitcmd.Executor, lc *lifecycle.Lifecycle) *Propagator {
	return &Propagator{Exec: exec, Lifecycle: lc}
}

// Edit performs edit(system, stratum [, chunk]): it loads systemMorphPath
// from the branch-root clone, locates the named stratum, makes its repo
// available in the branch, and rewrites the stratum's ref to branchName
// if it isn't already. If chunkName is non-empty, it repeats the same
// rewrite one level down inside the stratum morphology. Returns a
// ChangeLog describing what was rewritten.
func (p *Propagator) Edit(ctx context.Context, branch *workspace.Branch, rootRepo, systemMorphPath, stratumName, chunkName string) (*ChangeLog, error) {
	log := NewChangeLog()

	rootDir, err := workspace.FindRepository(ctx, p.Exec, branch.Dir, rootRepo)
	if err != nil {
		return nil, err
	}
	if rootDir == "" {
		return nil, morpherr.Wrap(fmt.Errorf("branch root repo %q not found in branch %s", rootRepo, branch.Name), morpherr.ErrComponentNotFound)
	}

	systemFile := filepath.Join(rootDir, systemMorphPath)
	systemDoc, err := loadDocument(systemFile)
	if err != nil {
		return nil, err
	}

	stratumEntry, err := systemDoc.LookupChildByName(morphology.CollectionStrata, stratumName)
	if err != nil {
		return nil, err
	}
	stratum := morphology.Entry{
		Node: stratumEntry,
		Name: stratumName,
	}
	stratum.Repo, stratum.Ref, stratum.Morph = fieldValues(systemDoc, morphology.CollectionStrata, stratumName)

	stratumDir, err := p.makeRepositoryAvailable(ctx, branch, stratum.Repo, stratum.Ref)
	if err != nil {
		return nil, err
	}

	if stratum.Ref != branch.Name {
		if stratum.Repo == rootRepo {
			if err := restoreOriginalContent(ctx, p.Exec, rootDir, stratum.Ref, stratum.Morph); err != nil {
				return nil, err
			}
		}
		morphology.SetRef(stratum.Node, branch.Name)
		if err := systemDoc.Save(systemFile); err != nil {
			return nil, err
		}
		log.Add(rootRepo, fmt.Sprintf("Changed ref of stratum %s to %s", stratumName, branch.Name))
	}

	if chunkName == "" {
		return log, nil
	}

	stratumFile := filepath.Join(stratumDir, stratum.Morph)
	stratumDoc, err := loadDocument(stratumFile)
	if err != nil {
		return nil, err
	}

	chunkEntry, err := stratumDoc.LookupChildByName(morphology.CollectionChunks, chunkName)
	if err != nil {
		return nil, err
	}
	chunk := morphology.Entry{Node: chunkEntry, Name: chunkName}
	chunk.Repo, chunk.Ref, chunk.Morph = fieldValues(stratumDoc, morphology.CollectionChunks, chunkName)

	if _, err := p.makeRepositoryAvailable(ctx, branch, chunk.Repo, chunk.Ref); err != nil {
		return nil, err
	}

	if chunk.Ref != branch.Name {
		if chunk.Repo == stratum.Repo {
			if err := restoreOriginalContent(ctx, p.Exec, stratumDir, chunk.Ref, chunk.Morph); err != nil {
				return nil, err
			}
		}
		morphology.SetRef(chunk.Node, branch.Name)
		if err := stratumDoc.Save(stratumFile); err != nil {
			return nil, err
		}
		log.Add(stratum.Repo, fmt.Sprintf("Changed ref of chunk %s to %s", chunkName, branch.Name))
	}

	return log, nil
}

// makeRepositoryAvailable fetches repo into the branch directory if it
// isn't already cloned there, then checks out branch.Name in it (creating
// the local branch if this is the first repo to see it, else falling back
// to a plain checkout for a branch name already pushed by an earlier
// edit). Returns the clone directory.
func (p *Propagator) makeRepositoryAvailable(ctx context.Context, branch *workspace.Branch, repo, ref string) (string, error) {
	existing, err := workspace.FindRepository(ctx, p.Exec, branch.Dir, repo)
	if err != nil {
		return "", err
	}
	if existing != "" {
		if _, err := p.Exec.Run(ctx, existing, "checkout", branch.Name); err != nil {
			return "", fmt.Errorf("edit: checkout %s in %s: %w", branch.Name, existing, err)
		}
		return existing, nil
	}

	dir := filepath.Join(branch.Dir, workspace.ConvertURIToPath(repo))
	if err := p.Lifecycle.CloneToDirectory(ctx, dir, repo, ref); err != nil {
		return "", err
	}

	if _, err := p.Exec.RunOutput(ctx, dir, "checkout", "-b", branch.Name); err != nil {
		if _, err := p.Exec.RunOutput(ctx, dir, "checkout", branch.Name); err != nil {
			return "", fmt.Errorf("edit: checkout %s in %s: %w", branch.Name, dir, err)
		}
	}
	return dir, nil
}

// restoreOriginalContent overwrites path in dir's working tree with its
// content at ref, via git cat-file. Used when a stratum or chunk entry is
// about to have its ref rewritten but its morphology file lives in the
// same repo as its parent: the working tree must reflect the content the
// edit path actually referenced, not whatever HEAD happens to hold.
func restoreOriginalContent(ctx context.Context, exec *gitcmd.Executor, dir, ref, path string) error {
	content, err := exec.CatFileBlob(ctx, dir, ref, path)
	if err != nil {
		return fmt.Errorf("edit: read %s at %s: %w", path, ref, err)
	}
	full := filepath.Join(dir, path)
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return fmt.Errorf("edit: restore %s: %w", full, err)
	}
	return nil
}

func loadDocument(path string) (*morphology.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("edit: read %s: %w", path, err)
	}
	doc, err := morphology.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("edit: parse %s: %w", path, err)
	}
	return doc, nil
}

// fieldValues re-looks-up an entry's repo/ref/morph triple by name, used
// after LookupChildByName to populate an Entry's typed fields without
// duplicating yaml.Node field-walking here.
func fieldValues(doc *morphology.Document, collection, name string) (repo, ref, morph string) {
	for _, e := range doc.Entries(collection) {
		if e.Name == name {
			return e.Repo, e.Ref, e.Morph
		}
	}
	return "", "", ""
}

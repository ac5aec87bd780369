package petrify

import (
	"context"
	"fmt"
	"os"

	"github.com/baserock/morph/internal/morpherr"
	"github.com/baserock/morph/pkg/morphology"
	"github.com/baserock/morph/pkg/reposource"
)

// Logger is the minimal sink petrify progress is reported to, matching the
// shape pkg/buildref's Logger already uses.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
}

// Petrifier resolves chunk refs in stratum morphologies to commit SHAs.
type Petrifier struct {
	Aliases *reposource.AliasResolver
	Cache   *reposource.Cache
	Log     Logger
}

// New constructs a Petrifier.
func New(aliases *reposource.AliasResolver, cache *reposource.Cache, log Logger) *Petrifier {
	return &Petrifier{Aliases: aliases, Cache: cache, Log: log}
}

// FileResult reports what Petrify did to one morphology file.
type FileResult struct {
	Path     string
	Skipped  bool // true when path was not a stratum morphology
	Resolved int  // number of chunk refs rewritten to SHAs
}

// Petrify processes each path in order: a morphology that is not a stratum
// is skipped (not an error — mirroring the original tool's "Not a stratum"
// status message and continue); for a stratum, every chunk entry's repo is
// looked up in the cache, its ref resolved to a full commit SHA, and the
// entry rewritten in place before the file is saved. Petrify is idempotent:
// resolving a ref that is already a full SHA returns that same SHA, so
// petrifying an already-petrified stratum twice yields the same bytes.
// Processing stops at the first hard failure (an unresolvable repo or ref);
// results already recorded for earlier paths are returned alongside the
// error.
func (p *Petrifier) Petrify(ctx context.Context, paths []string) ([]FileResult, error) {
	var results []FileResult

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return results, fmt.Errorf("petrify: read %s: %w", path, err)
		}
		doc, err := morphology.Parse(data)
		if err != nil {
			return results, fmt.Errorf("petrify: parse %s: %w", path, err)
		}

		if doc.Kind() != morphology.KindStratum {
			if p.Log != nil {
				p.Log.Info("not a stratum, skipping", "path", path)
			}
			results = append(results, FileResult{Path: path, Skipped: true})
			continue
		}

		if p.Log != nil {
			p.Log.Info("petrifying", "path", path)
		}

		n, err := p.petrifyStratum(ctx, doc)
		if err != nil {
			return results, fmt.Errorf("petrify: %s: %w", path, err)
		}

		if err := doc.Save(path); err != nil {
			return results, fmt.Errorf("petrify: save %s: %w", path, err)
		}

		results = append(results, FileResult{Path: path, Resolved: n})
	}

	return results, nil
}

// petrifyStratum rewrites every chunk entry's ref to a resolved commit SHA
// and returns how many entries were touched. A chunk entry with no explicit
// "repo" field defaults its repo name to the entry's own name, matching the
// original tool's `source.get('repo', source['name'])` fallback.
func (p *Petrifier) petrifyStratum(ctx context.Context, doc *morphology.Document) (int, error) {
	resolved := 0
	for _, entry := range doc.Entries(morphology.CollectionChunks) {
		reponame := entry.Repo
		if reponame == "" {
			reponame = entry.Name
		}
		if reponame == "" {
			return resolved, fmt.Errorf("chunk entry has no repo or name")
		}

		pullURL, _, err := p.Aliases.Resolve(reponame)
		if err != nil {
			return resolved, fmt.Errorf("resolve repo %q: %w", reponame, err)
		}

		repo, err := p.Cache.EnsureCached(ctx, pullURL)
		if err != nil {
			return resolved, fmt.Errorf("cache repo %q: %w", reponame, err)
		}

		sha, err := repo.ResolveSHA(ctx, entry.Ref)
		if err != nil {
			return resolved, morpherr.WrapWithMessage(err, fmt.Sprintf("resolve ref %q for repo %q", entry.Ref, reponame))
		}

		morphology.SetRef(entry.Node, sha)
		resolved++
	}
	return resolved, nil
}

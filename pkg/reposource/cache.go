package reposource

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/baserock/morph/internal/gitcmd"
)

// ForgeEnricher resolves the default branch of a pull URL's repository, for
// forges this process has credentials for. DefaultBranch returns ("", nil)
// when the enricher doesn't recognize the URL's host.
type ForgeEnricher interface {
	DefaultBranch(ctx context.Context, pullURL string) (string, error)
}

// Cache is a content-addressed local mirror of upstream repositories,
// fetched once with `git clone --mirror` and refreshed with `git remote
// update` thereafter.
type Cache struct {
	Dir      string // e.g. $XDG_CACHE_HOME/morph/repos
	Exec     *gitcmd.Executor
	NoUpdate bool
	Enricher ForgeEnricher // optional
}

// CachedRepo is a mirror present on disk, ready for CheckoutInto.
type CachedRepo struct {
	cache   *Cache
	pullURL string
	dir     string
}

// NewCache constructs a Cache rooted at dir, creating it if necessary.
func NewCache(dir string, exec *gitcmd.Executor, noUpdate bool, enricher ForgeEnricher) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("reposource: create cache dir: %w", err)
	}
	return &Cache{Dir: dir, Exec: exec, NoUpdate: noUpdate, Enricher: enricher}, nil
}

// mirrorDir returns the deterministic on-disk path for a pull URL's mirror.
func (c *Cache) mirrorDir(pullURL string) string {
	sum := sha256.Sum256([]byte(pullURL))
	return filepath.Join(c.Dir, hex.EncodeToString(sum[:])+".git")
}

// EnsureCached clones pullURL into the cache if not already present, or
// refreshes it with `git remote update` unless NoUpdate is set.
func (c *Cache) EnsureCached(ctx context.Context, pullURL string) (*CachedRepo, error) {
	dir := c.mirrorDir(pullURL)

	if _, err := os.Stat(dir); err != nil {
		if _, runErr := c.Exec.Run(ctx, c.Dir, "clone", "--mirror", pullURL, dir); runErr != nil {
			return nil, fmt.Errorf("reposource: mirror clone %s: %w", pullURL, runErr)
		}
	} else if !c.NoUpdate {
		if _, runErr := c.Exec.Run(ctx, dir, "remote", "update"); runErr != nil {
			return nil, fmt.Errorf("reposource: mirror update %s: %w", pullURL, runErr)
		}
	}

	return &CachedRepo{cache: c, pullURL: pullURL, dir: dir}, nil
}

// DefaultBranch resolves ref when it is empty or "HEAD": queries the
// configured ForgeEnricher if present, else falls back to "master".
func (r *CachedRepo) DefaultBranch(ctx context.Context) string {
	if r.cache.Enricher != nil {
		if branch, err := r.cache.Enricher.DefaultBranch(ctx, r.pullURL); err == nil && branch != "" {
			return branch
		}
	}
	return "master"
}

// ResolveSHA resolves ref to a full commit SHA against the mirror, without
// checking anything out. Used by the petrifier, which needs a chunk's
// commit SHA but never a working copy of it.
func (r *CachedRepo) ResolveSHA(ctx context.Context, ref string) (string, error) {
	if ref == "" || ref == "HEAD" {
		ref = r.DefaultBranch(ctx)
	}
	sha, err := r.cache.Exec.RunOutput(ctx, r.dir, "rev-parse", ref)
	if err != nil {
		return "", fmt.Errorf("reposource: resolve %s in %s: %w", ref, r.pullURL, err)
	}
	return sha, nil
}

// CheckoutInto checks out ref from the mirror into dir, which must not
// already exist. Empty or "HEAD" ref resolves via DefaultBranch.
func (r *CachedRepo) CheckoutInto(ctx context.Context, ref, dir string) error {
	if ref == "" || ref == "HEAD" {
		ref = r.DefaultBranch(ctx)
	}

	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return fmt.Errorf("reposource: create parent dirs for %s: %w", dir, err)
	}

	if _, err := r.cache.Exec.Run(ctx, r.cache.Dir, "clone", "--local", r.dir, dir); err != nil {
		return fmt.Errorf("reposource: clone from cache into %s: %w", dir, err)
	}
	if _, err := r.cache.Exec.Run(ctx, dir, "checkout", ref); err != nil {
		return fmt.Errorf("reposource: checkout %s in %s: %w", ref, dir, err)
	}
	return nil
}

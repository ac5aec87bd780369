package buildref

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/baserock/morph/internal/gitcmd"
	"github.com/baserock/morph/internal/morphconfig"
	"github.com/baserock/morph/pkg/buildhook"
	"github.com/baserock/morph/pkg/lifecycle"
	"github.com/baserock/morph/pkg/morphology"
	"github.com/baserock/morph/pkg/workspace"
)

// Synthesizer implements build: plan, name, commit, push, hand off, clean
// up.
type Synthesizer struct {
	Exec           *gitcmd.Executor
	BuildRefPrefix string
	Hook           buildhook.Hook

	// Log receives cleanup failures, which must never mask a build error.
	// Nil is fine; failures are simply dropped.
	Log Logger
}

// Logger is the minimal sink build-ref cleanup reports to.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
}

// New constructs a Synthesizer. prefix defaults to
// morphconfig.DefaultConfig().BuildRefPrefix's value when empty; hook
// defaults to buildhook.NoopHook{} when nil.
func New(exec *gitcmd.Executor, prefix string, hook buildhook.Hook, log Logger) *Synthesizer {
	if prefix == "" {
		prefix = "baserock/builds"
	}
	if hook == nil {
		hook = buildhook.NoopHook{}
	}
	return &Synthesizer{Exec: exec, BuildRefPrefix: prefix, Hook: hook, Log: log}
}

// Result reports what a Build call did.
type Result struct {
	Plan     *Plan
	HookErr  error
	Cleanups []error
}

// Build runs the full build-ref algorithm against branch: plan the
// participating repos, name their ephemeral refs, commit each repo's
// working tree (including uncommitted edits) into its ref via an isolated
// index, push every ref, hand the snapshot off to the configured build
// engine, and delete the ephemeral refs again. Cleanup always runs, even
// if an earlier phase failed, and cleanup errors are reported on the
// Result rather than replacing the phase error that triggered the return.
func (s *Synthesizer) Build(ctx context.Context, branch *workspace.Branch, rootRepo, systemMorphPath string) (*Result, error) {
	_, _, branchUUID, err := lifecycle.ReadBranchConfig(ctx, s.Exec, branch.Dir)
	if err != nil {
		return nil, fmt.Errorf("buildref: read branch config: %w", err)
	}

	p, err := s.plan(ctx, branch, rootRepo, systemMorphPath)
	if err != nil {
		return nil, err
	}
	if err := s.name(ctx, branchUUID, p); err != nil {
		return nil, err
	}

	result := &Result{Plan: p}

	defer func() {
		result.Cleanups = s.cleanup(context.Background(), p)
		for _, cerr := range result.Cleanups {
			if s.Log != nil {
				s.Log.Info("build-ref cleanup failed", "error", cerr.Error())
			}
		}
	}()

	if err := s.commitEphemeral(ctx, branch.Name, p); err != nil {
		return result, err
	}
	if err := s.push(ctx, p); err != nil {
		return result, err
	}

	root := p.Repos[p.RootRepo]
	result.HookErr = s.Hook.Invoke(ctx, root.Dir, root.BuildRef, systemMorphPath, os.Environ(), os.Stdout, os.Stderr)
	return result, result.HookErr
}

// commitEphemeral implements step 3: for every plan repo, in plan order,
// stage its parent tree plus its uncommitted changes into an isolated
// index, rewrite the morphologies it carries so edges into other plan
// repos point at their build-refs, and seal the result as a new commit on
// refs/heads/<build-ref>. Plan order is walked sequentially: isolated-index
// work against one repo's own .git directory must not be parallelized with
// itself, and a crash mid-loop leaves only a readable prefix uncommitted.
func (s *Synthesizer) commitEphemeral(ctx context.Context, branchName string, p *Plan) error {
	for _, name := range p.Order {
		r := p.Repos[name]

		userName, err := s.Exec.RunOutput(ctx, r.Dir, "config", "--get", "user.name")
		if err != nil || userName == "" {
			userName = "unknown"
		}
		committerName, committerEmail := morphconfig.CommitterIdentity(userName)
		indexEnv := gitcmd.IsolatedIndexEnv(filepath.Join(r.Dir, ".git"), committerName, committerEmail)

		parent, err := s.Exec.ShowRef(ctx, r.Dir, "refs/heads/"+r.BuildRef)
		if err != nil {
			return fmt.Errorf("buildref: show-ref %s in %s: %w", r.BuildRef, name, err)
		}
		if parent == "" {
			parent, err = s.Exec.RunOutput(ctx, r.Dir, "rev-parse", branchName)
			if err != nil {
				return fmt.Errorf("buildref: rev-parse %s in %s: %w", branchName, name, err)
			}
		}
		r.ParentSHA = parent

		if err := s.Exec.ReadTree(ctx, r.Dir, parent, indexEnv); err != nil {
			return fmt.Errorf("buildref: read-tree in %s: %w", name, err)
		}

		changed, err := s.Exec.StatusPorcelain(ctx, r.Dir, nil)
		if err != nil {
			return fmt.Errorf("buildref: status %s: %w", name, err)
		}
		if err := s.Exec.Add(ctx, r.Dir, changed, indexEnv); err != nil {
			return fmt.Errorf("buildref: add uncommitted paths in %s: %w", name, err)
		}

		if err := s.rewriteMorphologies(ctx, p, r, indexEnv); err != nil {
			return err
		}
		r.State = StateTreeStaged

		tree, err := s.Exec.WriteTree(ctx, r.Dir, indexEnv)
		if err != nil {
			return fmt.Errorf("buildref: write-tree in %s: %w", name, err)
		}

		message := fmt.Sprintf("Morph build of system branch '%s'", branchName)
		commitSHA, err := s.Exec.CommitTree(ctx, r.Dir, tree, parent, message, indexEnv)
		if err != nil {
			return fmt.Errorf("buildref: commit-tree in %s: %w", name, err)
		}
		if err := s.Exec.UpdateRef(ctx, r.Dir, "refs/heads/"+r.BuildRef, commitSHA, message, indexEnv); err != nil {
			return fmt.Errorf("buildref: update-ref in %s: %w", name, err)
		}
		r.CommitSHA = commitSHA
		r.State = StateCommitted
	}
	return nil
}

// rewriteMorphologies rewrites, in the isolated index only, every
// system/stratum morphology r carries: for each stratum entry (if the
// morphology is a system) or chunk entry (if a stratum) whose repo is
// itself in the plan and whose morph basename is one that repo's plan
// node actually participates with, its ref is rewritten to that repo's
// build-ref. The rewritten bytes are hash-object'd directly into the
// object store and cache-info'd into the isolated index; the repo's real
// working-tree file and normal index are never touched.
func (s *Synthesizer) rewriteMorphologies(ctx context.Context, p *Plan, r *Repo, indexEnv []string) error {
	for _, basename := range append(append([]string{}, r.Systems...), r.Strata...) {
		path := filepath.Join(r.Dir, basename)
		doc, err := loadMorphology(path)
		if err != nil {
			return err
		}

		collection := morphology.CollectionStrata
		if doc.Kind() == morphology.KindStratum {
			collection = morphology.CollectionChunks
		}

		for _, entry := range doc.Entries(collection) {
			child, ok := p.Repos[entry.Repo]
			if !ok || !child.participates(collection, entry.Morph) {
				continue
			}
			morphology.SetRef(entry.Node, child.BuildRef)
		}

		data, err := doc.Marshal()
		if err != nil {
			return fmt.Errorf("buildref: marshal %s: %w", path, err)
		}

		tmp, err := os.CreateTemp(r.Dir, ".morph-build-*.tmp")
		if err != nil {
			return fmt.Errorf("buildref: create temp file for %s: %w", basename, err)
		}
		tmpPath := tmp.Name()
		_, writeErr := tmp.Write(data)
		closeErr := tmp.Close()
		if writeErr != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("buildref: write temp file for %s: %w", basename, writeErr)
		}
		if closeErr != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("buildref: close temp file for %s: %w", basename, closeErr)
		}

		sha, err := s.Exec.HashObjectWrite(ctx, r.Dir, tmpPath, indexEnv)
		os.Remove(tmpPath)
		if err != nil {
			return fmt.Errorf("buildref: hash-object %s: %w", basename, err)
		}
		if err := s.Exec.UpdateIndexCacheInfo(ctx, r.Dir, sha, basename, indexEnv); err != nil {
			return fmt.Errorf("buildref: update-index %s: %w", basename, err)
		}
	}
	return nil
}

// push implements step 4: push every build-ref to origin, concurrently,
// since the refs belong to independent repos with no cross-repo
// dependency.
func (s *Synthesizer) push(ctx context.Context, p *Plan) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerLimit())

	for _, name := range p.Order {
		r := p.Repos[name]
		g.Go(func() error {
			refspec := fmt.Sprintf("refs/heads/%s:refs/heads/%s", r.BuildRef, r.BuildRef)
			if _, err := s.Exec.RunOutput(gctx, r.Dir, "push", "origin", refspec); err != nil {
				return fmt.Errorf("buildref: push %s for %s: %w", r.BuildRef, name, err)
			}
			r.State = StatePushed
			return nil
		})
	}
	return g.Wait()
}

// cleanup implements step 6: push an empty-to-ref delete for every
// build-ref, concurrently and unconditionally. It is always invoked by
// Build's deferred cleanup, even when an earlier phase failed, and its own
// failures are returned rather than panicking or masking the build error;
// the caller logs them and a repo whose delete failed is left StateLeaked,
// reclaimed by the next successful build (same deterministic ref name) or
// by a manual `push :<ref>`. Deleting a ref that was never pushed is not
// an error: the repo simply stays at whatever state it was already in.
func (s *Synthesizer) cleanup(ctx context.Context, p *Plan) []error {
	var errs []error
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerLimit())

	errCh := make(chan error, len(p.Order))
	for _, name := range p.Order {
		r := p.Repos[name]
		g.Go(func() error {
			refspec := fmt.Sprintf(":refs/heads/%s", r.BuildRef)
			if _, err := s.Exec.RunOutput(gctx, r.Dir, "push", "origin", refspec); err != nil {
				if r.State != StatePushed {
					return nil
				}
				r.State = StateLeaked
				errCh <- fmt.Errorf("buildref: delete %s for %s: %w", r.BuildRef, name, err)
				return nil
			}
			r.State = StateDeleted
			return nil
		})
	}
	_ = g.Wait()
	close(errCh)
	for err := range errCh {
		errs = append(errs, err)
	}
	return errs
}

func workerLimit() int {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		return 1
	}
	return n
}

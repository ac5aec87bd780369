package buildref

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/baserock/morph/internal/morpherr"
	"github.com/baserock/morph/pkg/morphology"
	"github.com/baserock/morph/pkg/workspace"
)

// State is a plan repo's position in the build-ref state machine:
// unplanned -> planned -> tree-staged -> committed -> pushed -> (deleted |
// leaked). Leaked is reached only when cleanup itself fails.
type State int

const (
	StateUnplanned State = iota
	StatePlanned
	StateTreeStaged
	StateCommitted
	StatePushed
	StateDeleted
	StateLeaked
)

func (s State) String() string {
	switch s {
	case StatePlanned:
		return "planned"
	case StateTreeStaged:
		return "tree-staged"
	case StateCommitted:
		return "committed"
	case StatePushed:
		return "pushed"
	case StateDeleted:
		return "deleted"
	case StateLeaked:
		return "leaked"
	default:
		return "unplanned"
	}
}

// Repo is one node of a build plan: a logical repo with every
// system/stratum/chunk morphology basename in it that participates in the
// current build, plus the ephemeral ref assigned to it once Name runs.
type Repo struct {
	Name    string
	Dir     string
	Systems []string
	Strata  []string
	Chunks  []string

	BuildRef  string
	ParentSHA string
	CommitSHA string
	State     State
}

// participates reports whether basename is one of the morphologies in
// this repo that were reached through a branch-name ref edge, i.e. it
// actually takes part in the plan rather than merely sharing a repo with
// something that does.
func (r *Repo) participates(collection, basename string) bool {
	list := r.Strata
	if collection == morphology.CollectionChunks {
		list = r.Chunks
	}
	for _, m := range list {
		if m == basename {
			return true
		}
	}
	return false
}

// Plan is the transient repo -> {morphologies, build-ref} mapping built by
// a single invocation of the build-ref synthesizer.
type Plan struct {
	RootRepo string
	Repos    map[string]*Repo
	// Order records the order repos were first reached in, BFS-wise; the
	// commit phase walks repos in this order since isolated-index work on
	// one repo's own working directory must not race with itself, and a
	// stable order keeps build logs readable. The order itself carries no
	// meaning beyond reproducibility.
	Order []string
}

func newPlan(rootRepo string) *Plan {
	return &Plan{RootRepo: rootRepo, Repos: map[string]*Repo{}}
}

func (p *Plan) add(name string) *Repo {
	if r, ok := p.Repos[name]; ok {
		return r
	}
	r := &Repo{Name: name, State: StatePlanned}
	p.Repos[name] = r
	p.Order = append(p.Order, name)
	return r
}

// morphWorkItem is one morphology file still to be walked during planning.
type morphWorkItem struct {
	path string // absolute path to the morphology file
	kind morphology.Kind
}

// plan performs a breadth-first walk starting from the branch-root repo's
// system morphology: it walks every stratum entry
// whose ref equals branch.Name, then every chunk entry of those strata
// whose ref also equals branch.Name, adding each reached repo to the plan
// and recording which of its morphology files participate.
func (s *Synthesizer) plan(ctx context.Context, branch *workspace.Branch, rootRepo, systemMorphPath string) (*Plan, error) {
	p := newPlan(rootRepo)

	rootDir, err := workspace.FindRepository(ctx, s.Exec, branch.Dir, rootRepo)
	if err != nil {
		return nil, err
	}
	if rootDir == "" {
		return nil, morpherr.Wrap(fmt.Errorf("branch root repo %q not found in branch %s", rootRepo, branch.Name), morpherr.ErrComponentNotFound)
	}

	root := p.add(rootRepo)
	root.Dir = rootDir
	root.Systems = append(root.Systems, systemMorphPath)

	queue := []morphWorkItem{{path: filepath.Join(rootDir, systemMorphPath), kind: morphology.KindSystem}}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		doc, err := loadMorphology(item.path)
		if err != nil {
			return nil, err
		}

		collection := morphology.CollectionStrata
		if item.kind == morphology.KindStratum {
			collection = morphology.CollectionChunks
		}

		for _, entry := range doc.Entries(collection) {
			if entry.Ref != branch.Name {
				continue
			}

			childDir, err := workspace.FindRepository(ctx, s.Exec, branch.Dir, entry.Repo)
			if err != nil {
				return nil, err
			}
			if childDir == "" {
				return nil, morpherr.Wrap(fmt.Errorf("repo %q not found in branch %s", entry.Repo, branch.Name), morpherr.ErrComponentNotFound)
			}

			child := p.add(entry.Repo)
			child.Dir = childDir

			if collection == morphology.CollectionChunks {
				child.Chunks = append(child.Chunks, entry.Morph)
				// Chunk morphologies are leaf descriptions for the (out of
				// scope) build engine; they carry no further repo/ref
				// edges worth planning.
				continue
			}
			child.Strata = append(child.Strata, entry.Morph)
			queue = append(queue, morphWorkItem{path: filepath.Join(childDir, entry.Morph), kind: morphology.KindStratum})
		}
	}

	return p, nil
}

// name assigns every plan repo's deterministic build-ref:
// <prefix>/<branch.uuid>/<repo.morph.uuid>. Two builds of the same branch
// in the same clones reuse the same ref names, which is what makes cleanup
// idempotent and safe to re-run after a crash.
func (s *Synthesizer) name(ctx context.Context, branchUUID string, p *Plan) error {
	for _, name := range p.Order {
		r := p.Repos[name]
		repoUUID, err := s.Exec.RunOutput(ctx, r.Dir, "config", "--get", "morph.uuid")
		if err != nil {
			return fmt.Errorf("buildref: read morph.uuid for %s: %w", name, err)
		}
		r.BuildRef = fmt.Sprintf("%s/%s/%s", s.BuildRefPrefix, branchUUID, repoUUID)
	}
	return nil
}

func loadMorphology(path string) (*morphology.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("buildref: read %s: %w", path, err)
	}
	doc, err := morphology.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("buildref: parse %s: %w", path, err)
	}
	return doc, nil
}

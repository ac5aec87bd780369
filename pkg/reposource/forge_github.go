package reposource

import (
	"context"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"
)

// GitHubEnricher resolves a repository's default branch via the GitHub
// REST API. Unrated: a default-branch lookup is a single best-effort call
// per repo, not a sync operation worth rate-limiting.
type GitHubEnricher struct {
	client *github.Client
}

// NewGitHubEnricher builds a client authenticated with token, or an
// unauthenticated client if token is empty.
func NewGitHubEnricher(token string) *GitHubEnricher {
	if token == "" {
		return &GitHubEnricher{client: github.NewClient(nil)}
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(context.Background(), ts)
	return &GitHubEnricher{client: github.NewClient(tc)}
}

func (g *GitHubEnricher) DefaultBranch(ctx context.Context, pullURL string) (string, error) {
	_, owner, repo, err := ownerRepo(pullURL)
	if err != nil {
		return "", err
	}
	r, _, err := g.client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return "", err
	}
	return r.GetDefaultBranch(), nil
}

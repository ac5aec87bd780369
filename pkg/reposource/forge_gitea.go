package reposource

import (
	"context"
	"fmt"

	"code.gitea.io/sdk/gitea"
)

// GiteaEnricher resolves a repository's default branch via the Gitea API.
type GiteaEnricher struct {
	client *gitea.Client
}

// NewGiteaEnricher builds a client for baseURL authenticated with token.
func NewGiteaEnricher(token, baseURL string) (*GiteaEnricher, error) {
	client, err := gitea.NewClient(baseURL, gitea.SetToken(token))
	if err != nil {
		return nil, fmt.Errorf("reposource: create Gitea client: %w", err)
	}
	return &GiteaEnricher{client: client}, nil
}

func (g *GiteaEnricher) DefaultBranch(ctx context.Context, pullURL string) (string, error) {
	_, owner, repo, err := ownerRepo(pullURL)
	if err != nil {
		return "", err
	}
	r, _, err := g.client.GetRepo(owner, repo)
	if err != nil {
		return "", err
	}
	return r.DefaultBranch, nil
}

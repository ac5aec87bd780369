package reposource

import (
	"context"
	"fmt"
	"net/url"

	"github.com/xanzy/go-gitlab"
)

// GitLabEnricher resolves a repository's default branch via the GitLab
// API.
type GitLabEnricher struct {
	client *gitlab.Client
}

// NewGitLabEnricher builds a client for baseURL (empty for gitlab.com)
// authenticated with token.
func NewGitLabEnricher(token, baseURL string) (*GitLabEnricher, error) {
	var client *gitlab.Client
	var err error
	if baseURL != "" {
		client, err = gitlab.NewClient(token, gitlab.WithBaseURL(baseURL))
	} else {
		client, err = gitlab.NewClient(token)
	}
	if err != nil {
		return nil, fmt.Errorf("reposource: create GitLab client: %w", err)
	}
	return &GitLabEnricher{client: client}, nil
}

func (g *GitLabEnricher) DefaultBranch(ctx context.Context, pullURL string) (string, error) {
	_, owner, repo, err := ownerRepo(pullURL)
	if err != nil {
		return "", err
	}
	projectID := url.QueryEscape(owner + "/" + repo)
	project, _, err := g.client.Projects.GetProject(projectID, nil, gitlab.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return project.DefaultBranch, nil
}

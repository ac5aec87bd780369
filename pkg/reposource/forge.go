package reposource

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// ownerRepo extracts "owner/repo" from a clone URL of any of the shapes
// AliasResolver.Resolve can produce: "https://host/owner/repo(.git)",
// "ssh://host/owner/repo", or "git@host:owner/repo.git".
func ownerRepo(pullURL string) (host, owner, repo string, err error) {
	normalized := pullURL
	if at := strings.Index(normalized, "@"); at >= 0 && !strings.Contains(normalized, "://") {
		// git@host:owner/repo.git -> ssh://host/owner/repo.git
		rest := normalized[at+1:]
		if colon := strings.Index(rest, ":"); colon >= 0 {
			normalized = "ssh://" + rest[:colon] + "/" + rest[colon+1:]
		}
	}

	u, parseErr := url.Parse(normalized)
	if parseErr != nil || u.Host == "" {
		return "", "", "", fmt.Errorf("reposource: cannot parse owner/repo from %q", pullURL)
	}

	path := strings.Trim(u.Path, "/")
	path = strings.TrimSuffix(path, ".git")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", "", fmt.Errorf("reposource: cannot parse owner/repo from %q", pullURL)
	}
	return u.Host, parts[0], parts[1], nil
}

// MultiEnricher dispatches DefaultBranch to whichever registered
// ForgeEnricher's host set matches the pull URL's host; a host with no
// match returns ("", nil), which Cache treats as "fall back to master".
type MultiEnricher struct {
	byHost map[string]ForgeEnricher
}

// NewMultiEnricher builds a dispatcher from a host -> enricher map.
func NewMultiEnricher(byHost map[string]ForgeEnricher) *MultiEnricher {
	return &MultiEnricher{byHost: byHost}
}

func (m *MultiEnricher) DefaultBranch(ctx context.Context, pullURL string) (string, error) {
	host, _, _, err := ownerRepo(pullURL)
	if err != nil {
		return "", nil
	}
	enricher, ok := m.byHost[host]
	if !ok {
		return "", nil
	}
	return enricher.DefaultBranch(ctx, pullURL)
}

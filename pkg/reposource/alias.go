// Package reposource implements the repo alias resolver and repo cache
// treated as an external collaborator of the rest of morph, plus an
// optional forge default-branch enricher. It is a real but deliberately
// thin implementation: a local mirror cache and three forge API clients.
package reposource

import (
	"fmt"
	"strings"
)

// AliasResolver expands a logical repo name against an ordered list of
// `prefix=template` patterns (the `repo-alias` configuration setting),
// where template contains exactly one "%s" substituted with the
// alias-local repo name.
type AliasResolver struct {
	patterns []aliasPattern
}

type aliasPattern struct {
	prefix   string
	template string
}

// NewAliasResolver parses the `prefix=template` pattern strings from
// configuration, in the order they should be tried.
func NewAliasResolver(patterns []string) (*AliasResolver, error) {
	r := &AliasResolver{}
	for _, p := range patterns {
		idx := strings.Index(p, "=")
		if idx < 0 {
			return nil, fmt.Errorf("reposource: invalid repo-alias pattern %q (want prefix=template)", p)
		}
		prefix, template := p[:idx], p[idx+1:]
		if !strings.Contains(template, "%s") {
			return nil, fmt.Errorf("reposource: repo-alias template %q has no %%s placeholder", template)
		}
		r.patterns = append(r.patterns, aliasPattern{prefix: prefix, template: template})
	}
	return r, nil
}

// Resolve expands name into a pull URL. A name containing "://", or
// starting with "/" or ".", is assumed to already be a URL or local path
// and passes through unchanged for both pull and push. Otherwise the first
// matching alias prefix expands name into a URL; no match is an error.
func (r *AliasResolver) Resolve(name string) (pullURL, pushURL string, err error) {
	if isLiteralURI(name) {
		return name, name, nil
	}

	for _, p := range r.patterns {
		if strings.HasPrefix(name, p.prefix) {
			local := strings.TrimPrefix(name, p.prefix)
			expanded := strings.Replace(p.template, "%s", local, 1)
			return expanded, expanded, nil
		}
	}

	return "", "", fmt.Errorf("reposource: no repo-alias pattern matches %q", name)
}

func isLiteralURI(name string) bool {
	return strings.Contains(name, "://") || strings.HasPrefix(name, "/") || strings.HasPrefix(name, ".")
}

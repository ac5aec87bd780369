package reposource

import "testing"

func TestAliasResolverExpands(t *testing.T) {
	r, err := NewAliasResolver([]string{
		"baserock:=git://git.baserock.org/baserock/%s",
		"upstream:=git://git.baserock.org/delta/%s",
	})
	if err != nil {
		t.Fatalf("NewAliasResolver: %v", err)
	}

	pull, push, err := r.Resolve("baserock:baserock/morphs")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := "git://git.baserock.org/baserock/baserock/morphs"
	if pull != want || push != want {
		t.Errorf("Resolve() = (%q, %q), want %q", pull, push, want)
	}
}

func TestAliasResolverPassesThroughLiteralURIs(t *testing.T) {
	r, err := NewAliasResolver(nil)
	if err != nil {
		t.Fatalf("NewAliasResolver: %v", err)
	}

	for _, uri := range []string{
		"https://github.com/baserock/morphs.git",
		"/local/path",
		"./relative/path",
	} {
		pull, push, err := r.Resolve(uri)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", uri, err)
		}
		if pull != uri || push != uri {
			t.Errorf("Resolve(%q) = (%q, %q), want unchanged", uri, pull, push)
		}
	}
}

func TestAliasResolverNoMatch(t *testing.T) {
	r, err := NewAliasResolver([]string{"baserock:=git://example.com/%s"})
	if err != nil {
		t.Fatalf("NewAliasResolver: %v", err)
	}

	if _, _, err := r.Resolve("unknown:foo"); err == nil {
		t.Fatal("expected an error for an unmatched alias prefix")
	}
}

func TestNewAliasResolverRejectsMissingPlaceholder(t *testing.T) {
	if _, err := NewAliasResolver([]string{"baserock:=git://example.com/no-placeholder"}); err == nil {
		t.Fatal("expected an error for a template with no %s placeholder")
	}
}

func TestNewAliasResolverRejectsMalformedPattern(t *testing.T) {
	if _, err := NewAliasResolver([]string{"no-equals-sign"}); err == nil {
		t.Fatal("expected an error for a pattern missing '='")
	}
}

// Package morphology implements the document model for chunk, stratum and
// system morphologies: parsing that preserves key and list order, name
// lookup within the strata/chunks collections, in-place ref rewriting, and
// a stably-sorted, atomic save.
package morphology

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/baserock/morph/internal/morpherr"
)

// Document wraps a parsed morphology, keeping the original yaml.Node tree
// so insertion order and list entries survive round-tripping untouched
// except where a caller explicitly mutates a field.
type Document struct {
	root *yaml.Node // yaml.DocumentNode with exactly one mapping child
}

// Parse reads data into a Document. The top-level document must decode to
// a YAML mapping.
func Parse(data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("morphology: parse: %w", err)
	}
	if len(root.Content) != 1 || root.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("morphology: parse: expected a single top-level mapping")
	}
	return &Document{root: &root}, nil
}

func (d *Document) mapping() *yaml.Node {
	return d.root.Content[0]
}

// Kind returns the document's "kind" field, or "" if absent.
func (d *Document) Kind() Kind {
	v, _ := fieldValue(d.mapping(), "kind")
	if v == nil {
		return ""
	}
	return Kind(v.Value)
}

// Field returns the raw value node for a top-level key, or nil if absent.
func (d *Document) Field(key string) *yaml.Node {
	v, _ := fieldValue(d.mapping(), key)
	return v
}

// SetField sets (or inserts) a scalar string top-level field.
func (d *Document) SetField(key, value string) {
	setScalarField(d.mapping(), key, value)
}

// Collection returns the sequence node for "strata" or "chunks", or nil if
// the document has no such top-level key.
func (d *Document) Collection(name string) *yaml.Node {
	v, _ := fieldValue(d.mapping(), name)
	if v == nil || v.Kind != yaml.SequenceNode {
		return nil
	}
	return v
}

// LookupChildByName finds a stratum (collection=CollectionStrata) or chunk
// (collection=CollectionChunks) entry by its "name" key, falling back to
// the basename of its "morph" field (without extension) for morphologies
// that omit an explicit name — the common case for hand-written strata.
// Returns morpherr.ErrComponentNotFound if no entry matches.
func (d *Document) LookupChildByName(collection, name string) (*yaml.Node, error) {
	if collection != CollectionStrata && collection != CollectionChunks {
		return nil, fmt.Errorf("morphology: unknown collection %q", collection)
	}

	seq := d.Collection(collection)
	if seq == nil {
		return nil, morpherr.Wrap(fmt.Errorf("no %s collection in morphology", collection), morpherr.ErrComponentNotFound)
	}

	for _, item := range seq.Content {
		if item.Kind != yaml.MappingNode {
			continue
		}
		if entryName(item) == name {
			return item, nil
		}
	}

	singular := strings.TrimSuffix(collection, "s")
	return nil, morpherr.Wrap(fmt.Errorf("%s %q not found", singular, name), morpherr.ErrComponentNotFound)
}

// Entries returns a typed projection of every item in collection, in
// document order.
func (d *Document) Entries(collection string) []Entry {
	seq := d.Collection(collection)
	if seq == nil {
		return nil
	}
	entries := make([]Entry, 0, len(seq.Content))
	for _, item := range seq.Content {
		if item.Kind != yaml.MappingNode {
			continue
		}
		repo, _ := fieldValue(item, "repo")
		ref, _ := fieldValue(item, "ref")
		morph, _ := fieldValue(item, "morph")
		e := Entry{Node: item, Name: entryName(item)}
		if repo != nil {
			e.Repo = repo.Value
		}
		if ref != nil {
			e.Ref = ref.Value
		}
		if morph != nil {
			e.Morph = morph.Value
		}
		entries = append(entries, e)
	}
	return entries
}

// SetRef rewrites the "ref" field of an entry node in place.
func SetRef(entry *yaml.Node, ref string) {
	setScalarField(entry, "ref", ref)
}

// entryName returns an entry's logical name: its explicit "name" field if
// present, else the basename of "morph" with the ".morph" suffix stripped.
func entryName(item *yaml.Node) string {
	if v, _ := fieldValue(item, "name"); v != nil {
		return v.Value
	}
	if v, _ := fieldValue(item, "morph"); v != nil {
		base := filepath.Base(v.Value)
		return strings.TrimSuffix(base, ".morph")
	}
	return ""
}

func fieldValue(mapping *yaml.Node, key string) (*yaml.Node, int) {
	if mapping == nil || mapping.Kind != yaml.MappingNode {
		return nil, -1
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1], i + 1
		}
	}
	return nil, -1
}

func setScalarField(mapping *yaml.Node, key, value string) {
	if v, idx := fieldValue(mapping, key); v != nil {
		mapping.Content[idx].Value = value
		mapping.Content[idx].Tag = "!!str"
		mapping.Content[idx].Kind = yaml.ScalarNode
		return
	}
	mapping.Content = append(mapping.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Value: value, Tag: "!!str"},
	)
}

// Save serializes the document to path: top-level keys sorted
// alphabetically, empty/false top-level keys dropped, a trailing newline
// guaranteed, written atomically (temp file + rename) so a crash never
// leaves a half-written morphology behind.
func (d *Document) Save(path string) error {
	data, err := d.Marshal()
	if err != nil {
		return err
	}
	return atomicWrite(path, data)
}

// Marshal renders the document the same way Save does, without writing to
// disk. Used by component G to hash-object a rewritten morphology before
// it exists as a file in the isolated index.
func (d *Document) Marshal() ([]byte, error) {
	source := d.mapping()

	type pair struct {
		key, val *yaml.Node
	}
	pairs := make([]pair, 0, len(source.Content)/2)
	for i := 0; i+1 < len(source.Content); i += 2 {
		k, v := source.Content[i], source.Content[i+1]
		if isEmptyValue(v) {
			continue
		}
		pairs = append(pairs, pair{k, v})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].key.Value < pairs[j].key.Value })

	sorted := &yaml.Node{Kind: yaml.MappingNode, Tag: source.Tag}
	for _, p := range pairs {
		sorted.Content = append(sorted.Content, p.key, p.val)
	}

	doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{sorted}}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("morphology: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("morphology: encode: %w", err)
	}

	out := buf.Bytes()
	if len(out) == 0 || out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}
	return out, nil
}

// isEmptyValue reports whether a top-level value counts as "empty" for the
// purposes of Save dropping the key: null, false, an empty string, or an
// empty sequence/mapping.
func isEmptyValue(v *yaml.Node) bool {
	switch v.Kind {
	case yaml.ScalarNode:
		if v.Tag == "!!null" {
			return true
		}
		if v.Tag == "!!bool" && v.Value == "false" {
			return true
		}
		if v.Tag == "!!str" && v.Value == "" {
			return true
		}
		return false
	case yaml.SequenceNode, yaml.MappingNode:
		return len(v.Content) == 0
	default:
		return false
	}
}

func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".morph-*.tmp")
	if err != nil {
		return fmt.Errorf("morphology: create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("morphology: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("morphology: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("morphology: rename temp file: %w", err)
	}
	return nil
}

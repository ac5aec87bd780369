package morphology

import "gopkg.in/yaml.v3"

// Kind discriminates the three morphology document shapes. Baserock's
// original plugin encodes this as a class hierarchy (Blob/Chunk/Stratum/
// System); morph keeps one record type and branches on Kind instead.
type Kind string

const (
	KindChunk   Kind = "chunk"
	KindStratum Kind = "stratum"
	KindSystem  Kind = "system"
)

// collection names used by LookupChildByName, matching the two ordered
// lists a morphology can hold.
const (
	CollectionStrata = "strata"
	CollectionChunks = "chunks"
)

// Entry is a read-only projection of one item in a strata or chunks list,
// for callers that want typed field access without walking yaml.Node
// themselves. The underlying Node remains the source of truth and is what
// edit/merge/build mutate in place.
type Entry struct {
	Node  *yaml.Node
	Name  string
	Repo  string
	Ref   string
	Morph string
}

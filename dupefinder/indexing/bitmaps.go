package indexing

import (
	"sort"

	roaring "github.com/RoaringBitmap/roaring"
)

// ComponentBitmaps collects the members of each disjoint-set component,
// keyed by the component's root.
type ComponentBitmaps struct {
	byRoot map[uint32]*roaring.Bitmap
}

// NewComponentBitmaps creates an empty component index
func NewComponentBitmaps() *ComponentBitmaps {
	return &ComponentBitmaps{byRoot: make(map[uint32]*roaring.Bitmap)}
}

func (cb *ComponentBitmaps) Add(root uint32, id RecordID) {
	bm, ok := cb.byRoot[root]
	if !ok {
		bm = roaring.New()
		cb.byRoot[root] = bm
	}
	bm.Add(id)
}

// Len is the number of distinct components, singletons included.
func (cb *ComponentBitmaps) Len() int {
	return len(cb.byRoot)
}

// Components returns every component with at least minSize members, ordered
// by its lowest member id.
func (cb *ComponentBitmaps) Components(minSize uint64) []*roaring.Bitmap {
	out := make([]*roaring.Bitmap, 0, len(cb.byRoot))
	for _, bm := range cb.byRoot {
		if bm.GetCardinality() >= minSize {
			out = append(out, bm)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Minimum() < out[j].Minimum() })
	return out
}

// AttributeBitmaps holds roaring bitmaps of record ids keyed by attribute.
// Example: "image" -> bitmap of RecordIDs classified as images.
type AttributeBitmaps struct {
	Kind          map[string]*roaring.Bitmap
	Fingerprinted *roaring.Bitmap
}

// NewAttributeBitmaps creates empty kind and fingerprint bitmaps
func NewAttributeBitmaps() *AttributeBitmaps {
	return &AttributeBitmaps{
		Kind:          make(map[string]*roaring.Bitmap),
		Fingerprinted: roaring.New(),
	}
}

func (ab *AttributeBitmaps) AddKind(kind string, id RecordID) {
	bm, ok := ab.Kind[kind]
	if !ok {
		bm = roaring.New()
		ab.Kind[kind] = bm
	}
	bm.Add(id)
}

// CountKind returns how many records carry kind.
func (ab *AttributeBitmaps) CountKind(kind string) int {
	if bm, ok := ab.Kind[kind]; ok {
		return int(bm.GetCardinality())
	}
	return 0
}

// FingerprintedOf returns the records of kind that also have a fingerprint.
func (ab *AttributeBitmaps) FingerprintedOf(kind string) *roaring.Bitmap {
	res := ab.clone(ab.Kind[kind])
	res.And(ab.Fingerprinted)
	return res
}

func (ab *AttributeBitmaps) clone(b *roaring.Bitmap) *roaring.Bitmap {
	if b == nil {
		return roaring.New()
	}
	c := roaring.New()
	c.Or(b) // copy
	return c
}

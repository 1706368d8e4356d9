package grouping

import (
	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/types"
	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/indexing"
)

// Summarize computes the aggregate counts of a scan.
func Summarize(records []*types.FileRecord, groups []types.DuplicateGroup, clusters []types.NearDuplicateCluster) types.Summary {
	attrs := indexing.NewAttributeBitmaps()
	sizes := make(map[string]uint64, len(records))
	digests := make(map[types.Digest]struct{}, len(records))

	for i, rec := range records {
		id := indexing.RecordID(i)
		attrs.AddKind(string(rec.Kind), id)
		if rec.HasFingerprint {
			attrs.Fingerprinted.Add(id)
		}
		sizes[rec.Path] = rec.SizeBytes
		digests[rec.ContentDigest] = struct{}{}
	}

	s := types.Summary{
		TotalFiles:            len(records),
		Images:                attrs.CountKind(string(types.KindImage)),
		Videos:                attrs.CountKind(string(types.KindVideo)),
		Fingerprinted:         int(attrs.FingerprintedOf(string(types.KindImage)).GetCardinality()),
		DuplicateGroups:       len(groups),
		RedundantFiles:        len(records) - len(digests),
		NearDuplicateClusters: len(clusters),
	}

	for _, g := range groups {
		s.FilesInDuplicateGroups += g.Count()
		for _, p := range g.Duplicates() {
			s.ReclaimableBytes += sizes[p]
		}
	}
	for _, cl := range clusters {
		s.FilesInClusters += cl.Count()
	}

	return s
}

package grouping

import (
	"sort"

	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/types"
)

// GroupByDigest partitions records by content digest and returns every
// partition with two or more members. Paths inside a group are sorted, so the
// first path is the kept original; groups are ordered by that original.
func GroupByDigest(records []*types.FileRecord) []types.DuplicateGroup {
	byDigest := make(map[types.Digest][]string, len(records))
	for _, rec := range records {
		byDigest[rec.ContentDigest] = append(byDigest[rec.ContentDigest], rec.Path)
	}

	groups := make([]types.DuplicateGroup, 0)
	for digest, paths := range byDigest {
		if len(paths) < 2 {
			continue
		}
		sorted := append([]string(nil), paths...)
		sort.Strings(sorted)
		groups = append(groups, types.DuplicateGroup{Digest: digest, Paths: sorted})
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Original() < groups[j].Original()
	})
	return groups
}

// AssignDuplicateGroupIDs sets each record's DuplicateGroupID to the size of
// its digest partition.
func AssignDuplicateGroupIDs(records []*types.FileRecord) {
	counts := make(map[types.Digest]int, len(records))
	for _, rec := range records {
		counts[rec.ContentDigest]++
	}
	for _, rec := range records {
		rec.DuplicateGroupID = counts[rec.ContentDigest]
	}
}

package grouping

import (
	"context"
	"crypto/sha256"
	"fmt"
	"math/rand"
	"testing"

	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/options"
	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/types"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func digestOf(s string) types.Digest {
	return types.Digest(sha256.Sum256([]byte(s)))
}

func image(path, content string, fp uint64) *types.FileRecord {
	return &types.FileRecord{
		Path:           path,
		Kind:           types.KindImage,
		ContentDigest:  digestOf(content),
		SizeBytes:      uint64(len(content)),
		Fingerprint:    fp,
		HasFingerprint: true,
	}
}

func video(path, content string) *types.FileRecord {
	return &types.FileRecord{
		Path:          path,
		Kind:          types.KindVideo,
		ContentDigest: digestOf(content),
		SizeBytes:     uint64(len(content)),
	}
}

func TestGroupByDigest(t *testing.T) {
	records := []*types.FileRecord{
		image("/r/a.jpg", "X", 0),
		image("/r/b.jpg", "X", 0),
		image("/r/c.png", "Y", 0),
		video("/r/clip.mp4", "Z"),
		video("/r/sub/clip.mp4", "Z"),
		video("/r/a-copy.mp4", "Z"),
	}

	groups := GroupByDigest(records)
	require.Len(t, groups, 2)

	assert.Equal(t, []string{"/r/a-copy.mp4", "/r/clip.mp4", "/r/sub/clip.mp4"}, groups[0].Paths)
	assert.Equal(t, digestOf("Z"), groups[0].Digest)
	assert.Equal(t, "/r/a-copy.mp4", groups[0].Original())

	assert.Equal(t, []string{"/r/a.jpg", "/r/b.jpg"}, groups[1].Paths)
	assert.Equal(t, []string{"/r/b.jpg"}, groups[1].Duplicates())

	AssignDuplicateGroupIDs(records)
	assert.Equal(t, []int{2, 2, 1, 3, 3, 3}, []int{
		records[0].DuplicateGroupID, records[1].DuplicateGroupID, records[2].DuplicateGroupID,
		records[3].DuplicateGroupID, records[4].DuplicateGroupID, records[5].DuplicateGroupID,
	})
}

func TestGroupByDigestNoDuplicates(t *testing.T) {
	groups := GroupByDigest([]*types.FileRecord{image("/r/a.jpg", "A", 0), image("/r/b.jpg", "B", 0)})
	assert.NotNil(t, groups)
	assert.Empty(t, groups)
	assert.Empty(t, GroupByDigest(nil))
}

func TestDisjointSet(t *testing.T) {
	ds := NewDisjointSet(6)
	assert.True(t, ds.Union(0, 1))
	assert.True(t, ds.Union(1, 2))
	assert.False(t, ds.Union(0, 2))
	assert.True(t, ds.Union(4, 5))

	assert.Equal(t, ds.Find(0), ds.Find(2))
	assert.NotEqual(t, ds.Find(0), ds.Find(3))
	assert.Equal(t, 3, ds.Size(1))
	assert.Equal(t, 1, ds.Size(3))
	assert.Equal(t, 2, ds.Size(5))
	assert.Equal(t, 6, ds.Len())
}

func newClusterer(threshold, workers int) *Clusterer {
	return NewClusterer(options.ClusterOptions{Threshold: threshold, Workers: workers}, zerolog.Nop())
}

func TestClusterTransitiveClosure(t *testing.T) {
	// a-b are 12 bits apart, b-c 12 bits, a-c 24 bits: all three join at 20.
	a := uint64(0)
	b := uint64(0xFFF)
	c := uint64(0xFFFFFF)
	far := ^uint64(0)

	records := []*types.FileRecord{
		image("/r/a.png", "a", a),
		image("/r/b.png", "b", b),
		image("/r/c.png", "c", c),
		image("/r/d.png", "d", far),
		video("/r/e.mp4", "e"),
	}

	clusters, err := newClusterer(20, 4).Cluster(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.Equal(t, "nd_group_1", clusters[0].ID)
	assert.Equal(t, []string{"/r/a.png", "/r/b.png", "/r/c.png"}, clusters[0].Paths)

	AssignClusterIDs(records, clusters)
	assert.Equal(t, "nd_group_1", records[0].NearDuplicateClusterID)
	assert.Equal(t, "nd_group_1", records[2].NearDuplicateClusterID)
	assert.Equal(t, types.UniqueCluster, records[3].NearDuplicateClusterID)
	assert.Equal(t, "", records[4].NearDuplicateClusterID)
}

func TestClusterThresholdBoundary(t *testing.T) {
	records := []*types.FileRecord{
		image("/r/a.png", "a", 0),
		image("/r/b.png", "b", 0xFFFFF), // 20 bits
	}

	clusters, err := newClusterer(20, 1).Cluster(context.Background(), records)
	require.NoError(t, err)
	assert.Len(t, clusters, 1)

	clusters, err = newClusterer(19, 1).Cluster(context.Background(), records)
	require.NoError(t, err)
	assert.Empty(t, clusters)
}

func TestClusterIgnoresImagesWithoutFingerprint(t *testing.T) {
	broken := image("/r/broken.jpg", "broken", 0)
	broken.HasFingerprint = false

	records := []*types.FileRecord{image("/r/a.png", "a", 0), broken}
	clusters, err := newClusterer(20, 2).Cluster(context.Background(), records)
	require.NoError(t, err)
	assert.Empty(t, clusters)

	AssignClusterIDs(records, clusters)
	assert.Equal(t, types.UniqueCluster, records[0].NearDuplicateClusterID)
	assert.Equal(t, "", records[1].NearDuplicateClusterID)
}

func TestClusterRejectsBadThreshold(t *testing.T) {
	_, err := newClusterer(65, 1).Cluster(context.Background(), nil)
	assert.Error(t, err)
}

func TestClusterDeterministicAcrossWorkerCounts(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	records := make([]*types.FileRecord, 0, 200)
	for i := 0; i < 200; i++ {
		// a handful of base patterns with small perturbations
		base := uint64(rng.Intn(6)) * 0x0F0F0F0F0F0F0F0F
		fp := base ^ (uint64(1) << uint(rng.Intn(64)))
		records = append(records, image(fmt.Sprintf("/r/%03d.png", i), fmt.Sprint(i), fp))
	}

	want, err := newClusterer(10, 1).Cluster(context.Background(), records)
	require.NoError(t, err)
	require.NotEmpty(t, want)

	for _, workers := range []int{2, 3, 8, 32} {
		got, err := newClusterer(10, workers).Cluster(context.Background(), records)
		require.NoError(t, err)
		assert.Equal(t, want, got, "workers=%d", workers)
	}

	for i, cl := range want {
		assert.Equal(t, fmt.Sprintf("nd_group_%d", i+1), cl.ID)
		assert.IsIncreasing(t, cl.Paths)
		if i > 0 {
			assert.Less(t, want[i-1].Paths[0], cl.Paths[0])
		}
	}
}

func TestSummarize(t *testing.T) {
	records := []*types.FileRecord{
		image("/r/a.jpg", "XXXX", 0),
		image("/r/b.jpg", "XXXX", 0),
		image("/r/c.png", "Y", 0xFFFFFFFF),
		video("/r/d.mp4", "ZZ"),
		video("/r/e.mp4", "ZZ"),
		video("/r/f.mp4", "ZZ"),
	}
	groups := GroupByDigest(records)
	clusters, err := newClusterer(20, 1).Cluster(context.Background(), records)
	require.NoError(t, err)

	s := Summarize(records, groups, clusters)
	assert.Equal(t, 6, s.TotalFiles)
	assert.Equal(t, 3, s.Images)
	assert.Equal(t, 3, s.Videos)
	assert.Equal(t, 3, s.Fingerprinted)
	assert.Equal(t, 2, s.DuplicateGroups)
	assert.Equal(t, 5, s.FilesInDuplicateGroups)
	assert.Equal(t, 3, s.RedundantFiles)
	assert.Equal(t, uint64(4+2+2), s.ReclaimableBytes)
	assert.Equal(t, 1, s.NearDuplicateClusters)
	assert.Equal(t, 2, s.FilesInClusters)
}

package grouping

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/hashing"
	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/options"
	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/types"
	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/indexing"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
)

// ClusterPrefix prefixes generated near-duplicate cluster ids.
const ClusterPrefix = "nd_group_"

// Clusterer links images whose fingerprints are within a Hamming threshold
// and reports the transitive closure of those links.
//
// Every pair is compared, so the cost is quadratic in the number of images.
type Clusterer struct {
	opts   options.ClusterOptions
	logger zerolog.Logger
}

// NewClusterer creates a clusterer. A zero worker count compares on one goroutine.
func NewClusterer(opts options.ClusterOptions, logger zerolog.Logger) *Clusterer {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Clusterer{
		opts:   opts,
		logger: logger.With().Str("component", "clusterer").Logger(),
	}
}

type link struct{ a, b int }

// Cluster returns the near-duplicate clusters among records, which must be
// sorted by path. Cluster ids are numbered by each cluster's first member in
// record order; members keep record order.
func (c *Clusterer) Cluster(ctx context.Context, records []*types.FileRecord) ([]types.NearDuplicateCluster, error) {
	if c.opts.Threshold < 0 || c.opts.Threshold > 64 {
		return nil, fmt.Errorf("threshold must be within 0..64, got %d", c.opts.Threshold)
	}

	start := time.Now()
	eligible := Fingerprinted(records)
	n := len(eligible)
	if n < 2 {
		return []types.NearDuplicateCluster{}, nil
	}

	fingerprints := make([]uint64, n)
	for i, rec := range eligible {
		fingerprints[i] = rec.Fingerprint
	}

	ds := NewDisjointSet(n)
	var unionMu sync.Mutex

	shards := min(c.opts.Workers, n)
	comparePool := pool.New().WithMaxGoroutines(shards).WithContext(ctx)
	for shard := 0; shard < shards; shard++ {
		comparePool.Go(func(ctx context.Context) error {
			var links []link
			for i := shard; i < n; i += shards {
				if i%64 == 0 && ctx.Err() != nil {
					return ctx.Err()
				}
				for j := i + 1; j < n; j++ {
					if hashing.Distance(fingerprints[i], fingerprints[j]) <= c.opts.Threshold {
						links = append(links, link{i, j})
					}
				}
			}

			unionMu.Lock()
			for _, l := range links {
				ds.Union(l.a, l.b)
			}
			unionMu.Unlock()
			return nil
		})
	}
	if err := comparePool.Wait(); err != nil {
		return nil, err
	}

	members := indexing.NewComponentBitmaps()
	for i := 0; i < n; i++ {
		members.Add(uint32(ds.Find(i)), indexing.RecordID(i))
	}

	components := members.Components(2)
	clusters := make([]types.NearDuplicateCluster, 0, len(components))
	for k, bm := range components {
		paths := make([]string, 0, bm.GetCardinality())
		it := bm.Iterator()
		for it.HasNext() {
			paths = append(paths, eligible[it.Next()].Path)
		}
		clusters = append(clusters, types.NearDuplicateCluster{
			ID:    fmt.Sprintf("%s%d", ClusterPrefix, k+1),
			Paths: paths,
		})
	}

	c.logger.Debug().
		Int("images", n).
		Int("clusters", len(clusters)).
		Int("threshold", c.opts.Threshold).
		Dur("duration", time.Since(start)).
		Msg("Near-duplicate clustering completed")

	return clusters, nil
}

// Fingerprinted returns the image records that carry a fingerprint, in order.
func Fingerprinted(records []*types.FileRecord) []*types.FileRecord {
	out := make([]*types.FileRecord, 0, len(records))
	for _, rec := range records {
		if rec.Kind == types.KindImage && rec.HasFingerprint {
			out = append(out, rec)
		}
	}
	return out
}

// AssignClusterIDs labels fingerprinted images with their cluster id, or
// types.UniqueCluster when they belong to none. Other records get "".
func AssignClusterIDs(records []*types.FileRecord, clusters []types.NearDuplicateCluster) {
	byPath := make(map[string]string)
	for _, cl := range clusters {
		for _, p := range cl.Paths {
			byPath[p] = cl.ID
		}
	}

	for _, rec := range records {
		if rec.Kind != types.KindImage || !rec.HasFingerprint {
			rec.NearDuplicateClusterID = ""
			continue
		}
		if id, ok := byPath[rec.Path]; ok {
			rec.NearDuplicateClusterID = id
		} else {
			rec.NearDuplicateClusterID = types.UniqueCluster
		}
	}
}

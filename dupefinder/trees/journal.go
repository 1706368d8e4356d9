package trees

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/interfaces"
	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/types"

	"github.com/armon/go-radix"
)

// JournalStats tracks how the journal is used
type JournalStats struct {
	Records       int64 `json:"records"`
	Lookups       int64 `json:"lookups"`
	PrefixLookups int64 `json:"prefix_lookups"`
	Removals      int64 `json:"removals"`
}

// MoveJournal indexes completed moves by destination path in a patricia tree,
// so every move under a review area can be found with one prefix walk.
type MoveJournal struct {
	tree  *radix.Tree
	mu    sync.RWMutex
	stats JournalStats
}

var _ interfaces.MoveJournal = (*MoveJournal)(nil)

// NewMoveJournal creates an empty journal
func NewMoveJournal() *MoveJournal {
	return &MoveJournal{tree: radix.New()}
}

// Record stores rec, replacing any entry for the same destination.
func (j *MoveJournal) Record(rec types.MoveRecord) {
	key := j.normalizePath(rec.DestinationPath)

	j.mu.Lock()
	defer j.mu.Unlock()

	j.tree.Insert(key, rec)
	j.stats.Records++
}

// Lookup finds the move that produced destinationPath.
func (j *MoveJournal) Lookup(destinationPath string) (types.MoveRecord, bool) {
	key := j.normalizePath(destinationPath)

	j.mu.Lock()
	defer j.mu.Unlock()

	j.stats.Lookups++
	v, ok := j.tree.Get(key)
	if !ok {
		return types.MoveRecord{}, false
	}
	return v.(types.MoveRecord), true
}

// Remove drops the entry for destinationPath and reports whether one existed.
func (j *MoveJournal) Remove(destinationPath string) bool {
	key := j.normalizePath(destinationPath)

	j.mu.Lock()
	defer j.mu.Unlock()

	_, ok := j.tree.Delete(key)
	if ok {
		j.stats.Removals++
	}
	return ok
}

// UnderPrefix returns the moves whose destination is prefix or lies inside
// the directory prefix, ordered by destination path.
func (j *MoveJournal) UnderPrefix(prefix string) []types.MoveRecord {
	key := j.normalizePath(prefix)
	dirPrefix := key
	if !strings.HasSuffix(dirPrefix, string(filepath.Separator)) {
		dirPrefix += string(filepath.Separator)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	j.stats.PrefixLookups++
	var out []types.MoveRecord
	j.tree.WalkPrefix(key, func(path string, v interface{}) bool {
		if path == key || strings.HasPrefix(path, dirPrefix) {
			out = append(out, v.(types.MoveRecord))
		}
		return false
	})
	return out
}

// All returns every journaled move ordered by destination path.
func (j *MoveJournal) All() []types.MoveRecord {
	j.mu.RLock()
	defer j.mu.RUnlock()

	out := make([]types.MoveRecord, 0, j.tree.Len())
	j.tree.Walk(func(_ string, v interface{}) bool {
		out = append(out, v.(types.MoveRecord))
		return false
	})
	return out
}

func (j *MoveJournal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.tree.Len()
}

func (j *MoveJournal) Stats() JournalStats {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.stats
}

func (j *MoveJournal) normalizePath(path string) string {
	if path == "" {
		return path
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return filepath.Clean(path)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/common"
	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/interfaces"
	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/options"
)

// maxCollisionSuffix bounds the _N search for a free name.
const maxCollisionSuffix = 9999

// ConflictResolverService claims destination names without ever reusing an
// existing one. Claims are placeholder files created with O_EXCL, so two
// concurrent moves can never pick the same name.
type ConflictResolverService struct {
	pathUtils *common.PathUtils

	mu      sync.Mutex
	planned map[string]bool // names handed out by GenerateUniqueFilename
}

// NewConflictResolverService creates a new conflict resolver service
func NewConflictResolverService() *ConflictResolverService {
	return &ConflictResolverService{
		pathUtils: common.NewPathUtils(),
		planned:   make(map[string]bool),
	}
}

var _ interfaces.ConflictResolver = (*ConflictResolverService)(nil)

// Reserve claims path, or with ConflictRename the first free stem_N.ext
// beside it. ConflictSkip fails with ErrDestinationExists instead.
func (cr *ConflictResolverService) Reserve(ctx context.Context, path string, strategy options.ConflictStrategy) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	err := cr.claim(path)
	if err == nil {
		return path, nil
	}
	if !errors.Is(err, os.ErrExist) {
		return "", err
	}

	switch strategy {
	case options.ConflictSkip:
		return "", fmt.Errorf("%w: %s", common.ErrDestinationExists, path)
	case options.ConflictRename, "":
		return cr.reserveSuffixed(path)
	default:
		return "", fmt.Errorf("unknown conflict strategy: %s", strategy)
	}
}

func (cr *ConflictResolverService) reserveSuffixed(path string) (string, error) {
	for counter := 1; counter <= maxCollisionSuffix; counter++ {
		candidate := cr.suffixed(path, counter)
		err := cr.claim(candidate)
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", err
		}
	}
	return "", fmt.Errorf("%w: %s", common.ErrTooManyCollisions, path)
}

// claim creates an empty placeholder at path, failing if anything is there.
func (cr *ConflictResolverService) claim(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	return f.Close()
}

// Release removes a placeholder left by a failed move.
func (cr *ConflictResolverService) Release(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.Size() != 0 || !info.Mode().IsRegular() {
		return fmt.Errorf("refusing to release %s: not a placeholder", path)
	}
	return os.Remove(path)
}

// GenerateUniqueFilename predicts the name Reserve would pick without
// touching the filesystem. Names returned earlier by this resolver are treated
// as taken so a dry-run plan never repeats a destination.
func (cr *ConflictResolverService) GenerateUniqueFilename(path string) string {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if !cr.pathUtils.Exists(path) && !cr.planned[path] {
		cr.planned[path] = true
		return path
	}

	for counter := 1; counter <= maxCollisionSuffix; counter++ {
		candidate := cr.suffixed(path, counter)
		if !cr.pathUtils.Exists(candidate) && !cr.planned[candidate] {
			cr.planned[candidate] = true
			return candidate
		}
	}
	return cr.suffixed(path, maxCollisionSuffix+1)
}

func (cr *ConflictResolverService) suffixed(path string, counter int) string {
	dir, stem, ext := cr.pathUtils.SplitPath(path)
	return filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, counter, ext))
}

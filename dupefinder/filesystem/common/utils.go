package common

import (
	"os"
	"path/filepath"
	"strings"
)

// PathUtils provides path manipulation utilities used across filesystem packages
type PathUtils struct{}

// NewPathUtils creates a new PathUtils instance
func NewPathUtils() *PathUtils {
	return &PathUtils{}
}

// NormalizePath returns the cleaned absolute form of path.
func (pu *PathUtils) NormalizePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return filepath.Clean(abs)
}

// CanonicalPath normalizes path and resolves symlinks when the target exists.
func (pu *PathUtils) CanonicalPath(path string) string {
	norm := pu.NormalizePath(path)
	if resolved, err := filepath.EvalSymlinks(norm); err == nil {
		return resolved
	}
	return norm
}

// CanonicalPathNearest is CanonicalPath for paths that may not exist yet:
// the nearest existing ancestor is resolved and the missing tail is kept.
func (pu *PathUtils) CanonicalPathNearest(path string) string {
	norm := pu.NormalizePath(path)
	var tail []string
	for dir := norm; ; dir = filepath.Dir(dir) {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			for i := len(tail) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, tail[i])
			}
			return resolved
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return norm
		}
		tail = append(tail, filepath.Base(dir))
	}
}

// IsSubpath checks if child is a strict subpath of parent
func (pu *PathUtils) IsSubpath(parent, child string) bool {
	parent = pu.NormalizePath(parent)
	child = pu.NormalizePath(child)

	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}

	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// GetRelativePath returns the relative path from base to target
func (pu *PathUtils) GetRelativePath(base, target string) (string, error) {
	base = pu.NormalizePath(base)
	target = pu.NormalizePath(target)

	return filepath.Rel(base, target)
}

// SplitPath splits a path into directory, stem and extension. Dotfiles keep
// their leading dot in the stem.
func (pu *PathUtils) SplitPath(path string) (dir, name, ext string) {
	dir = filepath.Dir(path)
	name = filepath.Base(path)
	ext = filepath.Ext(name)

	if ext == name {
		ext = ""
	}
	if ext != "" {
		name = strings.TrimSuffix(name, ext)
	}

	return dir, name, ext
}

// DefaultReviewRoot is the review area used when none is given: a sibling of
// root named dirName.
func (pu *PathUtils) DefaultReviewRoot(root, dirName string) string {
	return filepath.Join(filepath.Dir(pu.NormalizePath(root)), dirName)
}

// Exists reports whether anything, including a dangling symlink, is at path.
func (pu *PathUtils) Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

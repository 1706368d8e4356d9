package utils

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/types"
)

var mediaExtensions = map[string]types.MediaKind{
	".jpg":  types.KindImage,
	".jpeg": types.KindImage,
	".png":  types.KindImage,
	".gif":  types.KindImage,
	".webp": types.KindImage,
	".mp4":  types.KindVideo,
	".mov":  types.KindVideo,
	".mkv":  types.KindVideo,
	".avi":  types.KindVideo,
}

// Classify returns the media kind for path by its extension, ignoring case.
// Files that are not media return the zero MediaKind.
func Classify(path string) types.MediaKind {
	return mediaExtensions[strings.ToLower(filepath.Ext(path))]
}

func IsMedia(path string) bool {
	return Classify(path) != ""
}

// SupportedExtensions lists the recognized extensions in sorted order.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(mediaExtensions))
	for ext := range mediaExtensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

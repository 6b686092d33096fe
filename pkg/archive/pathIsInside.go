package archive

import (
	"path/filepath"
	"runtime"
	"strings"
)

// pathIsInside reports whether thePath is potentialParent itself or lies
// below it. Both paths are cleaned first, so ".." segments count.
func pathIsInside(thePath, potentialParent string) bool {
	thePath = filepath.Clean(thePath)
	potentialParent = filepath.Clean(potentialParent)

	if runtime.GOOS == "windows" {
		thePath = strings.ToLower(thePath)
		potentialParent = strings.ToLower(potentialParent)
	}

	if thePath == potentialParent {
		return true
	}

	prefix := potentialParent
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(thePath, prefix)
}

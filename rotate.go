package splitlog

import (
	"os"
	"path/filepath"
	"strconv"
)

// renameFile moves a full log file to its archive name.
var renameFile = os.Rename

// checkLogSize renames path to its next archive name once its size is at or
// above threshold. It reports whether the rename happened. A failed rename
// is reported as false and nothing else: the caller keeps writing to the
// oversized file and the next check tries again.
func checkLogSize(path string, threshold int64) bool {
	if threshold <= 0 {
		return false
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	if info.Size() < threshold {
		return false
	}
	return renameFile(path, nextArchiveName(path)) == nil
}

// nextArchiveName returns path + "." + N where N is one more than the number
// of existing archives of path.
func nextArchiveName(path string) string {
	return path + "." + strconv.Itoa(archiveCount(path)+1)
}

// archiveCount counts files matching path.[0-9]*.
func archiveCount(path string) int {
	matches, err := filepath.Glob(escapeGlob(path) + ".[0-9]*")
	if err != nil {
		return 0
	}
	return len(matches)
}

// escapeGlob quotes the glob metacharacters in a literal path.
func escapeGlob(path string) string {
	out := make([]byte, 0, len(path))
	for i := 0; i < len(path); i++ {
		switch c := path[i]; c {
		case '*', '?', '[', '\\':
			if c == '\\' && filepath.Separator == '\\' {
				out = append(out, c)
				continue
			}
			out = append(out, '\\', c)
		default:
			out = append(out, c)
		}
	}
	return string(out)
}

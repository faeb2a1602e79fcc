package utils

import (
	"regexp"
	"strings"
)

var unsafeName = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F]`)

// CleanDirName makes a story or chapter name safe to use as a path element.
// Names that would resolve to the current or the parent directory become "_".
func CleanDirName(input string) string {
	name := strings.TrimSpace(unsafeName.ReplaceAllString(input, "_"))
	switch name {
	case "", ".", "..":
		return "_"
	}
	return name
}

// ExportName is the file or directory name an export of a story is written
// under. A name that cleans down to nothing falls back to the story id.
func ExportName(name, id string) string {
	if clean := CleanDirName(name); clean != "_" {
		return clean
	}
	return CleanDirName(id)
}

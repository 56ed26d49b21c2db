package model

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	invalidChars    = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	trailingDots    = regexp.MustCompile(`\.+$`)
	multiWhitespace = regexp.MustCompile(`\s+`)
	placeholder     = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)
)

// maxFolderPath keeps generated paths under the Windows MAX_PATH limit
// for folders.
const maxFolderPath = 248

// FallbackName replaces a final path element that would otherwise be
// empty, e.g. a title made only of dots.
const FallbackName = "audiobook"

// OutputLocation computes the output directory path from a template.
//
// The template supports the following placeholders:
//   - {title} - The audiobook title
//   - {<tag>} - The value of any tag, e.g. {author}, {narrator}, {series}
//
// Placeholders without a value are replaced with an empty string.
// Every substituted value is sanitized so it cannot introduce path
// separators; separators written in the template itself are kept.
// A path element that only held placeholders and came out empty is
// dropped, and when that leaves no final element FallbackName is used,
// so the result always names a directory below the template's prefix.
// The result is cleaned with filepath.Clean.
//
// Example:
//
//	OutputLocation("/books/{author}/{title}", "Dune: Part 1", Tags{{"author", "Frank Herbert"}})
//	// "/books/Frank Herbert/Dune_ Part 1"
//
//	OutputLocation("{author}/{title}", "...", Tags{{"author", "Jane"}})
//	// "Jane/audiobook"
func OutputLocation(template, title string, tags Tags) string {
	if template == "" {
		template = "{title}"
	}
	template = strings.TrimRight(filepath.ToSlash(template), "/")

	elems := strings.Split(template, "/")
	out := make([]string, 0, len(elems)+1)
	dropped := false
	for i, elem := range elems {
		dropped = false
		if elem == "" {
			if i == 0 {
				out = append(out, "")
			}
			continue
		}
		value := placeholder.ReplaceAllStringFunc(elem, func(m string) string {
			name := m[1 : len(m)-1]
			if strings.EqualFold(name, TagTitle) {
				return sanitizeFileName(title)
			}
			value, _ := tags.Get(name)
			return sanitizeFileName(value)
		})
		if placeholder.MatchString(elem) && strings.Trim(value, ". ") == "" {
			dropped = true
			continue
		}
		out = append(out, value)
	}

	if dropped || len(out) == 0 || out[len(out)-1] == "" {
		out = append(out, FallbackName)
	}

	path := strings.Join(out, "/")
	if len(path) >= maxFolderPath {
		path = strings.TrimRight(path[:maxFolderPath-1], "/ .")
	}
	path = filepath.Clean(filepath.FromSlash(path))

	if base := filepath.Base(path); base == "." || base == ".." || base == string(filepath.Separator) {
		path = filepath.Join(path, FallbackName)
	}
	return path
}

// sanitizeFileName removes or replaces characters that are invalid in file/folder names.
//
// The following transformations are applied:
//   - Invalid characters (<>:"/\|?* and control chars) are replaced with underscore
//   - Trailing dots are removed (Windows limitation)
//   - Multiple whitespace is collapsed to single space
//   - Surrounding whitespace is removed
func sanitizeFileName(name string) string {
	name = invalidChars.ReplaceAllString(name, "_")
	name = trailingDots.ReplaceAllString(name, "")
	name = multiWhitespace.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

package configmerge

import (
	"os"
	"regexp"
	"strings"
)

// MergeText writes content to path. With the Merge strategy the new content
// is appended to whatever is already there, separated by a blank line.
func MergeText(path, content string, strategy Strategy) error {
	if strategy == Overwrite {
		return writeFile(path, content)
	}
	existing, err := os.ReadFile(path)
	if err != nil {
		if notExist(err) {
			return writeFile(path, content)
		}
		return err
	}
	current := strings.TrimRight(string(existing), "\n")
	if current == "" {
		return writeFile(path, content)
	}
	return writeFile(path, current+"\n\n"+content)
}

var (
	// tailwindImportRe matches v4-style imports of the tailwindcss package,
	// including subpath imports like tailwindcss/preflight.
	tailwindImportRe = regexp.MustCompile(`(?m)^\s*@import\s+["']tailwindcss[^"']*["'][^;\n]*;?[^\S\n]*\n?`)
	// tailwindDirectiveRe matches v3-style @tailwind directives.
	tailwindDirectiveRe = regexp.MustCompile(`(?m)^\s*@tailwind\s+[a-z]+\s*;[^\S\n]*\n?`)
)

// MergeCSS prepends content to the stylesheet at path, stripping any
// tailwindcss imports and @tailwind directives already present so the
// result carries exactly the imports the new content declares. A file that
// already begins with the new content is left alone, so repeated runs
// converge on the same file.
func MergeCSS(path, content string) error {
	existing, err := os.ReadFile(path)
	if err != nil && !notExist(err) {
		return err
	}
	if strings.HasPrefix(string(existing), strings.TrimRight(content, "\n")) {
		return nil
	}
	remainder := tailwindImportRe.ReplaceAllString(string(existing), "")
	remainder = tailwindDirectiveRe.ReplaceAllString(remainder, "")
	remainder = strings.Trim(remainder, "\n")

	out := strings.TrimRight(content, "\n")
	if strings.TrimSpace(remainder) != "" {
		out += "\n\n" + remainder
	}
	return writeFile(path, out)
}

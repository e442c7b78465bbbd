package lexer

import (
	"regexp"
	"strings"
)

var importPattern = regexp.MustCompile(`import '(.*?)';`)

// ScanImports finds every `import '<path>';` in text that is not preceded by
// a comment marker on its line. It works on raw text, independent of
// tokenizing.
func ScanImports(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		loc := importPattern.FindStringSubmatchIndex(line)
		if loc == nil {
			continue
		}
		prefix := line[:loc[0]]
		if strings.Contains(prefix, "//") || strings.Contains(prefix, "/*") {
			continue
		}
		out = append(out, line[loc[2]:loc[3]])
	}
	return out
}

var escapes = strings.NewReplacer(`\n`, "\n", `\r`, "\r")

// Normalize rewrites the literal escapes \n and \r of a source file into
// the characters they name.
func Normalize(text string) string {
	return escapes.Replace(text)
}

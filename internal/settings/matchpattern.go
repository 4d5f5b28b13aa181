package settings

import (
	"regexp"
	"strings"
)

const (
	subdomainsExpr = `(\*\.|(\w+(-\w+)*\.)*)`
	labelExpr      = `[^.]*`
)

// MatchPatternToRegexp translates a host match pattern such as "*.mail.google.com"
// into anchored regular expression source.
//
// A leading "*." matches any number of subdomain labels, including none, and the
// literal "*." so that a watch list frame holding the same pattern is covered.
// A bare "*" matches every host; any other "*" stays within one label.
func MatchPatternToRegexp(pattern string) string {
	if pattern == "*" {
		return `^.*$`
	}

	var b strings.Builder
	b.WriteString("^")

	rest := pattern
	if strings.HasPrefix(rest, "*.") {
		b.WriteString(subdomainsExpr)
		rest = rest[2:]
	}

	parts := strings.Split(rest, "*")
	for i, part := range parts {
		if i > 0 {
			b.WriteString(labelExpr)
		}
		b.WriteString(regexp.QuoteMeta(part))
	}

	b.WriteString("$")
	return b.String()
}

// CompileMatchPattern compiles the translation of pattern.
func CompileMatchPattern(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(MatchPatternToRegexp(pattern))
}

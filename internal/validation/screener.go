package validation

import (
	"net/url"
	"regexp"
	"strings"
)

const (
	SourcePath  = "path"
	SourceQuery = "query"
	SourceParam = "param"
)

var blockedSchemes = map[string]bool{
	"javascript": true,
	"data":       true,
	"file":       true,
	"vbscript":   true,
}

var (
	scriptPattern = regexp.MustCompile(`(?i)<\s*/?\s*(script|iframe|object|embed|svg)\b|\bon[a-z]+\s*=|expression\s*\(`)
	sqlPattern    = regexp.MustCompile(`(?i)('|")\s*(or|and)\s+('|")?\w+('|")?\s*=\s*('|")?\w+|\bunion\b\s+(all\s+)?\bselect\b|;\s*(drop|delete|truncate|alter|insert|update)\s|\b(sleep|benchmark|pg_sleep)\s*\(|--\s*$|/\*.*\*/`)
)

// Screener rejects request input that carries known attack payloads.
type Screener struct {
	maxLength int
}

func NewScreener(maxLength int) *Screener {
	return &Screener{maxLength: maxLength}
}

// CheckPath rejects traversal segments in both the escaped and decoded path.
func (s *Screener) CheckPath(escaped string) error {
	decoded, err := url.PathUnescape(escaped)
	if err != nil {
		decoded = escaped
	}
	for _, p := range []string{escaped, decoded} {
		if hasTraversal(p) {
			return &InputError{Source: SourcePath, Err: ErrPathTraversal}
		}
	}
	if len(decoded) > s.maxLength {
		return &InputError{Source: SourcePath, Err: ErrValueTooLong}
	}
	return nil
}

// CheckQuery screens every value of every query parameter.
func (s *Screener) CheckQuery(q url.Values) error {
	for name, values := range q {
		for _, v := range values {
			if err := s.CheckValue(SourceQuery, name, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Screener) CheckValue(source, name, value string) error {
	fail := func(err error) error {
		return &InputError{Source: source, Name: name, Err: err}
	}

	if len(value) > s.maxLength {
		return fail(ErrValueTooLong)
	}
	if hasBlockedScheme(value) {
		return fail(ErrBlockedScheme)
	}
	if scriptPattern.MatchString(value) {
		return fail(ErrScriptInjection)
	}
	if sqlPattern.MatchString(value) {
		return fail(ErrSQLInjection)
	}
	if hasTraversal(value) {
		return fail(ErrPathTraversal)
	}
	return nil
}

func hasBlockedScheme(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	// browsers ignore embedded whitespace and control characters in schemes
	v = strings.Map(func(r rune) rune {
		if r <= ' ' {
			return -1
		}
		return r
	}, v)

	scheme, _, ok := strings.Cut(v, ":")
	return ok && blockedSchemes[scheme]
}

func hasTraversal(p string) bool {
	p = strings.ReplaceAll(strings.ToLower(p), `\`, "/")
	if strings.Contains(p, "%2e%2e") || strings.Contains(p, "..%2f") || strings.Contains(p, "%2e./") {
		return true
	}
	for seg := range strings.SplitSeq(p, "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}

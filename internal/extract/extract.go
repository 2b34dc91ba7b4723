// Package extract implements pattern-based table reference extraction from
// SQL and settings-file text. Matching is strictly lexical: no AST, no
// dialect awareness. The precision/recall tradeoffs documented on each
// extractor are part of the contract, not defects.
package extract

import (
	"regexp"
	"sort"
	"strings"
)

// tableSegment is one identifier segment of a qualified table name.
const tableSegment = `[A-Za-z0-9_-]+`

// Reference patterns. A qualified name is project.dataset.table, optionally
// wrapped in backticks in source text; the backticks are never part of the
// captured name.
var (
	// FROM `proj.ds.tbl` / join proj.ds.tbl — keyword literals FROM, from,
	// JOIN, join only (no other case variants), exactly one space before
	// the name.
	clauseRefPattern = regexp.MustCompile("(?:FROM|from|JOIN|join) `?(" +
		tableSegment + `\.` + tableSegment + `\.` + tableSegment + ")`?")

	// bare proj.ds.tbl anywhere in a line
	bareRefPattern = regexp.MustCompile("`?(" +
		tableSegment + `\.` + tableSegment + `\.` + tableSegment + ")`?")

	// anchored form of the qualified-name grammar
	namePattern = regexp.MustCompile(`^` + tableSegment + `\.` +
		tableSegment + `\.` + tableSegment + `$`)
)

// settingsKeywords gate which lines the settings extractor scans at all.
// Lines are lower-cased before the check.
var settingsKeywords = []string{"bq", "bigquery", "table"}

// TableRefs extracts the distinct qualified table names referenced by
// FROM/JOIN clauses in SQL text.
//
// Lines are trimmed; blank lines and full-line "--" comments are dropped;
// the survivors are joined with single spaces so a clause keyword and its
// table name may sit on different source lines. Inline trailing comments
// are not stripped and are scanned like any other text. A keyword followed
// by anything other than one space and a three-segment name (extra
// whitespace, an opening parenthesis, a shorter name) does not match.
//
// The result is sorted and duplicate-free. Malformed input never fails; it
// simply yields no matches.
func TableRefs(text string) []string {
	joined := flatten(text)

	seen := make(map[string]struct{})
	var refs []string
	for _, match := range clauseRefPattern.FindAllStringSubmatch(joined, -1) {
		name := match[1]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		refs = append(refs, name)
	}
	sort.Strings(refs)
	return refs
}

// SettingsRefs extracts candidate table names from settings-file text.
//
// This path is keyword-in-line-gated rather than clause-gated: settings
// files reference tables through assignments and constants, not SQL
// clauses. Each line is trimmed and lower-cased; lines that are blank,
// start with "#", or mention none of bq/bigquery/table are skipped; the
// rest are scanned for bare qualified names. Matches beginning with "os."
// or "sys." are module paths the loose grammar picks up accidentally and
// are discarded.
//
// Because lines are lower-cased first, table names containing uppercase
// characters do not round-trip through this path. The returned list
// preserves document order and may contain duplicates; callers dedupe.
func SettingsRefs(text string) []string {
	var refs []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.ToLower(strings.TrimSpace(line))
		if line == "" || strings.HasPrefix(line, "#") || !keywordGated(line) {
			continue
		}
		for _, match := range bareRefPattern.FindAllStringSubmatch(line, -1) {
			name := match[1]
			if strings.HasPrefix(name, "os.") || strings.HasPrefix(name, "sys.") {
				continue
			}
			refs = append(refs, name)
		}
	}
	return refs
}

// ValidName reports whether s is a well-formed three-segment table name.
func ValidName(s string) bool {
	return namePattern.MatchString(s)
}

// flatten drops blank and full-line comment lines and joins the rest with a
// single space.
func flatten(text string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, " ")
}

// keywordGated reports whether a lower-cased line mentions any trigger
// keyword.
func keywordGated(line string) bool {
	for _, kw := range settingsKeywords {
		if strings.Contains(line, kw) {
			return true
		}
	}
	return false
}

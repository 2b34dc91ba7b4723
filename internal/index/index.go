// Package index merges the per-source usage indexes into the final report
// and handles its serialization. Merging is pure: identical inputs always
// produce byte-identical serialized output.
package index

import "sort"

// Entry is the usage record for one table.
type Entry struct {
	// Table is the fully qualified table name.
	Table string `json:"table"`
	// Queries holds the labels of scheduled queries referencing the table,
	// sorted ascending. Nil when the table was only seen in code.
	Queries []string `json:"queries,omitempty"`
	// Code holds the names of projects referencing the table, sorted
	// ascending. Nil when the table was only seen in the catalog.
	Code []string `json:"code,omitempty"`
}

// Report is the merged usage index, ordered ascending by table name.
type Report struct {
	Entries []Entry
}

// Merge combines the code-side and query-side indexes. Keys are the sorted
// union of both inputs; each entry carries a queries list only when the
// table appears in the query index and a code list only when it appears in
// the code index. Query labels keep duplicates (two records may share a
// display name); project sets cannot contain any.
func Merge(code map[string]map[string]struct{}, queries map[string][]string) *Report {
	keys := make(map[string]struct{}, len(code)+len(queries))
	for k := range code {
		keys[k] = struct{}{}
	}
	for k := range queries {
		keys[k] = struct{}{}
	}

	names := make([]string, 0, len(keys))
	for k := range keys {
		names = append(names, k)
	}
	sort.Strings(names)

	report := &Report{Entries: make([]Entry, 0, len(names))}
	for _, name := range names {
		entry := Entry{Table: name}
		if labels, ok := queries[name]; ok {
			entry.Queries = append([]string(nil), labels...)
			sort.Strings(entry.Queries)
		}
		if projects, ok := code[name]; ok {
			entry.Code = make([]string, 0, len(projects))
			for p := range projects {
				entry.Code = append(entry.Code, p)
			}
			sort.Strings(entry.Code)
		}
		report.Entries = append(report.Entries, entry)
	}
	return report
}

// Lookup returns the entry for a table, if present.
func (r *Report) Lookup(table string) (Entry, bool) {
	for _, entry := range r.Entries {
		if entry.Table == table {
			return entry, true
		}
	}
	return Entry{}, false
}

// Tables returns the table names in report order.
func (r *Report) Tables() []string {
	names := make([]string, 0, len(r.Entries))
	for _, entry := range r.Entries {
		names = append(names, entry.Table)
	}
	return names
}

package schema

import (
	"fmt"
	"strings"
)

// Kind is a category of catalog object that can be dumped as DDL
type Kind string

const (
	KindEnums     Kind = "enums"
	KindTypes     Kind = "types"
	KindTables    Kind = "tables"
	KindViews     Kind = "views"
	KindMViews    Kind = "mviews"
	KindFunctions Kind = "functions"
	KindTriggers  Kind = "triggers"
	KindIndexes   Kind = "indexes"
)

// AllKinds lists every kind in canonical dump order
var AllKinds = []Kind{
	KindEnums,
	KindTypes,
	KindTables,
	KindViews,
	KindMViews,
	KindFunctions,
	KindTriggers,
	KindIndexes,
}

var kindTitles = map[Kind]string{
	KindEnums:     "Enums",
	KindTypes:     "Composite types",
	KindTables:    "Tables",
	KindViews:     "Views",
	KindMViews:    "Materialized views",
	KindFunctions: "Functions",
	KindTriggers:  "Triggers",
	KindIndexes:   "Indexes",
}

// Title returns a human-readable name for the kind
func (k Kind) Title() string {
	if t, ok := kindTitles[k]; ok {
		return t
	}
	return string(k)
}

// Valid reports whether k is one of AllKinds
func (k Kind) Valid() bool {
	_, ok := kindTitles[k]
	return ok
}

// Order returns the position of k in AllKinds, or -1
func (k Kind) Order() int {
	for i, kind := range AllKinds {
		if kind == k {
			return i
		}
	}
	return -1
}

// ParseKinds parses a comma-separated kind list.
// Unknown names are rejected, duplicates dropped, and the result is
// returned in canonical order. An empty string yields nil (all kinds).
func ParseKinds(s string) ([]Kind, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	seen := make(map[Kind]bool)
	for _, part := range strings.Split(s, ",") {
		name := Kind(strings.ToLower(strings.TrimSpace(part)))
		if name == "" {
			continue
		}
		if !name.Valid() {
			return nil, fmt.Errorf("unknown object kind: %q", part)
		}
		seen[name] = true
	}

	var kinds []Kind
	for _, k := range AllKinds {
		if seen[k] {
			kinds = append(kinds, k)
		}
	}
	return kinds, nil
}

// Section holds the DDL statements of one kind, in catalog order
type Section struct {
	Kind       Kind
	Statements []string
}

// Dump is the DDL of one schema, one section per extracted kind
type Dump struct {
	Dialect  string
	Schema   string
	Sections []Section
	Skipped  []Kind // requested kinds the dialect cannot produce
}

// Section returns the section for kind, if it was extracted
func (d *Dump) Section(kind Kind) (Section, bool) {
	for _, s := range d.Sections {
		if s.Kind == kind {
			return s, true
		}
	}
	return Section{}, false
}

// Count returns the total number of statements in the dump
func (d *Dump) Count() int {
	n := 0
	for _, s := range d.Sections {
		n += len(s.Statements)
	}
	return n
}

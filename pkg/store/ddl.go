package store

import (
	"fmt"
	"strings"
)

// tableDef is the subset of a CREATE TABLE statement the embedded backends
// need: column types drive value conversion, primary-key columns drive upsert
// rewriting.
type tableDef struct {
	name       string
	primaryKey []string
	boolCols   map[string]bool
	setCols    map[string]bool
}

// parseDDL extracts a tableDef from a CQL-style CREATE TABLE statement. Only
// the shapes used by the directory schema are supported: one column per
// definition, optional inline PRIMARY KEY, optional trailing
// PRIMARY KEY (a, b) clause.
func parseDDL(ddl string) (*tableDef, error) {
	open := strings.Index(ddl, "(")
	end := strings.LastIndex(ddl, ")")
	if open < 0 || end < open {
		return nil, fmt.Errorf("malformed DDL: %s", ddl)
	}

	head := strings.Fields(ddl[:open])
	if len(head) == 0 {
		return nil, fmt.Errorf("malformed DDL: %s", ddl)
	}
	def := &tableDef{
		name:     head[len(head)-1],
		boolCols: make(map[string]bool),
		setCols:  make(map[string]bool),
	}

	for _, part := range splitColumns(ddl[open+1 : end]) {
		fields := strings.Fields(part)
		if len(fields) < 2 {
			continue
		}

		upper := strings.ToUpper(part)
		if strings.HasPrefix(upper, "PRIMARY KEY") {
			inner := part[strings.Index(part, "(")+1:]
			inner = strings.TrimSuffix(strings.TrimSpace(inner), ")")
			for _, col := range strings.Split(inner, ",") {
				def.primaryKey = append(def.primaryKey, strings.TrimSpace(col))
			}
			continue
		}

		col, typ := fields[0], strings.ToLower(fields[1])
		switch {
		case typ == "boolean":
			def.boolCols[col] = true
		case strings.HasPrefix(typ, "set<"):
			def.setCols[col] = true
		}
		if strings.Contains(upper, "PRIMARY KEY") {
			def.primaryKey = append(def.primaryKey, col)
		}
	}

	if len(def.primaryKey) == 0 {
		return nil, fmt.Errorf("DDL for %s declares no primary key", def.name)
	}
	return def, nil
}

// splitColumns splits a column-definition list on commas that are not inside
// parentheses (set<text> has none, but PRIMARY KEY (a, b) does).
func splitColumns(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '(', '<':
			depth++
		case ')', '>':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if rest := strings.TrimSpace(s[start:]); rest != "" {
		parts = append(parts, rest)
	}
	return parts
}

func (d *tableDef) isPrimaryKey(col string) bool {
	for _, k := range d.primaryKey {
		if k == col {
			return true
		}
	}
	return false
}

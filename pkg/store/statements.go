package store

import (
	"fmt"
	"strings"
)

// The memory backend interprets the directory's statement dialect directly:
// equality-filtered SELECTs, column-list INSERTs with positional parameters
// and equality-keyed DELETEs. Anything fancier is rejected loudly so a new
// statement cannot silently misbehave in tests.

type selectStmt struct {
	table   string
	columns []string
	where   []string
}

func parseSelect(stmt string) (*selectStmt, error) {
	tokens := strings.Fields(stmt)
	if len(tokens) < 4 || !strings.EqualFold(tokens[0], "SELECT") {
		return nil, fmt.Errorf("unsupported statement: %s", stmt)
	}

	from := indexOfKeyword(tokens, "FROM")
	if from < 0 || from+1 >= len(tokens) {
		return nil, fmt.Errorf("unsupported statement: %s", stmt)
	}

	sel := &selectStmt{
		table:   tokens[from+1],
		columns: splitList(strings.Join(tokens[1:from], " ")),
	}

	where, err := parseWhere(tokens[from+2:], stmt)
	if err != nil {
		return nil, err
	}
	sel.where = where
	return sel, nil
}

func parseInsert(stmt string) (table string, columns []string, err error) {
	tokens := strings.Fields(stmt)
	if len(tokens) < 3 || !strings.EqualFold(tokens[0], "INSERT") || !strings.EqualFold(tokens[1], "INTO") {
		return "", nil, fmt.Errorf("unsupported statement: %s", stmt)
	}
	table = tokens[2]

	open := strings.Index(stmt, "(")
	end := strings.Index(stmt, ")")
	if open < 0 || end < open {
		return "", nil, fmt.Errorf("unsupported statement: %s", stmt)
	}
	return table, splitList(stmt[open+1 : end]), nil
}

func parseDelete(stmt string) (table string, where []string, err error) {
	tokens := strings.Fields(stmt)
	if len(tokens) < 3 || !strings.EqualFold(tokens[0], "DELETE") || !strings.EqualFold(tokens[1], "FROM") {
		return "", nil, fmt.Errorf("unsupported statement: %s", stmt)
	}

	where, err = parseWhere(tokens[3:], stmt)
	if err != nil {
		return "", nil, err
	}
	return tokens[2], where, nil
}

// parseWhere reads "WHERE col = ? [AND col = ?]..." from the token tail. An
// empty tail means no filter.
func parseWhere(tokens []string, stmt string) ([]string, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	if !strings.EqualFold(tokens[0], "WHERE") {
		return nil, fmt.Errorf("unsupported statement: %s", stmt)
	}

	var cols []string
	rest := tokens[1:]
	for len(rest) > 0 {
		if len(rest) < 3 || rest[1] != "=" || rest[2] != "?" {
			return nil, fmt.Errorf("unsupported WHERE clause: %s", stmt)
		}
		cols = append(cols, rest[0])
		rest = rest[3:]
		if len(rest) == 0 {
			break
		}
		if !strings.EqualFold(rest[0], "AND") {
			return nil, fmt.Errorf("unsupported WHERE clause: %s", stmt)
		}
		rest = rest[1:]
	}
	return cols, nil
}

func indexOfKeyword(tokens []string, keyword string) int {
	for i, t := range tokens {
		if strings.EqualFold(t, keyword) {
			return i
		}
	}
	return -1
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

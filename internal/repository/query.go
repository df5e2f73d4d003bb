package repository

import (
	"fmt"
	"strings"
)

// whereBuilder collects AND-ed conditions with positional arguments
type whereBuilder struct {
	conds []string
	args  []interface{}
}

// add appends a condition; every "?" in cond is replaced by the next $n.
func (w *whereBuilder) add(cond string, args ...interface{}) {
	for _, arg := range args {
		w.args = append(w.args, arg)
		cond = strings.Replace(cond, "?", fmt.Sprintf("$%d", len(w.args)), 1)
	}
	w.conds = append(w.conds, cond)
}

func (w *whereBuilder) sql() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// page appends LIMIT/OFFSET placeholders and returns the clause
func (w *whereBuilder) page(page, limit int) string {
	w.args = append(w.args, limit, (page-1)*limit)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(w.args)-1, len(w.args))
}

// likePattern escapes LIKE wildcards in s and wraps it for substring matching
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

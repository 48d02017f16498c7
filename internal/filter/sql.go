package filter

import (
	"strconv"
	"strings"
)

// SelectSQL compiles the query description into a parameterized SELECT with
// an explicit column list; callers scan a fixed row shape and apply the
// field projection at render time. Every identifier comes from the Options
// whitelists; every value is a bind argument.
func (q *Query) SelectSQL(table, columns string) (string, []interface{}) {
	var sb strings.Builder
	var args []interface{}

	sb.WriteString("SELECT ")
	sb.WriteString(columns)
	sb.WriteString(" FROM ")
	sb.WriteString(table)

	where, whereArgs := q.whereClause()
	sb.WriteString(where)
	args = append(args, whereArgs...)

	if len(q.Sort) > 0 {
		sb.WriteString(" ORDER BY ")
		terms := make([]string, len(q.Sort))
		for i, s := range q.Sort {
			terms[i] = s.Column
			if s.Desc {
				terms[i] += " DESC"
			}
		}
		sb.WriteString(strings.Join(terms, ", "))
	}

	sb.WriteString(" LIMIT ? OFFSET ?")
	args = append(args, q.Limit, q.Skip())

	return sb.String(), args
}

// CountSQL compiles the matching-row count for the same predicates and
// search term, ignoring sort, projection, and pagination.
func (q *Query) CountSQL(table string) (string, []interface{}) {
	where, args := q.whereClause()
	return "SELECT COUNT(*) FROM " + table + where, args
}

func (q *Query) whereClause() (string, []interface{}) {
	var conds []string
	var args []interface{}

	for _, p := range q.Predicates {
		if p.Member {
			placeholders := strings.Repeat("?, ", len(p.Values))
			conds = append(conds, "EXISTS (SELECT 1 FROM json_each("+p.Column+") WHERE json_each.value IN ("+placeholders[:len(placeholders)-2]+"))")
			for _, v := range p.Values {
				args = append(args, v)
			}
			continue
		}
		if p.Op == OpIn {
			placeholders := strings.Repeat("?, ", len(p.Values))
			conds = append(conds, p.Column+" IN ("+placeholders[:len(placeholders)-2]+")")
			for _, v := range p.Values {
				args = append(args, bindValue(v))
			}
			continue
		}
		conds = append(conds, p.Column+" "+opSQL[p.Op]+" ?")
		args = append(args, bindValue(p.Values[0]))
	}

	if q.Search != "" && q.opts.Search != "" {
		conds = append(conds, "lower("+q.opts.Search+") LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Search)+"%")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// bindValue passes numeric-looking values through as numbers so comparisons
// against INTEGER/REAL columns behave numerically.
func bindValue(v string) interface{} {
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return v
}

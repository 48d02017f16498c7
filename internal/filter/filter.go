// Package filter translates flat HTTP query parameters into a structured,
// injection-safe database query description. Parsing happens in a fixed
// pipeline: filter predicates, free-text search, sort, field projection,
// pagination. The result is inspectable and only compiled to SQL on demand.
package filter

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/jobsterhq/jobster-be/internal/apperror"
)

// Reserved control keys stripped before the filter stage.
var reservedKeys = map[string]bool{
	"sort":   true,
	"fields": true,
	"q":      true,
	"page":   true,
	"limit":  true,
}

// DefaultLimit is the page size applied when the client sends none.
const DefaultLimit = 10

// Op is a comparison operator in a predicate.
type Op string

const (
	OpEq  Op = "eq"
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpLt  Op = "lt"
	OpLte Op = "lte"
	OpIn  Op = "in"
)

var opSQL = map[Op]string{
	OpEq:  "=",
	OpGt:  ">",
	OpGte: ">=",
	OpLt:  "<",
	OpLte: "<=",
}

// Column maps an external (JSON) field name to its SQL column.
type Column struct {
	Name string
	SQL  string
}

// Options declares, per resource, which fields may be filtered, sorted, and
// projected, which column the free-text search targets, and the defaults.
// Every identifier that reaches SQL comes from these whitelists.
type Options struct {
	Columns    []Column          // ordered projection whitelist
	Filterable map[string]string // field -> column
	Membership map[string]string // field -> JSON-array column; equality means list membership
	Sortable   map[string]string // field -> column
	Search     string            // column matched by the q parameter
	DefaultSort string           // e.g. "-postingDate"
}

func (o Options) column(name string) (string, bool) {
	for _, c := range o.Columns {
		if c.Name == name {
			return c.SQL, true
		}
	}
	return "", false
}

// Predicate is one comparison in the WHERE clause. Member predicates match
// against the elements of a JSON-array column instead of the column value.
type Predicate struct {
	Field  string // external field name
	Column string // resolved SQL column
	Op     Op
	Values []string // one value, except for OpIn
	Member bool
}

// SortField is one ORDER BY term.
type SortField struct {
	Field  string
	Column string
	Desc   bool
}

// Query is the structured description produced by Parse.
type Query struct {
	Predicates []Predicate
	Search     string // free-text keyword; empty means no search stage
	Sort       []SortField
	Projection []string // resolved columns to select; nil means all
	Fields     []string // selected external field names, same order; nil means all
	Page       int
	Limit      int

	opts Options
}

// Skip returns the pagination offset.
func (q *Query) Skip() int {
	return (q.Page - 1) * q.Limit
}

// Parse runs the five pipeline stages over the raw query values.
func Parse(values url.Values, opts Options) (*Query, error) {
	q := &Query{opts: opts}

	if err := q.parseFilters(values); err != nil {
		return nil, err
	}
	q.Search = strings.TrimSpace(values.Get("q"))
	if err := q.parseSort(values.Get("sort")); err != nil {
		return nil, err
	}
	if err := q.parseFields(values.Get("fields")); err != nil {
		return nil, err
	}
	q.parsePagination(values.Get("page"), values.Get("limit"))

	return q, nil
}

// parseFilters turns every non-reserved key into a predicate. Keys carry an
// optional bracketed operator suffix, e.g. salary[gte]=50000. Unknown
// operators and non-whitelisted fields are rejected, never passed through.
func (q *Query) parseFilters(values url.Values) error {
	for key, vals := range values {
		if reservedKeys[key] || len(vals) == 0 {
			continue
		}

		field, op, err := splitOperator(key)
		if err != nil {
			return err
		}

		column, member := "", false
		if c, ok := q.opts.Filterable[field]; ok {
			column = c
		} else if c, ok := q.opts.Membership[field]; ok {
			column, member = c, true
			if op != OpEq && op != OpIn {
				return apperror.NewValidation(fmt.Sprintf("Operator %q is not valid for field %q", string(op), field), nil)
			}
		} else {
			return apperror.NewValidation(fmt.Sprintf("Cannot filter on field %q", field), nil)
		}

		pred := Predicate{Field: field, Column: column, Op: op, Member: member}
		if op == OpIn {
			pred.Values = splitList(vals[0])
			if len(pred.Values) == 0 {
				return apperror.NewValidation(fmt.Sprintf("Empty value list for field %q", field), nil)
			}
		} else {
			pred.Values = []string{vals[0]}
		}
		q.Predicates = append(q.Predicates, pred)
	}
	return nil
}

func splitOperator(key string) (string, Op, error) {
	open := strings.IndexByte(key, '[')
	if open < 0 {
		return key, OpEq, nil
	}
	if !strings.HasSuffix(key, "]") || open == 0 {
		return "", "", apperror.NewValidation(fmt.Sprintf("Malformed filter key %q", key), nil)
	}

	field := key[:open]
	switch op := Op(key[open+1 : len(key)-1]); op {
	case OpGt, OpGte, OpLt, OpLte, OpIn:
		return field, op, nil
	default:
		return "", "", apperror.NewValidation(fmt.Sprintf("Unsupported operator %q for field %q", string(op), field), nil)
	}
}

// parseSort accepts a comma-separated field list, each term optionally
// prefixed with '-' for descending order.
func (q *Query) parseSort(raw string) error {
	if strings.TrimSpace(raw) == "" {
		raw = q.opts.DefaultSort
	}
	for _, term := range splitList(raw) {
		desc := strings.HasPrefix(term, "-")
		field := strings.TrimPrefix(term, "-")

		column, ok := q.opts.Sortable[field]
		if !ok {
			return apperror.NewValidation(fmt.Sprintf("Cannot sort on field %q", field), nil)
		}
		q.Sort = append(q.Sort, SortField{Field: field, Column: column, Desc: desc})
	}
	return nil
}

// parseFields resolves the projection. A '-' prefix switches the whole list
// to exclusion mode; mixing inclusion and exclusion is rejected.
func (q *Query) parseFields(raw string) error {
	terms := splitList(raw)
	if len(terms) == 0 {
		return nil // all fields
	}

	exclude := strings.HasPrefix(terms[0], "-")
	requested := make(map[string]bool, len(terms))
	for _, term := range terms {
		if strings.HasPrefix(term, "-") != exclude {
			return apperror.NewValidation("Cannot mix included and excluded fields", nil)
		}
		field := strings.TrimPrefix(term, "-")
		if _, ok := q.opts.column(field); !ok {
			return apperror.NewValidation(fmt.Sprintf("Unknown field %q", field), nil)
		}
		requested[field] = true
	}

	for _, c := range q.opts.Columns {
		if requested[c.Name] != exclude {
			q.Projection = append(q.Projection, c.SQL)
			q.Fields = append(q.Fields, c.Name)
		}
	}
	if len(q.Projection) == 0 {
		return apperror.NewValidation("Field selection excludes every field", nil)
	}
	return nil
}

// parsePagination normalizes page and limit; anything negative, zero, or
// non-numeric falls back to the defaults instead of producing a bad window.
func (q *Query) parsePagination(pageRaw, limitRaw string) {
	q.Page = 1
	if p, err := strconv.Atoi(pageRaw); err == nil && p > 0 {
		q.Page = p
	}
	q.Limit = DefaultLimit
	if l, err := strconv.Atoi(limitRaw); err == nil && l > 0 {
		q.Limit = l
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

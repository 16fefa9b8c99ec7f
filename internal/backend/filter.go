package backend

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Filter renders PostgREST query parameters. The zero value selects every
// column of every row.
type Filter struct {
	columns string
	conds   []cond
	or      []string
	order   []string
	limit   int
}

type cond struct {
	column string
	expr   string
}

// NewFilter starts an empty filter.
func NewFilter() *Filter {
	return &Filter{}
}

// Columns restricts the selected columns ("*" by default).
func (f *Filter) Columns(cols string) *Filter {
	f.columns = cols
	return f
}

// Eq adds column = value.
func (f *Filter) Eq(column string, value any) *Filter {
	f.conds = append(f.conds, cond{column: column, expr: "eq." + formatValue(value)})
	return f
}

// Neq adds column <> value.
func (f *Filter) Neq(column string, value any) *Filter {
	f.conds = append(f.conds, cond{column: column, expr: "neq." + formatValue(value)})
	return f
}

// Lte adds column <= value.
func (f *Filter) Lte(column string, value any) *Filter {
	f.conds = append(f.conds, cond{column: column, expr: "lte." + formatValue(value)})
	return f
}

// SearchAny matches rows where any of columns contains term,
// case-insensitively. Pattern and grouping characters in term are escaped.
func (f *Filter) SearchAny(term string, columns ...string) *Filter {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return f
	}
	pattern := quoteOrValue("*" + escapeLike(term) + "*")
	for _, col := range columns {
		f.or = append(f.or, col+".ilike."+pattern)
	}
	return f
}

// Order sorts by column.
func (f *Filter) Order(column string, ascending bool) *Filter {
	dir := "desc"
	if ascending {
		dir = "asc"
	}
	f.order = append(f.order, column+"."+dir)
	return f
}

// Limit caps the number of rows. Zero means no limit.
func (f *Filter) Limit(n int) *Filter {
	f.limit = n
	return f
}

// Values renders the filter as query parameters.
func (f *Filter) Values() url.Values {
	v := url.Values{}
	cols := "*"
	if f != nil && f.columns != "" {
		cols = f.columns
	}
	v.Set("select", cols)
	if f == nil {
		return v
	}
	for _, c := range f.conds {
		v.Add(c.column, c.expr)
	}
	if len(f.or) > 0 {
		v.Set("or", "("+strings.Join(f.or, ",")+")")
	}
	if len(f.order) > 0 {
		v.Set("order", strings.Join(f.order, ","))
	}
	if f.limit > 0 {
		v.Set("limit", strconv.Itoa(f.limit))
	}
	return v
}

// conditionValues renders only the row conditions; used by update and
// delete where select/order/limit do not apply.
func (f *Filter) conditionValues() url.Values {
	v := url.Values{}
	if f == nil {
		return v
	}
	for _, c := range f.conds {
		v.Add(c.column, c.expr)
	}
	if len(f.or) > 0 {
		v.Set("or", "("+strings.Join(f.or, ",")+")")
	}
	return v
}

// formatValue renders a filter operand. Types without a dedicated case are
// printed with fmt so an unexpected id type never collapses to "eq.".
func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(value)
}

// escapeLike neutralizes the ilike wildcards so user input matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`, `*`, `\*`)
	return r.Replace(s)
}

// quoteOrValue wraps a value in double quotes so commas and parentheses
// inside it do not break the or=(...) grouping.
func quoteOrValue(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}

package query

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// SortField is one ORDER BY term. Field is a projected name; names the
// projection does not know are used as raw columns.
type SortField struct {
	Field      string
	Descending bool
}

// ParseSortFields reads "vendor_name,-created_at" style input, where a leading
// "-" sorts descending. Blank entries are skipped and empty input yields nil.
func ParseSortFields(s string) []SortField {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	var fields []SortField
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, desc := strings.CutPrefix(part, "-")
		fields = append(fields, SortField{Field: name, Descending: desc})
	}
	return fields
}

// condition is a WHERE term. Each "?" in clause is a placeholder for the
// matching entry of args and becomes $n when the statement is rendered.
type condition struct {
	clause string
	args   []any
}

// Builder assembles statements over a ProjectionMap. Conditions are joined
// with AND, and nil or empty filter values add nothing.
type Builder struct {
	projection  *ProjectionMap
	conditions  []condition
	orderBy     []SortField
	defaultSort []SortField
}

// NewBuilder returns a Builder ordered by defaultSort unless OrderByFields
// replaces it.
func NewBuilder(projection *ProjectionMap, defaultSort ...SortField) *Builder {
	return &Builder{
		projection:  projection,
		defaultSort: defaultSort,
	}
}

// OrderByFields replaces the default order. An empty slice restores it.
func (b *Builder) OrderByFields(fields []SortField) *Builder {
	b.orderBy = fields
	return b
}

// WhereEquals matches field = value.
func (b *Builder) WhereEquals(field string, value any) *Builder {
	if isNil(value) {
		return b
	}
	return b.where(b.projection.Column(field)+" = ?", value)
}

// WhereNotEquals matches field <> value. Rows where field is NULL never match.
func (b *Builder) WhereNotEquals(field string, value any) *Builder {
	if isNil(value) {
		return b
	}
	return b.where(b.projection.Column(field)+" <> ?", value)
}

// WhereIn matches field against any of values.
func (b *Builder) WhereIn(field string, values []any) *Builder {
	if len(values) == 0 {
		return b
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
	return b.where(fmt.Sprintf("%s IN (%s)", b.projection.Column(field), marks), values...)
}

// WhereRange matches lo <= field <= hi. Either bound may be nil.
func (b *Builder) WhereRange(field string, lo, hi any) *Builder {
	col := b.projection.Column(field)
	if !isNil(lo) {
		b.where(col+" >= ?", lo)
	}
	if !isNil(hi) {
		b.where(col+" <= ?", hi)
	}
	return b
}

// WhereContains matches field case-insensitively containing value.
func (b *Builder) WhereContains(field string, value *string) *Builder {
	if value == nil || *value == "" {
		return b
	}
	return b.where(b.projection.Column(field)+" ILIKE ?", "%"+*value+"%")
}

// WhereSearch matches rows where any of fields contains search.
func (b *Builder) WhereSearch(search *string, fields ...string) *Builder {
	if search == nil || *search == "" || len(fields) == 0 {
		return b
	}

	clauses := make([]string, len(fields))
	args := make([]any, len(fields))
	for i, field := range fields {
		clauses[i] = b.projection.Column(field) + " ILIKE ?"
		args[i] = "%" + *search + "%"
	}

	return b.where("("+strings.Join(clauses, " OR ")+")", args...)
}

func (b *Builder) where(clause string, args ...any) *Builder {
	b.conditions = append(b.conditions, condition{clause: clause, args: args})
	return b
}

// Build renders a SELECT of every projected column.
func (b *Builder) Build() (string, []any) {
	where, args := b.renderWhere()
	return b.selectFrom() + where + b.renderOrderBy(), args
}

// BuildCount renders a COUNT(*) over the same conditions, without ordering.
func (b *Builder) BuildCount() (string, []any) {
	where, args := b.renderWhere()
	return "SELECT COUNT(*) FROM " + b.projection.From() + where, args
}

// BuildPage renders Build limited to one page. page starts at 1.
func (b *Builder) BuildPage(page, pageSize int) (string, []any) {
	sql, args := b.Build()
	offset := max(page-1, 0) * pageSize
	return sql + " LIMIT " + strconv.Itoa(pageSize) + " OFFSET " + strconv.Itoa(offset), args
}

// BuildSingle renders a lookup by idField, ignoring any other conditions.
func (b *Builder) BuildSingle(idField string, id any) (string, []any) {
	return b.selectFrom() + " WHERE " + b.projection.Column(idField) + " = $1", []any{id}
}

// BuildLocked is BuildSingle with a row lock. Run it inside a transaction;
// the lock lasts until commit or rollback.
func (b *Builder) BuildLocked(idField string, id any) (string, []any) {
	sql, args := b.BuildSingle(idField, id)
	return sql + " FOR UPDATE", args
}

func (b *Builder) selectFrom() string {
	return "SELECT " + b.projection.Columns() + " FROM " + b.projection.From()
}

func (b *Builder) renderWhere() (string, []any) {
	if len(b.conditions) == 0 {
		return "", nil
	}

	var sb strings.Builder
	args := make([]any, 0, len(b.conditions))

	sb.WriteString(" WHERE ")
	for i, c := range b.conditions {
		if i > 0 {
			sb.WriteString(" AND ")
		}
		next := 0
		for _, r := range c.clause {
			if r != '?' {
				sb.WriteRune(r)
				continue
			}
			args = append(args, c.args[next])
			next++
			sb.WriteString("$" + strconv.Itoa(len(args)))
		}
	}

	return sb.String(), args
}

func (b *Builder) renderOrderBy() string {
	fields := b.orderBy
	if len(fields) == 0 {
		fields = b.defaultSort
	}
	if len(fields) == 0 {
		return ""
	}

	parts := make([]string, len(fields))
	for i, f := range fields {
		dir := "ASC"
		if f.Descending {
			dir = "DESC"
		}
		parts[i] = b.projection.Column(f.Field) + " " + dir
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

// isNil treats typed nil pointers, maps and slices as absent so optional
// filter fields can be passed without unwrapping.
func isNil(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return v.IsNil()
	}
	return false
}

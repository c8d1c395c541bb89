// Package query builds parameterized PostgreSQL statements from a projection
// of Go-side field names onto table columns.
package query

import (
	"strings"
)

// ProjectionMap maps field names such as "VendorName" to alias-qualified
// columns such as "d.vendor_name". Projection order is the scan order.
type ProjectionMap struct {
	schema  string
	table   string
	alias   string
	joins   []string
	fields  map[string]string
	columns []string
}

func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	return &ProjectionMap{
		schema: schema,
		table:  table,
		alias:  alias,
		fields: make(map[string]string),
	}
}

// Project appends column under field. Columns are selected in the order they
// are projected.
func (p *ProjectionMap) Project(column, field string) *ProjectionMap {
	p.fields[field] = p.alias + "." + column
	p.columns = append(p.columns, column)
	return p
}

// Join appends a join clause, such as
// "LEFT JOIN public.ledgers l ON l.id = t.ledger_id", to the FROM clause.
func (p *ProjectionMap) Join(clause string) *ProjectionMap {
	p.joins = append(p.joins, clause)
	return p
}

func (p *ProjectionMap) Alias() string {
	return p.alias
}

// Table renders "schema.table alias".
func (p *ProjectionMap) Table() string {
	return p.schema + "." + p.table + " " + p.alias
}

// From renders Table followed by any joins.
func (p *ProjectionMap) From() string {
	return strings.Join(append([]string{p.Table()}, p.joins...), " ")
}

// Column resolves field to its qualified column. Unknown names pass through
// unchanged so callers can reference raw columns.
func (p *ProjectionMap) Column(field string) string {
	if col, ok := p.fields[field]; ok {
		return col
	}
	return field
}

// Columns renders the qualified select list.
func (p *ProjectionMap) Columns() string {
	qualified := make([]string, len(p.columns))
	for i, c := range p.columns {
		qualified[i] = p.alias + "." + c
	}
	return strings.Join(qualified, ", ")
}

// Returning renders a RETURNING clause over the projected columns, unqualified,
// so INSERT and UPDATE results scan like a SELECT.
func (p *ProjectionMap) Returning() string {
	return "RETURNING " + strings.Join(p.columns, ", ")
}

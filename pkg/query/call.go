package query

import (
	"fmt"
	"strings"
)

// Param is a named argument for a stored function call.
type Param struct {
	Name  string
	Value any
}

// Call builds "SELECT fn(name => $1, ...)" using PostgreSQL named notation,
// so argument order does not depend on the function signature.
func Call(function string, params ...Param) (string, []any) {
	parts := make([]string, len(params))
	args := make([]any, len(params))

	for i, p := range params {
		parts[i] = fmt.Sprintf("%s => $%d", p.Name, i+1)
		args[i] = p.Value
	}

	return fmt.Sprintf("SELECT %s(%s)", function, strings.Join(parts, ", ")), args
}

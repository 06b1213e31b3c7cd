package gateway

import "fmt"

// FilterOp enumerates the supported filter node kinds.
type FilterOp string

const (
	OpNone FilterOp = ""
	OpEq   FilterOp = "eq"
	OpIn   FilterOp = "in"
	OpAnd  FilterOp = "and"
	OpOr   FilterOp = "or"
	OpNot  FilterOp = "not"
)

// Filter is a small expression tree over row columns. The zero value
// matches every row.
type Filter struct {
	Op     FilterOp
	Column string
	Value  any
	Values []any
	Parts  []Filter
}

// Eq matches rows whose column equals value.
func Eq(column string, value any) Filter {
	return Filter{Op: OpEq, Column: column, Value: value}
}

// In matches rows whose column is one of values.
func In(column string, values ...any) Filter {
	return Filter{Op: OpIn, Column: column, Values: values}
}

// And matches rows satisfying every part.
func And(parts ...Filter) Filter {
	return Filter{Op: OpAnd, Parts: parts}
}

// Or matches rows satisfying any part.
func Or(parts ...Filter) Filter {
	return Filter{Op: OpOr, Parts: parts}
}

// Not inverts a filter.
func Not(part Filter) Filter {
	return Filter{Op: OpNot, Parts: []Filter{part}}
}

// Matches evaluates the filter against an in-memory row. Used by realtime
// subscriptions to narrow per-table feeds client-side.
func (f Filter) Matches(row Row) bool {
	switch f.Op {
	case OpNone:
		return true
	case OpEq:
		return equalValues(row[f.Column], f.Value)
	case OpIn:
		for _, v := range f.Values {
			if equalValues(row[f.Column], v) {
				return true
			}
		}
		return false
	case OpAnd:
		for _, part := range f.Parts {
			if !part.Matches(row) {
				return false
			}
		}
		return true
	case OpOr:
		for _, part := range f.Parts {
			if part.Matches(row) {
				return true
			}
		}
		return false
	case OpNot:
		return len(f.Parts) == 1 && !f.Parts[0].Matches(row)
	default:
		return false
	}
}

// equalValues compares loosely typed row values. Rows round-trip through
// JSON and drivers, so uuids arrive as strings and ints as int64/float64;
// comparing printed forms keeps equality stable across those encodings.
func equalValues(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a == b {
		return true
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

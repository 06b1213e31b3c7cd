package gateway

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Decode helpers convert loosely typed row values into the shapes the
// engine stores. Values arrive differently depending on the driver and on
// whether the row came from a query or a realtime event that round-tripped
// through JSON.

// String returns the column as a string, or "" when absent.
func String(row Row, column string) string {
	v, ok := row[column]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// UUID parses the column as a UUID, returning uuid.Nil on failure.
func UUID(row Row, column string) uuid.UUID {
	switch v := row[column].(type) {
	case uuid.UUID:
		return v
	case string:
		if id, err := uuid.Parse(v); err == nil {
			return id
		}
	case []byte:
		if id, err := uuid.ParseBytes(v); err == nil {
			return id
		}
	}
	return uuid.Nil
}

// Bool interprets the column as a boolean. Drivers hand back bools,
// integers or JSON numbers depending on the path taken.
func Bool(row Row, column string) bool {
	switch v := row[column].(type) {
	case bool:
		return v
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case string:
		return v == "true" || v == "1" || v == "t"
	default:
		return false
	}
}

// Has reports whether the column is present and non-nil.
func Has(row Row, column string) bool {
	v, ok := row[column]
	return ok && v != nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
}

// Time parses the column as a timestamp, returning the zero time on failure.
func Time(row Row, column string) time.Time {
	switch v := row[column].(type) {
	case time.Time:
		return v
	case string:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

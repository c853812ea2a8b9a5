package contracts

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/krateoplatformops/oascontracts/internal/tools/datatypes"
)

// Coerce turns the raw text of a path, query or header parameter into the
// value dt expects. Text that does not parse is returned unchanged so that
// validation reports it.
func Coerce(dt datatypes.DataType, raw string) any {
	switch t := datatypes.Resolve(dt).(type) {
	case *datatypes.IntegerDataType, *datatypes.NumberDataType:
		if d, err := decimal.NewFromString(raw); err == nil {
			return d
		}
	case *datatypes.BooleanDataType:
		if b, err := strconv.ParseBool(raw); err == nil {
			return b
		}
	case *datatypes.ArrayDataType:
		if raw == "" {
			return []any{}
		}
		parts := strings.Split(raw, ",")
		out := make([]any, len(parts))
		for i, p := range parts {
			out[i] = Coerce(t.Items(), p)
		}
		return out
	}
	return raw
}

// Format renders a generated value as parameter text, the inverse of Coerce.
// Arrays are comma separated.
func Format(v any) string {
	switch t := datatypes.Plain(v).(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case []byte:
		return string(t)
	case []any:
		parts := make([]string, len(t))
		for i, item := range t {
			parts[i] = Format(item)
		}
		return strings.Join(parts, ",")
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

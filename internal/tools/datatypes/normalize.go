package datatypes

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Normalize converts a decoded value into the canonical representation used
// by every validation: all numbers become decimal.Decimal, nested maps become
// map[string]any and nested slices become []any. Values that cannot be
// represented (NaN, unsupported types) are returned unchanged and later fail
// the type check.
func Normalize(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case decimal.Decimal:
		return t
	case *decimal.Decimal:
		if t == nil {
			return nil
		}
		return *t
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		if err != nil {
			return t
		}
		return d
	case int:
		return decimal.NewFromInt(int64(t))
	case int8:
		return decimal.NewFromInt(int64(t))
	case int16:
		return decimal.NewFromInt(int64(t))
	case int32:
		return decimal.NewFromInt32(t)
	case int64:
		return decimal.NewFromInt(t)
	case uint:
		return fromUint64(uint64(t))
	case uint8:
		return fromUint64(uint64(t))
	case uint16:
		return fromUint64(uint64(t))
	case uint32:
		return fromUint64(uint64(t))
	case uint64:
		return fromUint64(t)
	case float32:
		if math.IsNaN(float64(t)) || math.IsInf(float64(t), 0) {
			return t
		}
		return decimal.NewFromFloat32(t)
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return t
		}
		return decimal.NewFromFloat(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = Normalize(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[fmt.Sprint(k)] = Normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = Normalize(item)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = item
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = Normalize(item)
		}
		return out
	default:
		return v
	}
}

func fromUint64(n uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(n), 0)
}

// Plain converts a normalized value back into something encoding/json writes
// as plain JSON: decimals become json.Number so they are emitted unquoted.
func Plain(v any) any {
	switch t := v.(type) {
	case decimal.Decimal:
		return json.Number(t.String())
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = Plain(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = Plain(item)
		}
		return out
	default:
		return v
	}
}

// describe renders a value for error messages.
func describe(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("'%s'", t)
	case decimal.Decimal:
		return t.String()
	case []byte:
		return fmt.Sprintf("<%d bytes>", len(t))
	}
	b, err := json.Marshal(Plain(v))
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

func describeAll(values []any) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, describe(v))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func quoteAll(names []string) string {
	parts := make([]string, 0, len(names))
	for _, n := range names {
		parts = append(parts, fmt.Sprintf("'%s'", n))
	}
	return strings.Join(parts, ", ")
}

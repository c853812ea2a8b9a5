package hasher

import (
	"encoding/json"
	"fmt"
	"hash"
	"hash/fnv"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
)

type ObjectHash struct {
	hash.Hash64
}

// the hash is cumulative, so you can call SumHash() multiple times
// with different values and the hash will be updated
func (h *ObjectHash) SumHash(a ...any) error {
	for _, v := range a {
		b, err := Canonical(v)
		if err != nil {
			return err
		}
		if _, err := h.Write(b); err != nil {
			return err
		}
	}
	return nil
}

func (h *ObjectHash) Reset() {
	h.Hash64.Reset()
}
func (h *ObjectHash) GetHash() string {
	return fmt.Sprintf("%x", h.Hash64.Sum64())
}

func NewFNVObjectHash() ObjectHash {
	return ObjectHash{fnv.New64()}
}

// Key returns the FNV hash of the canonical encoding of v.
func Key(v any) (string, error) {
	h := NewFNVObjectHash()
	if err := h.SumHash(v); err != nil {
		return "", err
	}
	return h.GetHash(), nil
}

// Canonical encodes a JSON-like value so that structurally equal values
// produce identical bytes: numbers of any Go type compare by decimal value,
// map keys are sorted and every scalar carries a type tag, so the string
// "1" and the number 1 differ.
func Canonical(v any) ([]byte, error) {
	var buf []byte
	return appendCanonical(buf, v)
}

func appendCanonical(buf []byte, v any) ([]byte, error) {
	switch t := v.(type) {
	case nil:
		return append(buf, 'z'), nil
	case bool:
		return strconv.AppendBool(append(buf, 'b'), t), nil
	case string:
		return strconv.AppendQuote(append(buf, 's'), t), nil
	case []byte:
		return strconv.AppendQuote(append(buf, 'y'), string(t)), nil
	case decimal.Decimal:
		return append(append(buf, 'n'), t.String()...), nil
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", t, err)
		}
		return appendCanonical(buf, d)
	case int:
		return appendCanonical(buf, decimal.NewFromInt(int64(t)))
	case int32:
		return appendCanonical(buf, decimal.NewFromInt32(t))
	case int64:
		return appendCanonical(buf, decimal.NewFromInt(t))
	case float32:
		return appendCanonical(buf, decimal.NewFromFloat32(t))
	case float64:
		return appendCanonical(buf, decimal.NewFromFloat(t))
	case []any:
		buf = append(buf, '[')
		for i, item := range t {
			if i > 0 {
				buf = append(buf, ',')
			}
			var err error
			if buf, err = appendCanonical(buf, item); err != nil {
				return nil, err
			}
		}
		return append(buf, ']'), nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf = append(buf, '{')
		for i, k := range keys {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = strconv.AppendQuote(buf, k)
			buf = append(buf, ':')
			var err error
			if buf, err = appendCanonical(buf, t[k]); err != nil {
				return nil, err
			}
		}
		return append(buf, '}'), nil
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return nil, err
		}
		return append(append(buf, 'j'), b...), nil
	}
}

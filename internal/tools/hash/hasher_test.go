package hasher

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func BenchmarkHash(b *testing.B) {
	input := []any{"test", 123, true, "another string", 456.78}

	h := NewFNVObjectHash()

	for i := 0; i < b.N; i++ {
		err := h.SumHash(input...)
		if err != nil {
			b.Fatalf("Hash() failed: %v", err)
		}
	}
}

func TestHash(t *testing.T) {
	tests := []struct {
		name    string
		input   []any
		wantErr bool
	}{
		{
			name:    "Single string input",
			input:   []any{"test"},
			wantErr: false,
		},
		{
			name:    "Multiple inputs",
			input:   []any{"test", 123, true},
			wantErr: false,
		},
		{
			name:    "Nested input",
			input:   []any{map[string]any{"a": []any{1, "x", nil}}},
			wantErr: false,
		},
		{
			name:    "Unsupported input",
			input:   []any{make(chan int)},
			wantErr: true,
		},
		{
			name:    "Nil input",
			input:   nil,
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewFNVObjectHash()
			err := h.SumHash(tt.input...)
			if (err != nil) != tt.wantErr {
				t.Errorf("Hash() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			got := h.GetHash()
			if got == "" && !tt.wantErr {
				t.Errorf("Hash() returned empty string, expected valid hash")
			}
		})
	}
}

func TestKey(t *testing.T) {
	testCases := []struct {
		name  string
		a, b  any
		equal bool
	}{
		{name: "int and float with same value", a: 1, b: 1.0, equal: true},
		{name: "decimal with trailing zeros", a: decimal.RequireFromString("1.50"), b: 1.5, equal: true},
		{name: "string vs number", a: "1", b: 1, equal: false},
		{name: "map key order", a: map[string]any{"a": 1, "b": 2}, b: map[string]any{"b": 2, "a": 1}, equal: true},
		{name: "array order matters", a: []any{1, 2}, b: []any{2, 1}, equal: false},
		{name: "null vs string null", a: nil, b: "null", equal: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ka, err := Key(tc.a)
			require.NoError(t, err)
			kb, err := Key(tc.b)
			require.NoError(t, err)
			assert.Equal(t, tc.equal, ka == kb)
		})
	}
}

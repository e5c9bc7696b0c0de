package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFloat(t *testing.T) {
	tests := []struct {
		name string
		cell string
		want float64
		ok   bool
	}{
		{"plain integer", "450", 450, true},
		{"decimal", "45.5", 45.5, true},
		{"negative", "-3.2", -3.2, true},
		{"thousands separators", "1,000,000", 1000000, true},
		{"separator free equivalent", "1000000", 1000000, true},
		{"surrounding whitespace", "  72  ", 72, true},
		{"empty", "", 0, false},
		{"whitespace only", "   ", 0, false},
		{"non-numeric", "unknown", 0, false},
		{"mixed", "12abc", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseFloat(tt.cell)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFloat_SeparatorEquivalence(t *testing.T) {
	with, ok := ParseFloat("1,000,000")
	assert.True(t, ok)
	without, ok2 := ParseFloat("1000000")
	assert.True(t, ok2)
	assert.Equal(t, without, with)
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		name string
		cell string
		want int64
		ok   bool
	}{
		{"plain", "42", 42, true},
		{"thousands separators", "1,200", 1200, true},
		{"negative", "-7", -7, true},
		{"empty", "", 0, false},
		{"decimal rejected", "4.5", 0, false},
		{"non-numeric", "n/a", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseInt(tt.cell)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

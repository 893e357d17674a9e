package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupe(t *testing.T) {
	assert.Equal(t, []int{3, 1, 2}, Dedupe([]int{3, 1, 3, 2, 1}))
	assert.Empty(t, Dedupe([]string(nil)))
}

func TestNormalizeList(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"trims and lowers", []string{" Bill_Of_Lading ", "PACKING_LIST"}, []string{"bill_of_lading", "packing_list"}},
		{"drops blanks", []string{"", "  ", "x"}, []string{"x"}},
		{"case-insensitive duplicates", []string{"A", "a", "b", "A"}, []string{"a", "b"}},
		{"empty", nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeList(tt.in))
		})
	}
}

func TestContainsFold(t *testing.T) {
	assert.True(t, ContainsFold("Chamber of Commerce Hamburg", "chamber of commerce"))
	assert.True(t, ContainsFold("DDS-2026-001", "nope", "dds-"))
	assert.False(t, ContainsFold("Ministry of Agriculture", "chamber"))
	assert.False(t, ContainsFold("anything", "", "  "))
}

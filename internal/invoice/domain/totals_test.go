package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecalculate(t *testing.T) {
	tests := []struct {
		name  string
		lines []LineItem
		want  Totals
	}{
		{name: "empty", want: Totals{}},
		{
			name: "regular lines",
			lines: []LineItem{
				{Amount: 121, Tax: 21},
				{Amount: 121, Tax: 21},
			},
			want: Totals{Total: 242, Tax: 42},
		},
		{
			name: "reversal cancels",
			lines: []LineItem{
				{Amount: 121, Tax: 21},
				{Amount: -121, Tax: -21},
			},
			want: Totals{},
		},
		{
			name: "free then regular",
			lines: []LineItem{
				{Amount: 121, Tax: 21, IsFree: true},
				{Amount: 121, Tax: 21},
			},
			want: Totals{Total: 121, Tax: 21, Discount: 121},
		},
		{
			name: "complimentary, free and regular",
			lines: []LineItem{
				{Amount: 121, Tax: 21, IsComplimentary: true},
				{Amount: 121, Tax: 21, IsFree: true},
				{Amount: 121, Tax: 21},
			},
			want: Totals{Total: 121, Tax: 21, Discount: 242},
		},
		{
			name: "explicit discount on regular line",
			lines: []LineItem{
				{Amount: 100, Discount: 10},
				{Amount: 50, IsFree: true, Discount: 999},
			},
			want: Totals{Total: 100, Discount: 60},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Recalculate(tt.lines))
		})
	}
}

func TestRecalculateIsOrderIndependent(t *testing.T) {
	lines := []LineItem{
		{Amount: 121, Tax: 21, IsComplimentary: true},
		{Amount: -40, Tax: -7},
		{Amount: 300, Tax: 52, Discount: 5},
		{Amount: 12, IsFree: true},
	}
	reversed := []LineItem{lines[3], lines[2], lines[1], lines[0]}

	assert.Equal(t, Recalculate(lines), Recalculate(reversed))
}

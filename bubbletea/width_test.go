package bubbletea_test

import (
	"strings"
	"testing"

	"github.com/fwojciec/commitsplit/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestDisplayWidth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"empty", "", 0},
		{"plain", "hello", 5},
		{"lone tab", "\t", 8},
		{"tab before the stop", "1234567\t", 8},
		{"tab on the stop", "12345678\t", 16},
		{"added line with indent", "+\t\treturn err", 26},
		{"wide runes", "日本\t語", 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, bubbletea.DisplayWidth(tt.input))
		})
	}
}

func TestExpandTabs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "no tabs", input: "plain", expected: "plain"},
		{name: "leading tab", input: "\tx", expected: "        x"},
		{name: "tab after diff prefix", input: "+\treturn nil", expected: "+       return nil"},
		{name: "per line columns", input: "ab\tc\n\td", expected: "ab      c\n        d"},
		{name: "wide runes", input: "日本\t語", expected: "日本    語"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := bubbletea.ExpandTabs(tt.input)
			assert.Equal(t, tt.expected, got)
			for _, line := range strings.Split(got, "\n") {
				assert.NotContains(t, line, "\t")
			}
		})
	}
}

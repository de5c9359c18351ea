package tokenize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		delims   string
		opts     SplitOptions
		expected []string
	}{
		{"empty line", "", ",", SplitOptions{}, nil},
		{"simple", "a,b,c", ",", SplitOptions{}, []string{"a", "b", "c"}},
		{"adjacent delimiters kept", "a,,b", ",", SplitOptions{}, []string{"a", "", "b"}},
		{"adjacent delimiters skipped", "a,,b", ",", SplitOptions{SkipBlanks: true}, []string{"a", "b"}},
		{"trailing delimiter", "a,", ",", SplitOptions{}, []string{"a", ""}},
		{"whitespace runs", "  ACFT   WYR ", " \t", SplitOptions{SkipBlanks: true}, []string{"ACFT", "WYR"}},
		{"multiple delimiter chars", "a b,c", " ,", SplitOptions{}, []string{"a", "b", "c"}},
		{"quotes ignored when not allowed", `"a,b",c`, ",", SplitOptions{}, []string{`"a`, `b"`, "c"}},
		{"double quoted span", `"a,b",c`, ",", SplitOptions{AllowQuotedStrings: true}, []string{"a,b", "c"}},
		{"single quoted span retained", `x.'a.b'.c`, ".", SplitOptions{AllowQuotedStrings: true, RetainQuotes: true}, []string{"x", "'a.b'", "c"}},
		{"escaped quote", `"say ""hi""",z`, ",", SplitOptions{AllowQuotedStrings: true}, []string{`say "hi"`, "z"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Split(tt.line, tt.delims, tt.opts))
		})
	}
}

func TestParseFormat(t *testing.T) {
	fields, err := ParseFormat("i5s12f8x1d10")
	require.NoError(t, err)
	assert.Equal(t, []Field{
		{Type: FieldInteger, Width: 5},
		{Type: FieldString, Width: 12},
		{Type: FieldDouble, Width: 8},
		{Type: FieldSpace, Width: 1},
		{Type: FieldDouble, Width: 10},
	}, fields)

	_, err = ParseFormat("q5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown field code")

	_, err = ParseFormat("i")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing width")
}

func TestFixedWidth(t *testing.T) {
	t.Run("single integer", func(t *testing.T) {
		values, err := FixedWidthFormat("  5", "i3")
		require.NoError(t, err)
		require.Len(t, values, 1)
		assert.Equal(t, 5, values[0].Int)
	})

	t.Run("short line defaults remaining fields", func(t *testing.T) {
		values, err := FixedWidthFormat("5", "s12i4f8")
		require.NoError(t, err)
		require.Len(t, values, 3)
		assert.Equal(t, "5", values[0].Str)
		assert.Equal(t, 0, values[1].Int)
		assert.Equal(t, 0.0, values[2].Double)
	})

	t.Run("blank numeric is zero", func(t *testing.T) {
		values, err := FixedWidthFormat("     |        ", "i5x1f8")
		require.NoError(t, err)
		require.Len(t, values, 2)
		assert.Equal(t, 0, values[0].Int)
		assert.Equal(t, 0.0, values[1].Double)
	})

	t.Run("leading plus stripped", func(t *testing.T) {
		values, err := FixedWidthFormat("  +12", "i5")
		require.NoError(t, err)
		assert.Equal(t, 12, values[0].Int)
	})

	t.Run("width consumed regardless of content", func(t *testing.T) {
		values, err := FixedWidthFormat("1950 09000500     1234.    -999.", "i5s12f8f8")
		require.NoError(t, err)
		require.Len(t, values, 4)
		assert.Equal(t, 1950, values[0].Int)
		assert.Equal(t, "09000500", values[1].Str)
		assert.Equal(t, 1234.0, values[2].Double)
		assert.Equal(t, -999.0, values[3].Double)
	})

	t.Run("invalid number", func(t *testing.T) {
		_, err := FixedWidthFormat("1950 abc", "i5f3")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "field 2")
		assert.Contains(t, err.Error(), "invalid number")
	})
}

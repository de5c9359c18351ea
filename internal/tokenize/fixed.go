package tokenize

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// FieldType identifies how a fixed-width field is coerced.
type FieldType int

const (
	FieldString FieldType = iota
	FieldInteger
	FieldDouble
	// FieldSpace consumes columns without emitting a value.
	FieldSpace
)

func (t FieldType) String() string {
	switch t {
	case FieldString:
		return "string"
	case FieldInteger:
		return "integer"
	case FieldDouble:
		return "double"
	case FieldSpace:
		return "space"
	default:
		return "unknown"
	}
}

// Field describes one fixed-width column group.
type Field struct {
	Type  FieldType
	Width int
}

// Value is a single decoded field. Only the member matching Type is set.
type Value struct {
	Type   FieldType
	Int    int
	Double float64
	Str    string
}

// ParseFormat converts a Fortran-like format string such as "i5s12f8" into
// fields. Recognized codes: i (integer), f and d (double), s and a (string),
// x (space). Each code must be followed by a positive width.
func ParseFormat(format string) ([]Field, error) {
	var fields []Field
	s := strings.ToLower(strings.TrimSpace(format))
	for i := 0; i < len(s); {
		var ft FieldType
		switch s[i] {
		case 'i':
			ft = FieldInteger
		case 'f', 'd':
			ft = FieldDouble
		case 's', 'a':
			ft = FieldString
		case 'x':
			ft = FieldSpace
		default:
			return nil, fmt.Errorf("format %q: unknown field code %q at position %d", format, s[i], i)
		}
		i++
		j := i
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
		}
		if j == i {
			return nil, fmt.Errorf("format %q: missing width at position %d", format, i)
		}
		width, _ := strconv.Atoi(s[i:j])
		if width <= 0 {
			return nil, fmt.Errorf("format %q: width must be positive at position %d", format, i)
		}
		fields = append(fields, Field{Type: ft, Width: width})
		i = j
	}
	return fields, nil
}

// FixedWidth reads line using the given fields. Exactly Width characters are
// consumed per field regardless of content. Once the line is exhausted the
// remaining fields take their zero value, because StateMod files omit
// trailing blank columns. Space fields are not emitted.
func FixedWidth(line string, fields []Field) ([]Value, error) {
	values := make([]Value, 0, len(fields))
	pos := 0
	for i, f := range fields {
		var chunk string
		if pos < len(line) {
			end := min(pos+f.Width, len(line))
			chunk = line[pos:end]
		}
		pos += f.Width

		if f.Type == FieldSpace {
			continue
		}
		v, err := coerce(chunk, f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %d (%s%d): %w", i+1, f.Type, f.Width, err)
		}
		values = append(values, v)
	}
	return values, nil
}

// FixedWidthFormat is FixedWidth with the fields given as a format string.
func FixedWidthFormat(line, format string) ([]Value, error) {
	fields, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return FixedWidth(line, fields)
}

func coerce(chunk string, t FieldType) (Value, error) {
	trimmed := strings.TrimSpace(chunk)
	switch t {
	case FieldInteger:
		trimmed = strings.TrimPrefix(trimmed, "+")
		if trimmed == "" {
			return Value{Type: t}, nil
		}
		n, err := strconv.Atoi(trimmed)
		if err != nil {
			return Value{}, fmt.Errorf("invalid integer %q", chunk)
		}
		return Value{Type: t, Int: n}, nil
	case FieldDouble:
		if trimmed == "" {
			return Value{Type: t}, nil
		}
		d, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return Value{}, fmt.Errorf("invalid number %q", chunk)
		}
		return Value{Type: t, Double: d}, nil
	default:
		return Value{Type: t, Str: strings.TrimRightFunc(chunk, unicode.IsSpace)}, nil
	}
}

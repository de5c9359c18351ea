// Package tokenize splits StateMod text lines into fields, either on
// delimiter characters or on fixed column widths.
package tokenize

import "strings"

// SplitOptions controls delimiter-based splitting.
type SplitOptions struct {
	// SkipBlanks collapses adjacent delimiters so that no empty tokens are emitted.
	SkipBlanks bool
	// AllowQuotedStrings treats a span opened by ' or " as a single token in
	// which delimiters are literal. A doubled quote inside the span is an
	// escaped literal quote.
	AllowQuotedStrings bool
	// RetainQuotes keeps the surrounding quote characters in the emitted token.
	RetainQuotes bool
}

// Split breaks line into tokens separated by any character in delimiters.
// An empty line yields an empty result, never an error.
func Split(line, delimiters string, opts SplitOptions) []string {
	if line == "" {
		return nil
	}

	var (
		tokens  []string
		current strings.Builder
		quote   rune // active quote character, 0 when outside a quoted span
		runes   = []rune(line)
	)

	emit := func() {
		if current.Len() == 0 && opts.SkipBlanks {
			return
		}
		tokens = append(tokens, current.String())
		current.Reset()
	}

	for i := 0; i < len(runes); i++ {
		c := runes[i]

		if quote != 0 {
			if c != quote {
				current.WriteRune(c)
				continue
			}
			if i+1 < len(runes) && runes[i+1] == quote {
				// Escaped quote inside the span.
				current.WriteRune(c)
				i++
				continue
			}
			if opts.RetainQuotes {
				current.WriteRune(c)
			}
			quote = 0
			continue
		}

		if opts.AllowQuotedStrings && (c == '"' || c == '\'') {
			quote = c
			if opts.RetainQuotes {
				current.WriteRune(c)
			}
			continue
		}

		if strings.ContainsRune(delimiters, c) {
			emit()
			continue
		}
		current.WriteRune(c)
	}

	// The final token is emitted even when empty ("a," -> ["a", ""]) unless
	// blanks are skipped.
	emit()
	return tokens
}

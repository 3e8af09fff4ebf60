package classify

import (
	"strings"
	"unicode"
)

// Sanitize turns a raw model reply into a best-effort JSON candidate:
// code fences are stripped, control characters removed, and unescaped
// quotes inside the two known free-text fields repaired. The output is not
// guaranteed to parse; it is only cleaner than the input. Sanitizing twice
// yields the same text as sanitizing once.
func Sanitize(raw string) string {
	text := stripFences(raw)
	text = stripControlChars(text)
	return normalizeQuotedFields(text)
}

// stripFences removes a wrapping markdown code fence, with or without a
// language tag.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimLeftFunc(text, unicode.IsLetter)
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// stripControlChars drops characters below 0x20 except newline, carriage
// return and tab, which would otherwise break JSON parsing.
func stripControlChars(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r < 32 && r != '\n' && r != '\r' && r != '\t' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Free-text fields the model routinely breaks with interior quotes. Only
// these two are repaired; everything else is left alone.
var quotedFields = []string{`"message":`, `"reasoning":`}

// normalizeQuotedFields repairs unescaped interior quotes in the known
// free-text fields, line by line. Interior double quotes become single
// quotes and whitespace runs collapse to one space, preserving the
// original terminator. Only lines that start with the field assignment
// are touched; inline objects and multi-line string values are not
// handled.
func normalizeQuotedFields(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if !lineAssignsQuotedField(line) {
			continue
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		if !strings.HasPrefix(value, `"`) || len(value) < 2 {
			continue
		}

		terminator := `"`
		inner := ""
		switch {
		case strings.HasSuffix(value, `",`):
			terminator = `",`
			inner = value[1 : len(value)-2]
		case strings.HasSuffix(value, `"`):
			inner = value[1 : len(value)-1]
		default:
			// The string may still be terminated with object or array
			// closers after the quote. Repair only the quoted span then;
			// only a line with no closing quote at all gets closed.
			if idx := strings.LastIndex(value, `"`); idx > 0 && structuralTail(value[idx+1:]) {
				terminator = `"` + value[idx+1:]
				inner = value[1:idx]
			} else {
				inner = value[1:]
			}
		}

		inner = strings.ReplaceAll(inner, `"`, `'`)
		inner = strings.Join(strings.Fields(inner), " ")
		lines[i] = key + `: "` + inner + terminator
	}
	return strings.Join(lines, "\n")
}

// structuralTail reports whether s is only JSON closers, commas and
// whitespace, i.e. line content that follows a terminated string value.
func structuralTail(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch r {
		case '}', ']', ',', ' ', '\t':
		default:
			return false
		}
	}
	return true
}

func lineAssignsQuotedField(line string) bool {
	trimmed := strings.TrimSpace(line)
	for _, field := range quotedFields {
		if strings.HasPrefix(trimmed, field) {
			return true
		}
	}
	return false
}

package ledger

import "strings"

// escaped lists the characters that carry meaning either to Discord markdown
// or to the container grammar itself.
const escaped = "\\*_~`|>｜【】"

var escaper = func() *strings.Replacer {
	pairs := make([]string, 0, 2*len([]rune(escaped))+4)
	for _, r := range escaped {
		pairs = append(pairs, string(r), `\`+string(r))
	}
	// Entries are single lines.
	pairs = append(pairs, "\r", " ", "\n", " ")
	return strings.NewReplacer(pairs...)
}()

func escape(s string) string {
	return escaper.Replace(s)
}

// unescape drops the backslash in front of any escaped character.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	esc := false
	for _, r := range s {
		if esc {
			b.WriteRune(r)
			esc = false
			continue
		}
		if r == '\\' {
			esc = true
			continue
		}
		b.WriteRune(r)
	}
	if esc {
		b.WriteRune('\\')
	}
	return b.String()
}

// indexUnescaped returns the byte offset of the first occurrence of sep in s
// that is not preceded by an escaping backslash, or -1.
func indexUnescaped(s, sep string) int {
	for i := 0; i+len(sep) <= len(s); {
		if s[i] == '\\' {
			i += 2
			continue
		}
		if strings.HasPrefix(s[i:], sep) {
			return i
		}
		i++
	}
	return -1
}

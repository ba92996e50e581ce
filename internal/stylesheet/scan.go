package stylesheet

import "strings"

// Rule is one top-level `selector { body }` block found in a stylesheet.
// Offsets index into the stylesheet the rule was scanned from.
type Rule struct {
	Selector string
	Body     string
	Start    int // first byte of the selector text
	Open     int // index of '{'
	Close    int // index of '}'
}

// Rules scans the top-level rules of css. Blocks nested inside at-rules are
// not descended into; the at-rule itself is returned with its raw body.
// An unclosed block runs to the end of the text, as a browser would read a
// truncated stylesheet; its Close is len(css).
func Rules(css string) []Rule {
	var rules []Rule

	selStart := 0
	for i := 0; i < len(css); {
		switch css[i] {
		case '{':
			closing := matchBrace(css, i)
			if closing < 0 {
				return append(rules, Rule{
					Selector: cleanSelector(css[selStart:i]),
					Body:     css[i+1:],
					Start:    selStart,
					Open:     i,
					Close:    len(css),
				})
			}
			rules = append(rules, Rule{
				Selector: cleanSelector(css[selStart:i]),
				Body:     css[i+1 : closing],
				Start:    selStart,
				Open:     i,
				Close:    closing,
			})
			i = closing + 1
			selStart = i

			continue
		case '}', ';':
			selStart = i + 1
		}
		i = advance(css, i)
	}

	return rules
}

// FindRule returns the first top-level rule whose selector is exactly
// `.className`.
func FindRule(css, className string) (Rule, bool) {
	want := "." + className
	for _, r := range Rules(css) {
		if r.Selector == want {
			return r, true
		}
	}

	return Rule{}, false
}

// matchBrace returns the index of the brace closing the one at open, or -1.
func matchBrace(css string, open int) int {
	depth := 0
	for i := open; i < len(css); {
		switch css[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
		i = advance(css, i)
	}

	return -1
}

// closeOpen terminates whatever css leaves open at its end: a comment, a
// string, then any unclosed blocks. Balanced css is returned unchanged.
func closeOpen(css string) string {
	var suffix strings.Builder
	depth := 0

scan:
	for i := 0; i < len(css); {
		switch {
		case strings.HasPrefix(css[i:], "/*"):
			end := strings.Index(css[i+2:], "*/")
			if end < 0 {
				suffix.WriteString("*/")

				break scan
			}
			i += 2 + end + 2

			continue
		case css[i] == '"' || css[i] == '\'':
			q := css[i]
			j := i + 1
			for ; j < len(css) && css[j] != q; j++ {
				if css[j] == '\\' {
					j++
				}
			}
			if j >= len(css) {
				if j > len(css) {
					// A trailing backslash would escape the closing quote.
					suffix.WriteByte('\\')
				}
				suffix.WriteByte(q)

				break scan
			}
			i = j + 1

			continue
		case css[i] == '{':
			depth++
		case css[i] == '}':
			if depth > 0 {
				depth--
			}
		}
		i++
	}

	if depth > 0 {
		suffix.WriteString("\n")
		suffix.WriteString(strings.Repeat("}", depth))
	}

	return css + suffix.String()
}

// advance moves past the token at i: a whole comment, a whole quoted string,
// or a single byte.
func advance(css string, i int) int {
	switch {
	case strings.HasPrefix(css[i:], "/*"):
		end := strings.Index(css[i+2:], "*/")
		if end < 0 {
			return len(css)
		}

		return i + 2 + end + 2
	case css[i] == '"' || css[i] == '\'':
		q := css[i]
		for j := i + 1; j < len(css); j++ {
			switch css[j] {
			case '\\':
				j++
			case q:
				return j + 1
			}
		}

		return len(css)
	}

	return i + 1
}

// cleanSelector drops comments and collapses whitespace.
func cleanSelector(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); {
		if strings.HasPrefix(s[i:], "/*") {
			next := advance(s, i)
			b.WriteByte(' ')
			i = next

			continue
		}
		b.WriteByte(s[i])
		i++
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// declaration is one `name: value` entry inside a rule body. Span offsets
// index into the body: [Start, End) covers the trimmed text, Semi is the
// terminating ';' or -1.
type declaration struct {
	Name  string
	Value string
	Start int
	End   int
	Semi  int
	// segStart is where the segment begins, just after the previous ';'
	segStart int
}

// parseDeclarations splits a rule body on semicolons outside parentheses,
// strings and comments.
func parseDeclarations(body string) []declaration {
	var decls []declaration

	segStart := 0
	depth := 0
	emit := func(end, semi int) {
		seg := body[segStart:end]
		trimmed := strings.TrimSpace(seg)
		if trimmed != "" {
			lead := strings.Index(seg, trimmed)
			d := declaration{
				Start:    segStart + lead,
				End:      segStart + lead + len(trimmed),
				Semi:     semi,
				segStart: segStart,
			}
			if colon := strings.IndexByte(trimmed, ':'); colon >= 0 {
				d.Name = strings.ToLower(strings.TrimSpace(trimmed[:colon]))
				d.Value = strings.TrimSpace(trimmed[colon+1:])
			}
			decls = append(decls, d)
		}
	}

	for i := 0; i < len(body); {
		switch body[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ';':
			if depth == 0 {
				emit(i, i)
				segStart = i + 1
			}
		}
		i = advance(body, i)
	}
	emit(len(body), -1)

	return decls
}

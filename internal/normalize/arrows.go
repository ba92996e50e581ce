package normalize

import (
	"regexp"
	"strings"
)

var (
	arrowHeadRe   = regexp.MustCompile(`\bconst\s+([A-Z][\w$]*)\s*=\s*`)
	identPrefixRe = regexp.MustCompile(`^[A-Za-z_$][\w$]*`)
)

// RewriteArrowComponents turns capitalized arrow-function bindings into
// function declarations that take props and destructure it explicitly.
// Expression bodies gain an explicit return.
//
//	const Widget = ({label}) => <button>{label}</button>
//
// becomes
//
//	function Widget(props) {
//	  const {label} = props;
//	  return <button>{label}</button>;
//	}
func RewriteArrowComponents(src string) string {
	var b strings.Builder
	last := 0

	for _, m := range arrowHeadRe.FindAllStringSubmatchIndex(src, -1) {
		if m[0] < last {
			continue
		}

		name := src[m[2]:m[3]]
		decl, end, ok := rewriteArrow(src, name, m[1])
		if !ok {
			continue
		}

		b.WriteString(src[last:m[0]])
		b.WriteString(decl)
		last = end
	}

	if last == 0 {
		return src
	}
	b.WriteString(src[last:])

	return b.String()
}

// rewriteArrow parses the parameter list and body starting at pos and returns
// the replacement declaration plus the index just past the consumed text.
func rewriteArrow(src, name string, pos int) (string, int, bool) {
	params, next, ok := scanParams(src, pos)
	if !ok {
		return "", 0, false
	}

	next = skipSpace(src, next)
	if !strings.HasPrefix(src[next:], "=>") {
		return "", 0, false
	}

	destructure, ok := destructureLine(params)
	if !ok {
		return "", 0, false
	}

	bodyStart := skipSpace(src, next+2)
	if bodyStart >= len(src) {
		return "", 0, false
	}

	var b strings.Builder
	b.WriteString("function ")
	b.WriteString(name)
	b.WriteString("(props) {")

	switch src[bodyStart] {
	case '{':
		closing := matchClose(src, bodyStart)
		if closing < 0 {
			return "", 0, false
		}
		if destructure != "" {
			b.WriteString("\n  ")
			b.WriteString(destructure)
		}
		b.WriteString(RewriteArrowComponents(src[bodyStart+1 : closing]))
		b.WriteString("}")

		return b.String(), skipSemicolon(src, closing+1), true

	case '(':
		closing := matchClose(src, bodyStart)
		if closing < 0 {
			return "", 0, false
		}
		writeReturn(&b, destructure, src[bodyStart:closing+1])

		return b.String(), skipSemicolon(src, closing+1), true

	default:
		end, ok := expressionEnd(src, bodyStart)
		if !ok {
			return "", 0, false
		}
		expr := strings.TrimSpace(src[bodyStart:end])
		if expr == "" {
			return "", 0, false
		}
		writeReturn(&b, destructure, expr)

		return b.String(), skipSemicolon(src, end), true
	}
}

func writeReturn(b *strings.Builder, destructure, expr string) {
	b.WriteString("\n")
	if destructure != "" {
		b.WriteString("  ")
		b.WriteString(destructure)
		b.WriteString("\n")
	}
	b.WriteString("  return ")
	b.WriteString(expr)
	b.WriteString(";\n}")
}

// scanParams reads either a parenthesized parameter list or a single bare
// identifier at pos.
func scanParams(src string, pos int) (string, int, bool) {
	if pos >= len(src) {
		return "", 0, false
	}

	if src[pos] == '(' {
		closing := matchClose(src, pos)
		if closing < 0 {
			return "", 0, false
		}

		return strings.TrimSpace(src[pos+1 : closing]), closing + 1, true
	}

	ident := identPrefixRe.FindString(src[pos:])
	if ident == "" || ident == "async" || ident == "function" {
		return "", 0, false
	}

	return ident, pos + len(ident), true
}

// destructureLine builds the statement that binds the original parameters
// from props. An empty result means the parameters need no binding.
func destructureLine(params string) (string, bool) {
	switch {
	case params == "" || params == "props":
		return "", true
	case params[0] == '{':
		closing := matchClose(params, 0)
		if closing < 0 {
			return "", false
		}

		return "const " + params[:closing+1] + " = props;", true
	}

	ident := identPrefixRe.FindString(params)
	if ident == "" {
		return "", false
	}
	if ident == "props" {
		return "", true
	}

	return "const " + ident + " = props;", true
}

// expressionEnd finds the end of a bare arrow body: the first semicolon or
// line break outside any bracket or JSX element, or the end of input. It
// reports false when a JSX element in the body never closes.
func expressionEnd(src string, pos int) (int, bool) {
	depth := 0
	for i := pos; i < len(src); i++ {
		switch src[i] {
		case '<':
			if !startsJSX(src, pos, i) {
				continue
			}
			end := jsxElementEnd(src, i)
			if end < 0 {
				return 0, false
			}
			i = end - 1
		case '(', '{', '[':
			depth++
		case ')', '}', ']':
			if depth == 0 {
				return i, true
			}
			depth--
		case ';', '\n':
			if depth == 0 {
				return i, true
			}
		}
	}

	return len(src), true
}

// startsJSX reports whether the '<' at i opens a JSX element rather than a
// comparison: it must be followed by a tag name or '>' and sit where an
// expression can begin.
func startsJSX(src string, start, i int) bool {
	if i+1 >= len(src) {
		return false
	}
	if c := src[i+1]; c != '>' && !isTagStart(c) {
		return false
	}

	j := i - 1
	for j >= start && (src[j] == ' ' || src[j] == '\t' || src[j] == '\n' || src[j] == '\r') {
		j--
	}
	if j < start {
		return true
	}

	return strings.IndexByte("(?:&|=,[{!", src[j]) >= 0
}

func isTagStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// jsxElementEnd returns the index just past the JSX element opening at open,
// or -1 when it does not close. Attribute values and child expressions in
// braces are skipped whole; text children are not interpreted.
func jsxElementEnd(src string, open int) int {
	depth := 0
	for i := open; i < len(src); {
		switch src[i] {
		case '{':
			closing := matchClose(src, i)
			if closing < 0 {
				return -1
			}
			i = closing + 1

			continue
		case '<':
			if i+1 < len(src) && src[i+1] == '/' {
				gt := strings.IndexByte(src[i:], '>')
				if gt < 0 {
					return -1
				}
				i += gt + 1
				depth--
				if depth == 0 {
					return i
				}

				continue
			}
			if i+1 >= len(src) || (src[i+1] != '>' && !isTagStart(src[i+1])) {
				i++

				continue
			}

			end, selfClosing := tagEnd(src, i)
			if end < 0 {
				return -1
			}
			i = end
			if selfClosing {
				if depth == 0 {
					return i
				}

				continue
			}
			depth++

			continue
		}
		i++
	}

	return -1
}

// tagEnd scans an opening tag starting at its '<' and returns the index just
// past its '>' and whether it closed itself with "/>".
func tagEnd(src string, open int) (int, bool) {
	for i := open + 1; i < len(src); {
		switch src[i] {
		case '{':
			closing := matchClose(src, i)
			if closing < 0 {
				return -1, false
			}
			i = closing + 1

			continue
		case '"', '\'':
			q := strings.IndexByte(src[i+1:], src[i])
			if q < 0 {
				return -1, false
			}
			i += q + 2

			continue
		case '>':
			return i + 1, src[i-1] == '/'
		}
		i++
	}

	return -1, false
}

// matchClose returns the index of the bracket closing the one at open, or -1.
// Only the bracket kind at open is counted.
func matchClose(src string, open int) int {
	var closer byte
	switch src[open] {
	case '(':
		closer = ')'
	case '{':
		closer = '}'
	case '[':
		closer = ']'
	default:
		return -1
	}

	depth := 0
	for i := open; i < len(src); i++ {
		switch src[i] {
		case src[open]:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return i
			}
		}
	}

	return -1
}

func skipSpace(src string, pos int) int {
	for pos < len(src) && (src[pos] == ' ' || src[pos] == '\t' || src[pos] == '\n' || src[pos] == '\r') {
		pos++
	}

	return pos
}

func skipSemicolon(src string, pos int) int {
	i := pos
	for i < len(src) && (src[i] == ' ' || src[i] == '\t') {
		i++
	}
	if i < len(src) && src[i] == ';' {
		return i + 1
	}

	return pos
}

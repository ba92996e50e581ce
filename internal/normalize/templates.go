package normalize

import "strings"

// templateLiteral is a scanned backtick literal: len(chunks) == len(exprs)+1.
type templateLiteral struct {
	chunks []string
	exprs  []string
	nested bool
}

// RewriteTemplateLiterals flattens template literals into plain strings or
// string concatenation:
//
//	`a${x}b` -> "a" + (x) + "b"
//	`${x}`   -> (x)
//	`plain`  -> "plain"
//
// Literals with more than one interpolation or with a nested template are
// left unchanged, as is everything after an unterminated backtick.
func RewriteTemplateLiterals(src string) string {
	if !strings.Contains(src, "`") {
		return src
	}

	var b strings.Builder
	b.Grow(len(src))

	i := 0
	for i < len(src) {
		if src[i] != '`' {
			b.WriteByte(src[i])
			i++

			continue
		}

		lit, end, ok := scanTemplate(src, i)
		if !ok {
			b.WriteString(src[i:])

			break
		}

		b.WriteString(lit.rewrite(src[i:end]))
		i = end
	}

	return b.String()
}

func (t templateLiteral) rewrite(original string) string {
	if t.nested || len(t.exprs) > 1 {
		return original
	}

	if len(t.exprs) == 0 {
		return quote(t.chunks[0])
	}

	expr := strings.TrimSpace(t.exprs[0])
	if expr == "" {
		return original
	}

	parts := make([]string, 0, 3)
	if t.chunks[0] != "" {
		parts = append(parts, quote(t.chunks[0]))
	}
	parts = append(parts, "("+expr+")")
	if t.chunks[1] != "" {
		parts = append(parts, quote(t.chunks[1]))
	}

	return strings.Join(parts, " + ")
}

// scanTemplate scans the literal whose opening backtick is at start and
// returns it with the index just past the closing backtick.
func scanTemplate(src string, start int) (templateLiteral, int, bool) {
	var (
		lit   templateLiteral
		chunk strings.Builder
	)

	i := start + 1
	for i < len(src) {
		switch c := src[i]; {
		case c == '\\' && i+1 < len(src):
			chunk.WriteString(src[i : i+2])
			i += 2
		case c == '`':
			lit.chunks = append(lit.chunks, chunk.String())

			return lit, i + 1, true
		case c == '$' && i+1 < len(src) && src[i+1] == '{':
			expr, end, nested, ok := scanExpression(src, i+2)
			if !ok {
				return lit, 0, false
			}
			lit.chunks = append(lit.chunks, chunk.String())
			lit.exprs = append(lit.exprs, expr)
			lit.nested = lit.nested || nested
			chunk.Reset()
			i = end
		default:
			chunk.WriteByte(c)
			i++
		}
	}

	return lit, 0, false
}

// scanExpression reads an interpolation body starting just after "${" and
// returns it with the index just past the closing brace.
func scanExpression(src string, start int) (string, int, bool, bool) {
	depth := 0
	nested := false

	i := start
	for i < len(src) {
		c := src[i]
		switch c {
		case '{':
			depth++
		case '}':
			if depth == 0 {
				return src[start:i], i + 1, nested, true
			}
			depth--
		case '\'', '"':
			end := skipQuoted(src, i)
			if end < 0 {
				return "", 0, false, false
			}
			i = end

			continue
		case '`':
			_, end, ok := scanTemplate(src, i)
			if !ok {
				return "", 0, false, false
			}
			nested = true
			i = end

			continue
		}
		i++
	}

	return "", 0, false, false
}

// skipQuoted returns the index just past the string literal opened at pos,
// or -1 when it runs to the end of the line or input.
func skipQuoted(src string, pos int) int {
	q := src[pos]
	for i := pos + 1; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case q:
			return i + 1
		case '\n':
			return -1
		}
	}

	return -1
}

var quoteReplacer = strings.NewReplacer(
	`\\`, `\\`,
	`\"`, `\"`,
	"\\`", `\x60`,
	"`", `\x60`,
	`"`, `\"`,
	"\r", `\r`,
	"\n", `\n`,
)

// quote converts raw template text into a double-quoted string literal.
// Other backslash escapes mean the same thing in both literal kinds.
func quote(raw string) string {
	return `"` + quoteReplacer.Replace(raw) + `"`
}

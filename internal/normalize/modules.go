package normalize

import "regexp"

var (
	sideEffectImportRe = regexp.MustCompile(`(?m)^[ \t]*import\s+['"][^'"\n]+['"][ \t]*;?[ \t]*\r?\n?`)
	importFromRe       = regexp.MustCompile(`(?m)^[ \t]*import\s+[^;]*?\s*from\s+['"][^'"\n]+['"][ \t]*;?[ \t]*\r?\n?`)

	lineCommentRe = regexp.MustCompile(`(?m)(^|[^:\\])//.*$`)

	exportDefaultIdentRe = regexp.MustCompile(`(?m)^[ \t]*export\s+default\s+[A-Za-z_$][\w$]*[ \t]*;?[ \t]*$\r?\n?`)
	exportDefaultRe      = regexp.MustCompile(`\bexport\s+default\s+`)
	exportListRe         = regexp.MustCompile(`(?m)^[ \t]*export\s*\{[^}]*\}[ \t]*;?[ \t]*\r?\n?`)
	exportNamedRe        = regexp.MustCompile(`(?m)^([ \t]*)export\s+((?:const|let|var|function|class|async)\b)`)
)

// StripImports removes import statements, including multi-line named imports
// and side-effect imports. The runtime provides React as a global.
func StripImports(src string) string {
	src = sideEffectImportRe.ReplaceAllString(src, "")

	return importFromRe.ReplaceAllString(src, "")
}

// StripLineComments removes // comments to the end of the line. A // directly
// after a colon is kept so URL literals survive.
func StripLineComments(src string) string {
	return lineCommentRe.ReplaceAllString(src, "${1}")
}

// StripExports removes export statements and export keywords. The harness
// invokes the component by its detected name.
func StripExports(src string) string {
	src = exportDefaultIdentRe.ReplaceAllString(src, "")
	src = exportListRe.ReplaceAllString(src, "")
	src = exportDefaultRe.ReplaceAllString(src, "")

	return exportNamedRe.ReplaceAllString(src, "${1}${2}")
}

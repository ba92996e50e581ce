// Package resolve picks the component to render from normalized source by
// trying an ordered list of name detectors.
package resolve

import (
	"regexp"
	"strings"
)

// NameDetector finds a component name in normalized source.
type NameDetector interface {
	// Name identifies the strategy in logs and traces.
	Name() string
	// Detect returns the first matching component name.
	Detect(source string) (string, bool)
}

type patternDetector struct {
	name    string
	pattern *regexp.Regexp
}

func (d patternDetector) Name() string { return d.name }

func (d patternDetector) Detect(source string) (string, bool) {
	m := d.pattern.FindStringSubmatch(source)
	if m == nil {
		return "", false
	}

	return m[1], true
}

// FunctionDetector matches `function Name`.
func FunctionDetector() NameDetector {
	return patternDetector{
		name:    "function",
		pattern: regexp.MustCompile(`\bfunction\s+([A-Z][\w$]*)`),
	}
}

// ConstDetector matches `const Name =`.
func ConstDetector() NameDetector {
	return patternDetector{
		name:    "const",
		pattern: regexp.MustCompile(`\bconst\s+([A-Z][\w$]*)\s*=`),
	}
}

// DefaultSuffixes are the naming conventions the suffix detector looks for.
var DefaultSuffixes = []string{"Component", "Hero", "Table", "Card", "Accordion"}

// SuffixDetector matches any capitalized identifier ending in one of the
// given suffixes.
func SuffixDetector(suffixes ...string) NameDetector {
	if len(suffixes) == 0 {
		suffixes = DefaultSuffixes
	}

	quoted := make([]string, len(suffixes))
	for i, s := range suffixes {
		quoted[i] = regexp.QuoteMeta(s)
	}

	return patternDetector{
		name:    "suffix",
		pattern: regexp.MustCompile(`\b([A-Z][\w$]*(?:` + strings.Join(quoted, "|") + `))\b`),
	}
}

// Chain tries detectors in priority order; the first hit wins.
type Chain struct {
	detectors []NameDetector
}

// NewChain creates a chain. With no detectors it uses the default order:
// function declarations, const bindings, then naming suffixes.
func NewChain(detectors ...NameDetector) *Chain {
	if len(detectors) == 0 {
		detectors = []NameDetector{FunctionDetector(), ConstDetector(), SuffixDetector()}
	}

	return &Chain{detectors: detectors}
}

// Detect returns the resolved name and the detector that produced it.
func (c *Chain) Detect(source string) (name, detector string, ok bool) {
	for _, d := range c.detectors {
		if name, ok := d.Detect(source); ok {
			return name, d.Name(), true
		}
	}

	return "", "", false
}

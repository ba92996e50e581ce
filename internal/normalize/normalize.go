// Package normalize rewrites loosely formed, model-authored component source
// into a single self-contained function declaration that the in-browser
// transpiler can evaluate without a module system.
//
// Every step is a pure text rewrite. A step that finds nothing to match is a
// no-op, and a rewrite that cannot be completed leaves the original text in
// place, so Normalize never fails.
package normalize

// Step is one named rewrite in the normalization pipeline.
type Step struct {
	Name  string
	Apply func(src string) string
}

// Pipeline applies its steps in order.
type Pipeline struct {
	steps []Step
}

// DefaultSteps returns the standard rewrite sequence.
func DefaultSteps() []Step {
	return []Step{
		{Name: "strip-imports", Apply: StripImports},
		{Name: "strip-line-comments", Apply: StripLineComments},
		{Name: "strip-exports", Apply: StripExports},
		{Name: "arrow-components", Apply: RewriteArrowComponents},
		{Name: "template-literals", Apply: RewriteTemplateLiterals},
	}
}

// New creates a pipeline. With no steps it uses DefaultSteps.
func New(steps ...Step) *Pipeline {
	if len(steps) == 0 {
		steps = DefaultSteps()
	}

	return &Pipeline{steps: steps}
}

// Steps returns a copy of the pipeline's steps.
func (p *Pipeline) Steps() []Step {
	out := make([]Step, len(p.steps))
	copy(out, p.steps)

	return out
}

// Normalize runs every step over src.
func (p *Pipeline) Normalize(src string) string {
	out, _ := p.NormalizeWithTrace(src)

	return out
}

// NormalizeWithTrace runs every step and also returns the names of the steps
// that changed the text.
func (p *Pipeline) NormalizeWithTrace(src string) (string, []string) {
	var changed []string

	for _, step := range p.steps {
		next := step.Apply(src)
		if next != src {
			changed = append(changed, step.Name)
		}
		src = next
	}

	return src, changed
}

var defaultPipeline = New()

// Normalize runs the default pipeline.
func Normalize(src string) string {
	return defaultPipeline.Normalize(src)
}

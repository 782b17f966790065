// Package constitution re-checks generated feedback against named
// behavioral principles with a critique-and-revise pass.
package constitution

// Principle is a named behavioral constraint on generated output. The
// principle set is static configuration, never derived from request data.
type Principle struct {
	Name string
	Text string
}

// DefaultPrinciples returns the principles every improvement-suggestions
// answer is validated against.
func DefaultPrinciples() []Principle {
	return []Principle{
		{
			Name: "Helpful",
			Text: "The AI should provide helpful and relevant feedback.",
		},
		{
			Name: "Harmless",
			Text: "The AI should avoid generating harmful, unethical, or biased feedback.",
		},
	}
}

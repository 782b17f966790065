package constitution

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

// ErrUnavailable indicates the critique/revision service failed. Callers
// treat this as soft: the unvalidated text is still deliverable.
var ErrUnavailable = errors.New("validation service unavailable")

// cleanVerdict is the exact reply the critique prompt requests when the
// text already satisfies the principle.
const cleanVerdict = "No critique needed."

const critiquePrompt = `Principle (%s): %s

Text:
%s

Critique the text against the principle above. If the text fully satisfies the principle, reply with exactly "No critique needed." and nothing else. Otherwise describe briefly what violates the principle.

Critique:`

const revisionPrompt = `Principle (%s): %s

Critique: %s

Text:
%s

Rewrite the text so it satisfies the principle, addressing the critique. Keep all substantive content; do not shorten the text beyond what the critique requires.

Revision:`

// Completer issues one bounded generation call.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts ...llms.CallOption) (string, error)
}

// Validator runs the critique-and-revise pass: one critique round per
// principle, with a revision round only when the critique flags a problem.
type Validator struct {
	completer Completer
	logger    *zap.Logger
}

// NewValidator creates a principle validator.
func NewValidator(completer Completer, logger *zap.Logger) (*Validator, error) {
	if completer == nil {
		return nil, fmt.Errorf("completer cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	return &Validator{completer: completer, logger: logger}, nil
}

// Revise checks text against each principle in order, revising it when a
// critique flags a violation. The result is never empty when text is
// non-empty: a revision that comes back blank is discarded. Any model
// failure wraps ErrUnavailable; the caller decides whether to substitute
// the original text.
func (v *Validator) Revise(ctx context.Context, text string, principles []Principle) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	revised := text
	for _, p := range principles {
		critique, err := v.completer.Complete(ctx, fmt.Sprintf(critiquePrompt, p.Name, p.Text, revised))
		if err != nil {
			return "", fmt.Errorf("%w: critique against %s: %v", ErrUnavailable, p.Name, err)
		}
		if isClean(critique) {
			v.logger.Debug("principle satisfied", zap.String("principle", p.Name))
			continue
		}

		revision, err := v.completer.Complete(ctx, fmt.Sprintf(revisionPrompt, p.Name, p.Text, strings.TrimSpace(critique), revised))
		if err != nil {
			return "", fmt.Errorf("%w: revision for %s: %v", ErrUnavailable, p.Name, err)
		}
		revision = strings.TrimSpace(revision)
		if revision == "" {
			v.logger.Warn("revision came back empty, keeping previous text",
				zap.String("principle", p.Name))
			continue
		}

		v.logger.Debug("revised text", zap.String("principle", p.Name))
		revised = revision
	}
	return revised, nil
}

// isClean reports whether a critique declares the text compliant.
func isClean(critique string) bool {
	c := strings.ToLower(strings.TrimSpace(critique))
	return strings.Contains(c, strings.ToLower(strings.TrimSuffix(cleanVerdict, ".")))
}

// Package research answers natural-language questions about companies via an
// OpenAI-compatible completion provider. A failed completion is never an
// error to the caller: it degrades into a placeholder answer that is still
// persisted and shown to the user.
package research

import "context"

// Answer is the outcome of a completion call. Degraded answers carry a
// human-readable placeholder in Text and the failure cause in Reason, so
// internal logic and tests can distinguish success from degraded success.
// The distinction collapses to a plain string at the serialization boundary.
type Answer struct {
	Text     string
	Degraded bool
	Reason   string
}

// Completer asks the completion provider a question about a company.
// Implementations never return an error; failures degrade the Answer.
type Completer interface {
	Ask(ctx context.Context, company, tab, question string) Answer
}

package vision

import (
	"context"
	"errors"
	"io"
)

// SuggestionPrompt is the shared prompt used by all vision adapters.
const SuggestionPrompt = `This photo shows one product stocked by a restaurant (a kitchen or dining
room material, or a beverage). Identify it and respond with exactly one line
in plain text, format: name | category | sector
Use a short product name, a generic category (e.g. Talheres, Limpeza,
Refrigerantes, Sucos) and the restaurant sector where it is used (e.g.
Cozinha, Salão, Bar). Leave a field empty if unsure.`

// ErrNoSuggestion is returned when the model response has no usable line.
var ErrNoSuggestion = errors.New("no product recognised in image")

// Suggester proposes draft fields for a new item from a product photo.
type Suggester interface {
	Suggest(ctx context.Context, r io.Reader, mimeType string) (*Suggestion, error)
}

type Suggestion struct {
	Name        string
	Category    string
	Sector      string
	RawResponse string
}

// FromResponse parses raw model output into a Suggestion.
func FromResponse(raw string) (*Suggestion, error) {
	s := ParseResponse(raw)
	if s == nil {
		return nil, ErrNoSuggestion
	}
	s.RawResponse = raw
	return s, nil
}

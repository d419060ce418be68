// Package tokens estimates how many LLM tokens a gathered document uses.
package tokens

import (
	"fmt"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// DefaultModel is used when no model is given.
const DefaultModel = "gpt-4o"

// Counter counts tokens in text.
type Counter interface {
	Count(text string) int
}

// TiktokenCounter counts tokens with the BPE encoding of an OpenAI model.
type TiktokenCounter struct {
	model string
	enc   *tiktoken.Tiktoken
}

// NewCounter loads the encoding for model. The encoding tables are fetched
// and cached by tiktoken-go on first use.
func NewCounter(model string) (*TiktokenCounter, error) {
	if model == "" {
		model = DefaultModel
	}
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return nil, fmt.Errorf("loading tokenizer for model %q: %w", model, err)
	}
	return &TiktokenCounter{model: model, enc: enc}, nil
}

// Model returns the model the counter was built for.
func (c *TiktokenCounter) Model() string {
	return c.model
}

// Count returns the number of tokens in text, treating special-token markup
// as ordinary text.
func (c *TiktokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(c.enc.EncodeOrdinary(text))
}

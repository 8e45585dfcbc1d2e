package memory

import (
	"github.com/tiktoken-go/tokenizer"
)

// TiktokenCounter counts tokens with a real BPE codec. Falls back to
// cl100k_base when the model is unknown to the tokenizer tables.
type TiktokenCounter struct {
	codec tokenizer.Codec
}

// NewTiktokenCounter builds a counter for the given model name.
func NewTiktokenCounter(model string) (*TiktokenCounter, error) {
	codec, err := tokenizer.ForModel(tokenizer.Model(model))
	if err != nil {
		codec, err = tokenizer.Get(tokenizer.Cl100kBase)
		if err != nil {
			return nil, err
		}
	}
	return &TiktokenCounter{codec: codec}, nil
}

func (c *TiktokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	ids, _, err := c.codec.Encode(text)
	if err != nil {
		return EstimateCounter{}.Count(text)
	}
	return len(ids)
}

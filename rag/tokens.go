// Copyright (c) Microsoft. All rights reserved.

package rag

import (
	"unicode/utf8"

	"github.com/tiktoken-go/tokenizer"
)

// TokenCounter measures text in model tokens.
type TokenCounter interface {
	Count(text string) int
}

// TiktokenCounter counts with the o200k_base encoding used by the GPT-4o
// family.
type TiktokenCounter struct {
	codec tokenizer.Codec
}

func NewTiktokenCounter() (*TiktokenCounter, error) {
	enc, err := tokenizer.Get(tokenizer.O200kBase)
	if err != nil {
		return nil, err
	}
	return &TiktokenCounter{codec: enc}, nil
}

func (t *TiktokenCounter) Count(text string) int {
	ids, _, err := t.codec.Encode(text)
	if err != nil {
		return RuneCounter{}.Count(text)
	}
	return len(ids)
}

// RuneCounter estimates four runes per token. It needs no vocabulary.
type RuneCounter struct{}

func (RuneCounter) Count(text string) int {
	return (utf8.RuneCountInString(text) + 3) / 4
}

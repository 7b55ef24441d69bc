// Copyright (c) Microsoft. All rights reserved.

package rag

import (
	"strings"
	"unicode"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// Chunk is a window of a document. Start and End are rune offsets into the
// source text; Text is exactly the runes in [Start, End).
type Chunk struct {
	Index  int
	Text   string
	Start  int
	End    int
	Tokens int
}

// TextChunker splits text into overlapping windows of at most Size runes.
// Window ends prefer a sentence boundary in the back half of the window,
// then whitespace, then a hard cut. Each window after the first starts
// Overlap runes before the previous end, moved forward to a word start.
//
// Invalid settings are clamped: Size <= 0 becomes 1000, a negative Overlap
// becomes 0 and an Overlap of Size or more becomes Size/4.
type TextChunker struct {
	Size    int
	Overlap int
	// Counter fills Chunk.Tokens. Defaults to [RuneCounter].
	Counter TokenCounter
}

func (c TextChunker) settings() (size, overlap int) {
	size, overlap = c.Size, c.Overlap
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 4
	}
	return size, overlap
}

// Split chunks text. Whitespace-only input yields no chunks.
func (c TextChunker) Split(text string) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	counter := c.Counter
	if counter == nil {
		counter = RuneCounter{}
	}
	size, overlap := c.settings()
	r := []rune(text)
	n := len(r)

	var chunks []Chunk
	start := 0
	for {
		end := n
		if start+size < n {
			end = cutPoint(r, start, start+size)
			if onlySpace(r[end:]) {
				end = n
			}
		}
		s := string(r[start:end])
		chunks = append(chunks, Chunk{Index: len(chunks), Text: s, Start: start, End: end, Tokens: counter.Count(s)})
		if end == n {
			return chunks
		}
		start = nextStart(r, start, end, overlap)
	}
}

// cutPoint picks the end of the window [start, limit).
func cutPoint(r []rune, start, limit int) int {
	half := start + (limit-start)/2
	for i := limit; i > half; i-- {
		if sentenceEnd(r, i) {
			return i
		}
	}
	for i := limit; i > start+1; i-- {
		if unicode.IsSpace(r[i-1]) {
			return i
		}
	}
	return limit
}

// sentenceEnd reports whether a sentence ends just before r[i].
func sentenceEnd(r []rune, i int) bool {
	prev := r[i-1]
	if prev == '\n' {
		return true
	}
	return (prev == '.' || prev == '!' || prev == '?') && i < len(r) && unicode.IsSpace(r[i])
}

func nextStart(r []rune, start, end, overlap int) int {
	next := end - overlap
	if next <= start {
		next = start + 1
	}
	for next < end && !unicode.IsSpace(r[next-1]) {
		next++
	}
	for next < end && unicode.IsSpace(r[next]) {
		next++
	}
	return next
}

func onlySpace(r []rune) bool {
	for _, c := range r {
		if !unicode.IsSpace(c) {
			return false
		}
	}
	return true
}

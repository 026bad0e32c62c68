// Package chunking splits cleaned document text into sentence-aligned segments for embedding.
package chunking

import (
	"strings"
	"unicode/utf8"
)

const DefaultMaxLength = 1000

const sentenceDelimiter = ". "

// Chunk greedily packs sentences (text split on ". ") into chunks of at most maxLength
// runes. A sentence that alone exceeds maxLength is emitted as one oversized chunk.
func Chunk(text string, maxLength int) []string {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	sentences := Sentences(text)
	var (
		chunks []string
		buf    strings.Builder
		bufLen int
	)
	for _, s := range sentences {
		n := utf8.RuneCountInString(s)
		if bufLen > 0 && bufLen+1+n > maxLength {
			chunks = append(chunks, buf.String())
			buf.Reset()
			bufLen = 0
		}
		if bufLen > 0 {
			buf.WriteByte(' ')
			bufLen++
		}
		buf.WriteString(s)
		bufLen += n
	}
	if bufLen > 0 {
		chunks = append(chunks, buf.String())
	}
	return chunks
}

// Sentences splits text on ". " and restores the period on every sentence but the last.
// Empty sentences are dropped.
func Sentences(text string) []string {
	parts := strings.Split(text, sentenceDelimiter)
	out := make([]string, 0, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if i < len(parts)-1 {
			p += "."
		}
		if p == "" || p == "." {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Clean collapses whitespace runs to single spaces and strips NUL bytes.
func Clean(text string) string {
	text = strings.ReplaceAll(text, "\x00", "")
	text = strings.ReplaceAll(text, "\u00a0", " ")
	return strings.Join(strings.Fields(text), " ")
}

package stream

import "strings"

const (
	// Delimiter separates blocks in a decoded chunk
	Delimiter = "\n\n"

	// DataPrefix marks a block that carries text to append
	DataPrefix = "data: "
)

// Fragments splits decoded text on Delimiter and returns the payload of every
// block that starts with DataPrefix, in order. Other blocks are dropped.
// Blocks are never joined across calls.
func Fragments(text string) []string {
	var out []string
	for _, block := range strings.Split(text, Delimiter) {
		if payload, ok := strings.CutPrefix(block, DataPrefix); ok {
			out = append(out, payload)
		}
	}
	return out
}

package render

import "strings"

// Markdown renders markdown content for terminal display.
// Uses a pooled renderer since a glamour renderer is not safe for concurrent use.
func Markdown(content string, opts Options) (string, error) {
	renderer, err := globalPool.get(opts)
	if err != nil {
		return "", err
	}
	defer globalPool.put(opts, renderer)

	return renderer.Render(content)
}

// MarkdownWithWidth renders with default options at the given width.
func MarkdownWithWidth(content string, width int) (string, error) {
	return Markdown(content, DefaultOptions().WithWidth(width))
}

// MessageContent renders an assistant message, trimming glamour's outer blank
// lines. Falls back to the raw text when rendering fails so a partially
// streamed answer is always visible.
func MessageContent(content string, opts Options) string {
	if content == "" {
		return ""
	}
	out, err := Markdown(content, opts)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}

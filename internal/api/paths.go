package api

import (
	"strings"

	http "github.com/bogdanfinn/fhttp"
	"github.com/tidwall/gjson"
)

// GJSON paths probed, in order, for a human readable message in an error body.
// Covers {"error":{"message":..}}, {"error":..}, {"message":..} and {"detail":..}.
var errorMessagePaths = []string{
	"error.message",
	"error",
	"message",
	"detail",
}

// errorMessage extracts a message from a failed response body.
// Falls back to the trimmed body text, then to the status text.
func errorMessage(statusCode int, body []byte) string {
	if gjson.ValidBytes(body) {
		for _, path := range errorMessagePaths {
			if r := gjson.GetBytes(body, path); r.Type == gjson.String && r.Str != "" {
				return r.Str
			}
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" && !gjson.ValidBytes(body) {
		return text
	}

	if text := http.StatusText(statusCode); text != "" {
		return text
	}
	return "request failed"
}

// Package textfmt adapta las respuestas del bot a lo que admite cada chat.
package textfmt

import (
	"encoding/base64"
	"fmt"
	"html"
	"strings"
)

// Mention antepone @usuario al texto.
func Mention(username, text string) string {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" {
		return text
	}
	return "@" + username + " " + text
}

// SplitLines parte el texto en líneas no vacías, como mucho max (0 = sin límite).
func SplitLines(text string, max int) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if max > 0 && len(out) == max {
			out[max-1] += " …"
			break
		}
		out = append(out, line)
	}
	return out
}

// Flatten une las líneas con sep para chats de una sola línea.
func Flatten(text, sep string, max int) string {
	return strings.Join(SplitLines(text, max), sep)
}

// Truncate corta a n runas.
func Truncate(text string, n int) string {
	runes := []rune(text)
	if n <= 0 || len(runes) <= n {
		return text
	}
	if n == 1 {
		return "…"
	}
	return string(runes[:n-1]) + "…"
}

// HTML escapa el texto para Mumble; el texto multilínea va en <pre> para conservar columnas.
func HTML(text string) string {
	escaped := html.EscapeString(text)
	if strings.Contains(text, "\n") {
		return "<pre>" + escaped + "</pre>"
	}
	return escaped
}

// ImageHTML incrusta la imagen como data URI.
func ImageHTML(data []byte, mimeType, caption string) string {
	if mimeType == "" {
		mimeType = "image/png"
	}
	img := fmt.Sprintf(`<img src="data:%s;base64,%s"/>`, mimeType, base64.StdEncoding.EncodeToString(data))
	if caption == "" {
		return img
	}
	return img + "<br/>" + html.EscapeString(caption)
}

package mumbleadapter

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DecodeText pasa el cuerpo HTML de un mensaje Mumble a texto plano.
// Los clientes convierten cada URL en <a href="U">U</a> y escapan el resto;
// de un enlace queda solo el href.
func DecodeText(raw string) string {
	z := html.NewTokenizer(strings.NewReader(raw))
	var sb strings.Builder
	inLink := false

	for {
		switch z.Next() {
		case html.ErrorToken:
			return sb.String()
		case html.TextToken:
			if !inLink {
				sb.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			switch tok.DataAtom {
			case atom.A:
				if href := attr(tok, "href"); href != "" {
					sb.WriteString(href)
					inLink = tok.Type == html.StartTagToken
				}
			case atom.Br:
				sb.WriteByte('\n')
			}
		case html.EndTagToken:
			if tok := z.Token(); tok.DataAtom == atom.A {
				inLink = false
			}
		}
	}
}

func attr(tok html.Token, key string) string {
	for _, a := range tok.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

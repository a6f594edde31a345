package format

import (
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/Ahmad-mukhtar07/EZ-NoteTaker/capture"
)

var sanitizer = bluemonday.UGCPolicy()

// FromHTML formats a highlight using its HTML fragment when one was
// captured. The fragment is sanitized and converted to markdown so list
// structure survives as "- " and "1. " prefixes, then classified like any
// plain selection. Falls back to the plain-text selection when the fragment
// is empty or yields nothing.
func FromHTML(sel capture.SelectionPayload) Transaction {
	if strings.TrimSpace(sel.HTML) == "" {
		return FromSelection(sel)
	}

	clean := sanitizer.Sanitize(sel.HTML)

	md, err := htmltomarkdown.ConvertString(clean)
	if err != nil || strings.TrimSpace(md) == "" {
		// Markdown conversion is best-effort; recover the visible text.
		if text := textOf(clean); strings.TrimSpace(text) != "" {
			md = text
		} else {
			return FromSelection(sel)
		}
	}

	plain := sel
	plain.Text = strings.TrimRight(md, "\n")
	return FromSelection(plain)
}

// textOf extracts the visible text of an HTML fragment, skipping script and
// style subtrees, joining text nodes with single spaces.
func textOf(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return ""
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(text)
			}
		}
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return sb.String()
}

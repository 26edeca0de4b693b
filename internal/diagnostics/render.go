package diagnostics

import (
	"html"
	"strings"
)

// RenderHTML renders the record as the two-section table appended to HTML mail.
func RenderHTML(rec *Record) string {
	if rec == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString("<h4>Extra Diagnostic Data:</h4>\r\n")
	b.WriteString("<table><tbody>\r\n")
	writeHTMLSection(&b, "Client Data", rec.Client)
	writeHTMLSection(&b, "Server Data", rec.Server)
	b.WriteString("</tbody></table>\r\n\r\n")
	return b.String()
}

func writeHTMLSection(b *strings.Builder, title string, facts Facts) {
	b.WriteString(`<tr><th scope="col" colspan="2">` + html.EscapeString(title) + "</th></tr>\r\n")
	for _, f := range facts {
		b.WriteString(`<tr><th scope="row">` + html.EscapeString(f.Key) + "</th><td>" + html.EscapeString(f.Value) + "</td></tr>\r\n")
	}
}

// RenderText renders the record as an aligned plain-text block.
func RenderText(rec *Record) string {
	if rec == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString("Extra Diagnostic Data:\r\n\r\n")
	writeTextSection(&b, "Client Data", rec.Client)
	b.WriteString("\r\n")
	writeTextSection(&b, "Server Data", rec.Server)
	b.WriteString("\r\n")
	return b.String()
}

func writeTextSection(b *strings.Builder, title string, facts Facts) {
	b.WriteString(title + "\r\n")
	width := 0
	for _, f := range facts {
		width = max(width, len(f.Key))
	}
	for _, f := range facts {
		b.WriteString("  " + f.Key + ":" + strings.Repeat(" ", width-len(f.Key)+1) + f.Value + "\r\n")
	}
}

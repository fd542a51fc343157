package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// promptHTMLLimit bounds how much page HTML is sent to the extraction
// service, to respect model context limits.
const promptHTMLLimit = 15000

// PromptHTML prepares rendered HTML for an extraction prompt: script, style,
// noscript, svg and comment content is dropped, whitespace runs collapse to
// a single space, and the result is cut to a bounded prefix.
func PromptHTML(rawHTML string) string {
	return truncate(compactHTML(rawHTML), promptHTMLLimit)
}

// compactHTML re-emits the document token by token, skipping content that
// carries no product data.
func compactHTML(rawHTML string) string {
	z := html.NewTokenizer(strings.NewReader(rawHTML))
	var buf strings.Builder
	skipDepth := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			return buf.String()
		case html.StartTagToken:
			tn, _ := z.TagName()
			if dropTag(string(tn)) {
				skipDepth++
				continue
			}
			if skipDepth == 0 {
				buf.Write(z.Raw())
			}
		case html.EndTagToken:
			tn, _ := z.TagName()
			if dropTag(string(tn)) {
				if skipDepth > 0 {
					skipDepth--
				}
				continue
			}
			if skipDepth == 0 {
				buf.Write(z.Raw())
			}
		case html.SelfClosingTagToken:
			if skipDepth == 0 {
				buf.Write(z.Raw())
			}
		case html.TextToken:
			if skipDepth == 0 {
				buf.WriteString(collapseSpace(string(z.Raw())))
			}
		}
	}
}

func dropTag(tag string) bool {
	switch tag {
	case "script", "style", "noscript", "svg", "template":
		return true
	}
	return false
}

// collapseSpace shrinks every whitespace run to a single space, preserving
// one leading/trailing space so words across inline tags stay separated.
func collapseSpace(s string) string {
	var b strings.Builder
	inSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			inSpace = true
			continue
		}
		if inSpace {
			b.WriteByte(' ')
			inSpace = false
		}
		b.WriteRune(r)
	}
	if inSpace {
		b.WriteByte(' ')
	}
	return b.String()
}

// truncate cuts s to at most limit bytes on a rune boundary.
func truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

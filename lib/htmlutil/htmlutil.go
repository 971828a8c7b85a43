package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"go.opentelemetry.io/otel"
	"golang.org/x/net/html"
)

var tracer = otel.Tracer("nemis.lib.htmlutil")

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// collapses an element's rendered text into a single trimmed line,
// dropping the portal's non-breaking-space filler along the way
func CleanText(node *html.Node) string {
	text := GetText(node)
	text = strings.ReplaceAll(text, " ", " ")
	text = removeNonPrintable(text)
	text = strings.Trim(text, " \t\n")
	text = innerWhitespace.ReplaceAllString(text, " ")
	return text
}

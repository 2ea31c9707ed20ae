package extract

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/askmydocs/askmydocs/internal/model"
)

// markdownSplitter walks the goldmark AST and emits one element per
// heading-scoped section so section titles survive into chunk metadata.
type markdownSplitter struct{}

func (m *markdownSplitter) Split(data []byte) ([]Element, error) {
	md := goldmark.New()
	reader := text.NewReader(data)
	doc := md.Parser().Parse(reader)

	elements := make([]Element, 0)
	var current []string
	currentHeading := ""
	position := 0

	flush := func() {
		body := strings.TrimSpace(strings.Join(current, "\n\n"))
		current = nil
		if body == "" {
			return
		}
		meta := model.Metadata{}
		meta.SetString("category", "section")
		meta.SetString("content_type", "text/markdown")
		meta.SetInt("section", position)
		if currentHeading != "" {
			meta.SetString("heading", currentHeading)
		}
		elements = append(elements, Element{Text: body, Metadata: meta})
		position++
	}

	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *ast.Heading:
			if n.Level <= 2 {
				flush()
				currentHeading = string(n.Text(reader.Source()))
				continue
			}
			current = append(current, string(n.Text(reader.Source())))
		case *ast.FencedCodeBlock:
			var code strings.Builder
			for i := 0; i < n.Lines().Len(); i++ {
				line := n.Lines().At(i)
				code.Write(line.Value(reader.Source()))
			}
			if code.Len() > 0 {
				current = append(current, code.String())
			}
		default:
			if txt := nodeText(node, reader.Source()); txt != "" {
				current = append(current, txt)
			}
		}
	}
	flush()
	return elements, nil
}

func nodeText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if node.Kind() == ast.KindText {
			sb.Write(node.(*ast.Text).Segment.Value(source))
			sb.WriteByte(' ')
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

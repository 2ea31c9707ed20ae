package extract

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv"

	"github.com/askmydocs/askmydocs/internal/model"
)

// DocExtractor converts arbitrary uploads through docconv and markdown
// uploads through the heading-aware splitter.
type DocExtractor struct {
	markdown *markdownSplitter
}

func NewDocExtractor() *DocExtractor {
	return &DocExtractor{markdown: &markdownSplitter{}}
}

func (e *DocExtractor) Extract(ctx context.Context, data []byte, filename, contentType string) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mimeType := normalizeContentType(filename, contentType)
	if isMarkdown(mimeType, filename) {
		return e.markdown.Split(data)
	}

	res, err := docconv.Convert(bytes.NewReader(data), mimeType, false)
	if err != nil {
		return nil, fmt.Errorf("convert %s (%s): %w", filename, mimeType, err)
	}
	text := strings.TrimSpace(res.Body)
	if text == "" {
		return []Element{}, nil
	}
	meta := model.Metadata{}
	meta.SetString("category", "text")
	meta.SetString("content_type", mimeType)
	for k, v := range res.Meta {
		if v != "" {
			meta.SetString("doc_"+strings.ToLower(k), v)
		}
	}
	return []Element{{Text: text, Metadata: meta}}, nil
}

func normalizeContentType(filename, contentType string) string {
	ct := strings.TrimSpace(contentType)
	if idx := strings.Index(ct, ";"); idx >= 0 {
		ct = ct[:idx]
	}
	if ct != "" && ct != "application/octet-stream" {
		return ct
	}
	if byExt := mime.TypeByExtension(filepath.Ext(filename)); byExt != "" {
		if idx := strings.Index(byExt, ";"); idx >= 0 {
			byExt = byExt[:idx]
		}
		return byExt
	}
	return "text/plain"
}

func isMarkdown(mimeType, filename string) bool {
	if mimeType == "text/markdown" {
		return true
	}
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".md" || ext == ".markdown"
}

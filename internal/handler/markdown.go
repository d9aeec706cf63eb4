package handler

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

// renderNotes 把习惯备注按 Markdown 渲染为净化后的 HTML
func renderNotes(notes string) string {
	if notes == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(notes), &buf); err != nil {
		// 渲染失败时退回纯文本，仍需净化
		return string(sanitizer.SanitizeBytes([]byte(notes)))
	}

	return string(sanitizer.SanitizeBytes(buf.Bytes()))
}

package ui

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

const reportPage = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Churn model report</title></head>
<body>
%s
</body>
</html>
`

// RenderMarkdown converts a Markdown document to an HTML fragment
func RenderMarkdown(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	return markdown.ToHTML([]byte(md), p, renderer)
}

func (s *Server) handleReport(c *gin.Context) {
	threshold := s.options.DefaultThreshold
	report, err := s.pipeline.Report(c.Request.Context(), s.session, threshold)
	if err != nil {
		writeError(c, err)
		return
	}

	if c.Query("format") == "md" {
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(report))
		return
	}
	page := fmt.Sprintf(reportPage, RenderMarkdown(report))
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

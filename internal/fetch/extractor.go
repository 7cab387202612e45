package fetch

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// Extractor 从 HTML 中提取正文纯文本
type Extractor interface {
	Extract(r io.Reader, pageURL *url.URL) (string, error)
}

// NewExtractor 按名称创建提取器：paragraphs 或 readability
func NewExtractor(name string) (Extractor, error) {
	switch name {
	case "", "paragraphs":
		return ParagraphExtractor{}, nil
	case "readability":
		return ReadabilityExtractor{}, nil
	default:
		return nil, fmt.Errorf("unknown extractor: %s", name)
	}
}

// ParagraphExtractor 去掉 script/style 后只保留 <p> 内的文字，每段文字独占一行
type ParagraphExtractor struct{}

// Extract 实现 Extractor
func (ParagraphExtractor) Extract(r io.Reader, _ *url.URL) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parse document: %w", err)
	}
	doc.Find("script, style").Remove()

	var lines []string
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		for _, n := range p.Nodes {
			lines = appendText(lines, n)
		}
	})
	return strings.Join(lines, "\n"), nil
}

// appendText 深度优先收集文本节点，去掉首尾空白后丢弃空串
func appendText(lines []string, n *html.Node) []string {
	if n.Type == html.TextNode {
		if s := strings.TrimSpace(n.Data); s != "" {
			lines = append(lines, s)
		}
		return lines
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		lines = appendText(lines, c)
	}
	return lines
}

// ReadabilityExtractor 使用 go-readability 提取主体内容
type ReadabilityExtractor struct{}

// Extract 实现 Extractor
func (ReadabilityExtractor) Extract(r io.Reader, pageURL *url.URL) (string, error) {
	article, err := readability.FromReader(r, pageURL)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(article.TextContent), nil
}

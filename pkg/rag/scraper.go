// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rag

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/teradata-labs/levelapp/pkg/evaluation"
)

// ScrapeTimeout bounds the source-page fetch.
const ScrapeTimeout = 60 * time.Second

var scrapeClient = &http.Client{Timeout: ScrapeTimeout}

// Scrape fetches a page and extracts its paragraph texts in document
// order. Script and style subtrees are skipped; empty paragraphs are
// dropped.
func Scrape(ctx context.Context, pageURL string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("bad page url: %w", err)
	}
	resp, err := scrapeClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &evaluation.HTTPError{StatusCode: resp.StatusCode, Message: "page fetch failed"}
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return extractParagraphs(doc), nil
}

func extractParagraphs(doc *html.Node) []string {
	var paragraphs []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			case "p":
				if text := strings.TrimSpace(nodeText(n)); text != "" {
					paragraphs = append(paragraphs, normalizeSpace(text))
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return paragraphs
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// PackChunks packs paragraphs into chunks of at most chunkSize
// characters, preserving order and never splitting a paragraph. A
// paragraph longer than chunkSize becomes its own oversized chunk.
func PackChunks(paragraphs []string, chunkSize int) []string {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	var chunks []string
	var current strings.Builder
	for _, p := range paragraphs {
		if current.Len() == 0 {
			current.WriteString(p)
			continue
		}
		if current.Len()+2+len(p) > chunkSize {
			chunks = append(chunks, current.String())
			current.Reset()
			current.WriteString(p)
			continue
		}
		current.WriteString("\n\n")
		current.WriteString(p)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

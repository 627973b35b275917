package markdown

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/chiawen/aiwriter/internal/model"
)

// chineseH2Re matches the H2 headings the article generator emits
// (## 一、 ## 二、 ...), used to anchor body image insertion.
var chineseH2Re = regexp.MustCompile(`(?m)^## [一二三四五六七八九十]`)

// bodyImagePositions are the slots inserted into the body, one per H2
// section, in order. The cover slot goes into frontmatter instead.
var bodyImagePositions = []string{"image1", "image2", "image3"}

// BuildExport renders the publishable Markdown document: YAML
// frontmatter plus the body with each selected section image appended to
// the end of its H2 section.
func BuildExport(article *model.Article, author string) string {
	date := article.ScheduledDate.Format("2006-01-02")

	var coverImage, coverAlt string
	if cover, ok := article.Images["cover"]; ok {
		coverImage = cover.Selected.URL
		coverAlt = cover.Selected.Alt
	}
	if coverAlt == "" {
		coverAlt = article.Title
	}

	content := insertBodyImages(article.Content, article.Images)

	description := article.Description
	if description == "" {
		description = article.Title
	}

	tags := make([]string, 0, len(article.Tags))
	for _, t := range article.Tags {
		tags = append(tags, fmt.Sprintf("%q", t))
	}

	var faqYaml strings.Builder
	for _, f := range article.FAQ {
		fmt.Fprintf(&faqYaml, "  - q: %q\n    a: %q\n", f.Q, f.A)
	}

	return fmt.Sprintf(`---
title: %q
description: %q
publishDate: %s
category: %q
tags: [%s]
image: %q
imageAlt: %q
faq:
%sauthor: %q
---

%s`,
		article.Title, description, date, article.Category,
		strings.Join(tags, ", "), coverImage, coverAlt,
		faqYaml.String(), author, content)
}

// insertBodyImages appends each selected section image right before the
// next H2 heading (or at document end for the last section).
func insertBodyImages(content string, images map[string]model.ImageSlot) string {
	h2Spans := chineseH2Re.FindAllStringIndex(content, -1)

	// Walk sections in reverse so earlier insertion offsets stay valid.
	n := len(h2Spans)
	if n > 3 {
		n = 3
	}
	for idx := n - 1; idx >= 0; idx-- {
		slot, ok := images[bodyImagePositions[idx]]
		if !ok || slot.Selected.URL == "" {
			continue
		}
		img := fmt.Sprintf("\n\n![%s](%s)\n", slot.Selected.Alt, slot.Selected.URL)

		end := len(content)
		if idx+1 < len(h2Spans) {
			end = h2Spans[idx+1][0]
		}
		content = content[:end] + img + content[end:]
	}
	return content
}

// ExportFilename is the .md filename an article publishes under.
func ExportFilename(article *model.Article) string {
	return article.Slug + ".md"
}

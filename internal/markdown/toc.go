package markdown

import "strings"

// TOCEntry is one table-of-contents line.
type TOCEntry struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// ExtractTOC collects h2 and h3 headings in document order. When the
// article carries FAQ data a synthetic "常見問題 FAQ" entry is appended
// after all body headings, since the FAQ section is rendered from
// frontmatter rather than the body.
func ExtractTOC(content string, hasFAQ bool) []TOCEntry {
	var toc []TOCEntry
	for _, line := range strings.Split(content, "\n") {
		switch {
		case strings.HasPrefix(line, "### "):
			toc = append(toc, TOCEntry{Level: 3, Text: strings.TrimSpace(line[4:])})
		case strings.HasPrefix(line, "## "):
			toc = append(toc, TOCEntry{Level: 2, Text: strings.TrimSpace(line[3:])})
		}
	}
	if hasFAQ {
		toc = append(toc, TOCEntry{Level: 2, Text: "常見問題 FAQ"})
	}
	return toc
}

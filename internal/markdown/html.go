// Package markdown renders generated article Markdown into an HTML
// preview and a Word document export. Both consumers understand the same
// constrained dialect the article generator emits: headings 1-3, bold and
// italic emphasis, images, links, blockquotes, flat bullet lists, pipe
// tables, and horizontal rules.
package markdown

import (
	"fmt"
	"regexp"
	"strings"
)

// The passes are order-sensitive: tables before anything touches pipe
// characters, h3 before h2 before h1 so longer markers match first,
// bold-italic before bold before italic, and images before links since
// an image is a link pattern prefixed with "!".
var (
	tableBlockRe = regexp.MustCompile(`(?m)((?:^\|.+\|[ \t]*\n)+)`)
	tableSepRe   = regexp.MustCompile(`^\|[\s\-:|]+\|$`)

	h3Re = regexp.MustCompile(`(?m)^### (.+)$`)
	h2Re = regexp.MustCompile(`(?m)^## (.+)$`)
	h1Re = regexp.MustCompile(`(?m)^# (.+)$`)

	boldItalicRe = regexp.MustCompile(`\*\*\*(.+?)\*\*\*`)
	boldRe       = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicRe     = regexp.MustCompile(`\*(.+?)\*`)

	imageRe = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)
	linkRe  = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)

	blockquoteRe = regexp.MustCompile(`(?m)^> (.+)$`)
	listItemRe   = regexp.MustCompile(`(?m)^- (.+)$`)
	hrRe         = regexp.MustCompile(`(?m)^---$`)

	blockSplitRe = regexp.MustCompile(`\n\n+`)
)

// ToHTML converts article Markdown into preview HTML.
func ToHTML(md string) string {
	html := md
	if !strings.HasSuffix(html, "\n") {
		html += "\n"
	}

	html = tableBlockRe.ReplaceAllStringFunc(html, renderTableBlock)

	html = h3Re.ReplaceAllString(html, `<h3 class="preview-h3">$1</h3>`)
	html = h2Re.ReplaceAllString(html, `<h2 class="preview-h2">$1</h2>`)
	html = h1Re.ReplaceAllString(html, `<h1 class="preview-h1">$1</h1>`)

	html = boldItalicRe.ReplaceAllString(html, `<strong><em>$1</em></strong>`)
	html = boldRe.ReplaceAllString(html, `<strong>$1</strong>`)
	html = italicRe.ReplaceAllString(html, `<em>$1</em>`)

	html = imageRe.ReplaceAllString(html, `<img src="$2" alt="$1" class="preview-img" />`)
	html = linkRe.ReplaceAllString(html, `<a href="$2" target="_blank" rel="noopener">$1</a>`)

	html = blockquoteRe.ReplaceAllString(html, `<blockquote class="preview-quote">$1</blockquote>`)
	html = listItemRe.ReplaceAllString(html, `<li class="preview-li">$1</li>`)
	html = hrRe.ReplaceAllString(html, `<hr />`)

	blocks := blockSplitRe.Split(html, -1)
	var out []string
	for _, block := range blocks {
		trimmed := strings.TrimSpace(block)
		if trimmed == "" {
			continue
		}
		switch {
		case strings.HasPrefix(trimmed, "<li"):
			// Consecutive list items become one list, not one per item.
			out = append(out, `<ul class="preview-ul">`+trimmed+`</ul>`)
		case strings.HasPrefix(trimmed, "<h"),
			strings.HasPrefix(trimmed, "<img"),
			strings.HasPrefix(trimmed, "<blockquote"),
			strings.HasPrefix(trimmed, "<hr"),
			strings.HasPrefix(trimmed, `<div class="table-wrapper"`),
			strings.HasPrefix(trimmed, "<table"):
			out = append(out, trimmed)
		default:
			out = append(out, "<p>"+strings.ReplaceAll(trimmed, "\n", "<br />")+"</p>")
		}
	}
	return strings.Join(out, "\n")
}

// renderTableBlock converts one run of pipe-prefixed lines into a table.
// Blocks without a separator as their second row are left untouched so
// literal pipe text survives.
func renderTableBlock(tableBlock string) string {
	var rows []string
	for _, r := range strings.Split(strings.TrimSpace(tableBlock), "\n") {
		if strings.TrimSpace(r) != "" {
			rows = append(rows, r)
		}
	}
	if len(rows) < 2 {
		return tableBlock
	}
	if !tableSepRe.MatchString(strings.TrimSpace(rows[1])) {
		return tableBlock
	}

	var sb strings.Builder
	sb.WriteString(`<div class="table-wrapper"><table class="preview-table"><thead><tr>`)
	for _, h := range parseTableRow(rows[0]) {
		fmt.Fprintf(&sb, "<th>%s</th>", h)
	}
	sb.WriteString("</tr></thead><tbody>")
	for _, row := range rows[2:] {
		sb.WriteString("<tr>")
		for _, c := range parseTableRow(row) {
			fmt.Fprintf(&sb, "<td>%s</td>", c)
		}
		sb.WriteString("</tr>")
	}
	sb.WriteString("</tbody></table></div>")
	return sb.String()
}

// parseTableRow splits "| a | b |" into its trimmed cell values.
func parseTableRow(row string) []string {
	parts := strings.Split(row, "|")
	if len(parts) < 3 {
		return nil
	}
	cells := make([]string, 0, len(parts)-2)
	for _, cell := range parts[1 : len(parts)-1] {
		cells = append(cells, strings.TrimSpace(cell))
	}
	return cells
}

package markdown

import (
	"archive/zip"
	"bytes"
	"fmt"
	"regexp"
	"strings"
)

// The exporter writes a minimal WordprocessingML package directly: one
// document part, a styles part, the two relationship files, and the
// content-types manifest. The generated dialect is small enough that a
// full docx library buys nothing over emitting the XML ourselves.

const (
	tableWidthDXA = 9000
	headerShade   = "F0E8E0"
	borderColor   = "CCCCCC"
	linkColor     = "0066CC"
	captionColor  = "888888"
)

var frontmatterRe = regexp.MustCompile(`(?s)^---\n.*?\n---\n`)

// inlineRe scans emphasis and link runs in one first-match-wins pass so
// overlapping markers are not double-processed: bold-italic, bold,
// italic, then link-with-URL-annotation.
var inlineRe = regexp.MustCompile(`\*\*\*(.+?)\*\*\*|\*\*(.+?)\*\*|\*(.+?)\*|\[([^\]]+)\]\(([^)]+)\)`)

var docxImageRe = regexp.MustCompile(`^!\[([^\]]*)\]\(([^)]+)\)`)

type run struct {
	text   string
	bold   bool
	italic bool
	color  string
}

type paragraph struct {
	style        string // Title, Heading1, Heading2, Heading3, or ""
	runs         []run
	before       int // spacing in twentieths of a point
	after        int
	indent       int // left indent in DXA
	center       bool
	bulletPrefix bool
}

type tableBlock struct {
	headers []string
	rows    [][]string
}

type block struct {
	para  *paragraph
	table *tableBlock
}

// ExportDocx converts article Markdown (frontmatter stripped) into a
// .docx payload. The title becomes the document's leading Title
// paragraph.
func ExportDocx(title, markdown string) ([]byte, error) {
	content := frontmatterRe.ReplaceAllString(markdown, "")
	blocks := parseBlocks(title, content)
	return writePackage(blocks)
}

// parseBlocks runs the line state machine over the Markdown source.
func parseBlocks(title, content string) []block {
	lines := strings.Split(content, "\n")
	blocks := []block{
		{para: &paragraph{style: "Title", runs: []run{{text: title}}, after: 300}},
	}

	i := 0
	for i < len(lines) {
		line := lines[i]

		// Table block: first line pipes, second line the separator row.
		if strings.HasPrefix(line, "|") && i+1 < len(lines) && tableSepRe.MatchString(strings.TrimSpace(lines[i+1])) {
			var tableLines []string
			for i < len(lines) && strings.HasPrefix(lines[i], "|") {
				tableLines = append(tableLines, lines[i])
				i++
			}
			if t := makeTable(tableLines); t != nil {
				blocks = append(blocks, block{table: t})
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, "### "):
			blocks = append(blocks, block{para: &paragraph{
				style: "Heading3", runs: []run{{text: line[4:]}}, before: 250, after: 150,
			}})
		case strings.HasPrefix(line, "## "):
			blocks = append(blocks, block{para: &paragraph{
				style: "Heading2", runs: []run{{text: line[3:]}}, before: 350, after: 180,
			}})
		case strings.HasPrefix(line, "# "):
			blocks = append(blocks, block{para: &paragraph{
				style: "Heading1", runs: []run{{text: line[2:]}}, before: 400, after: 200,
			}})
		case strings.HasPrefix(line, "> "):
			blocks = append(blocks, block{para: &paragraph{
				runs: parseInline(line[2:]), indent: 720, before: 100, after: 100,
			}})
		case strings.HasPrefix(line, "- "):
			blocks = append(blocks, block{para: &paragraph{
				runs: parseInline(line[2:]), bulletPrefix: true, indent: 360, before: 50, after: 50,
			}})
		case docxImageRe.MatchString(line):
			// Images become an italic caption placeholder, not embedded data.
			if m := docxImageRe.FindStringSubmatch(line); m[1] != "" {
				blocks = append(blocks, block{para: &paragraph{
					runs:   []run{{text: "[圖片: " + m[1] + "]", italic: true, color: captionColor}},
					before: 100, after: 100, center: true,
				}})
			}
		case strings.TrimSpace(line) == "---":
			blocks = append(blocks, block{para: &paragraph{before: 200, after: 200}})
		case strings.TrimSpace(line) == "":
			// skip
		default:
			blocks = append(blocks, block{para: &paragraph{
				runs: parseInline(line), before: 80, after: 80,
			}})
		}
		i++
	}
	return blocks
}

// parseInline splits one line into styled runs.
func parseInline(text string) []run {
	var runs []run
	last := 0
	for _, m := range inlineRe.FindAllStringSubmatchIndex(text, -1) {
		if m[0] > last {
			runs = append(runs, run{text: text[last:m[0]]})
		}
		switch {
		case m[2] >= 0: // ***bold italic***
			runs = append(runs, run{text: text[m[2]:m[3]], bold: true, italic: true})
		case m[4] >= 0: // **bold**
			runs = append(runs, run{text: text[m[4]:m[5]], bold: true})
		case m[6] >= 0: // *italic*
			runs = append(runs, run{text: text[m[6]:m[7]], italic: true})
		case m[8] >= 0 && m[10] >= 0: // [label](url)
			label := text[m[8]:m[9]]
			url := text[m[10]:m[11]]
			runs = append(runs, run{text: label + " (" + url + ")", color: linkColor})
		}
		last = m[1]
	}
	if last < len(text) {
		runs = append(runs, run{text: text[last:]})
	}
	if len(runs) == 0 {
		runs = append(runs, run{text: text})
	}
	return runs
}

func makeTable(tableLines []string) *tableBlock {
	if len(tableLines) < 3 {
		return nil
	}
	headers := parseTableRow(tableLines[0])
	if len(headers) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(tableLines)-2)
	for _, line := range tableLines[2:] {
		rows = append(rows, parseTableRow(line))
	}
	return &tableBlock{headers: headers, rows: rows}
}

// ---- XML emission ----

func xmlEscape(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
	)
	return r.Replace(s)
}

func writeRun(sb *strings.Builder, r run) {
	sb.WriteString("<w:r>")
	if r.bold || r.italic || r.color != "" {
		sb.WriteString("<w:rPr>")
		if r.bold {
			sb.WriteString("<w:b/>")
		}
		if r.italic {
			sb.WriteString("<w:i/>")
		}
		if r.color != "" {
			fmt.Fprintf(sb, `<w:color w:val="%s"/>`, r.color)
		}
		sb.WriteString("</w:rPr>")
	}
	fmt.Fprintf(sb, `<w:t xml:space="preserve">%s</w:t>`, xmlEscape(r.text))
	sb.WriteString("</w:r>")
}

func writeParagraph(sb *strings.Builder, p *paragraph) {
	sb.WriteString("<w:p><w:pPr>")
	if p.style != "" {
		fmt.Fprintf(sb, `<w:pStyle w:val="%s"/>`, p.style)
	}
	if p.before > 0 || p.after > 0 {
		fmt.Fprintf(sb, `<w:spacing w:before="%d" w:after="%d"/>`, p.before, p.after)
	}
	if p.indent > 0 {
		fmt.Fprintf(sb, `<w:ind w:left="%d"/>`, p.indent)
	}
	if p.center {
		sb.WriteString(`<w:jc w:val="center"/>`)
	}
	sb.WriteString("</w:pPr>")
	if p.bulletPrefix {
		writeRun(sb, run{text: "• "})
	}
	for _, r := range p.runs {
		writeRun(sb, r)
	}
	sb.WriteString("</w:p>")
}

func writeCell(sb *strings.Builder, text string, width int, header bool) {
	sb.WriteString("<w:tc><w:tcPr>")
	fmt.Fprintf(sb, `<w:tcW w:w="%d" w:type="dxa"/>`, width)
	if header {
		fmt.Fprintf(sb, `<w:shd w:val="clear" w:color="auto" w:fill="%s"/>`, headerShade)
	}
	sb.WriteString("</w:tcPr><w:p>")
	writeRun(sb, run{text: text, bold: header})
	sb.WriteString("</w:p></w:tc>")
}

func writeTable(sb *strings.Builder, t *tableBlock) {
	cols := len(t.headers)
	colWidth := tableWidthDXA / cols

	sb.WriteString("<w:tbl><w:tblPr>")
	fmt.Fprintf(sb, `<w:tblW w:w="%d" w:type="dxa"/>`, tableWidthDXA)
	sb.WriteString("<w:tblBorders>")
	for _, side := range []string{"top", "left", "bottom", "right", "insideH", "insideV"} {
		fmt.Fprintf(sb, `<w:%s w:val="single" w:sz="4" w:space="0" w:color="%s"/>`, side, borderColor)
	}
	sb.WriteString("</w:tblBorders></w:tblPr><w:tblGrid>")
	for i := 0; i < cols; i++ {
		fmt.Fprintf(sb, `<w:gridCol w:w="%d"/>`, colWidth)
	}
	sb.WriteString("</w:tblGrid>")

	sb.WriteString("<w:tr>")
	for _, h := range t.headers {
		writeCell(sb, h, colWidth, true)
	}
	sb.WriteString("</w:tr>")

	for _, row := range t.rows {
		sb.WriteString("<w:tr>")
		for ci := range t.headers {
			cell := ""
			if ci < len(row) {
				cell = row[ci]
			}
			writeCell(sb, cell, colWidth, false)
		}
		sb.WriteString("</w:tr>")
	}
	sb.WriteString("</w:tbl>")
}

func writePackage(blocks []block) ([]byte, error) {
	var body strings.Builder
	body.WriteString(xmlHeader)
	body.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, b := range blocks {
		if b.table != nil {
			writeTable(&body, b.table)
			// Word requires a paragraph between a table and what follows.
			body.WriteString("<w:p/>")
			continue
		}
		writeParagraph(&body, b.para)
	}
	body.WriteString("</w:body></w:document>")

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []struct {
		name    string
		content string
	}{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", relsXML},
		{"word/_rels/document.xml.rels", documentRelsXML},
		{"word/styles.xml", stylesXML},
		{"word/document.xml", body.String()},
	}
	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			return nil, fmt.Errorf("creating %s: %w", part.name, err)
		}
		if _, err := w.Write([]byte(part.content)); err != nil {
			return nil, fmt.Errorf("writing %s: %w", part.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing docx package: %w", err)
	}
	return buf.Bytes(), nil
}

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

const contentTypesXML = xmlHeader + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/><Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/></Types>`

const relsXML = xmlHeader + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`

const documentRelsXML = xmlHeader + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/></Relationships>`

const stylesXML = xmlHeader + `<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:style w:type="paragraph" w:styleId="Title"><w:name w:val="Title"/><w:rPr><w:b/><w:sz w:val="56"/></w:rPr></w:style><w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="heading 1"/><w:rPr><w:b/><w:sz w:val="40"/></w:rPr></w:style><w:style w:type="paragraph" w:styleId="Heading2"><w:name w:val="heading 2"/><w:rPr><w:b/><w:sz w:val="32"/></w:rPr></w:style><w:style w:type="paragraph" w:styleId="Heading3"><w:name w:val="heading 3"/><w:rPr><w:b/><w:sz w:val="28"/></w:rPr></w:style></w:styles>`

package markdown

import (
	"strings"
	"testing"
	"time"

	"github.com/chiawen/aiwriter/internal/model"
)

func sampleArticle() *model.Article {
	return &model.Article{
		Title:         "如何挑選適合兩歲寶寶的繪本",
		Slug:          "如何挑選適合兩歲寶寶的繪本-abc123",
		Description:   "挑選兩歲繪本的完整指南。",
		Category:      "生活實用",
		Tags:          []string{"繪本", "育兒"},
		ScheduledDate: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		FAQ: []model.FAQ{
			{Q: "兩歲看什麼書？", A: "圖多字少的繪本。"},
		},
		Content: "開頭故事。\n\n## 一、第一節\n\n內文一。\n\n## 二、第二節\n\n內文二。\n\n## 三、第三節\n\n內文三。",
		Images: map[string]model.ImageSlot{
			"cover": {
				Selected: model.ImageCandidate{URL: "https://img.example/cover.jpg", Alt: "cover alt"},
				Source:   "pexels",
			},
			"image1": {
				Selected: model.ImageCandidate{URL: "https://img.example/1.jpg", Alt: "section one"},
				Source:   "pexels",
			},
		},
	}
}

func TestBuildExportFrontmatter(t *testing.T) {
	out := BuildExport(sampleArticle(), "薇佳媽咪")

	for _, want := range []string{
		`title: "如何挑選適合兩歲寶寶的繪本"`,
		`publishDate: 2025-07-01`,
		`category: "生活實用"`,
		`tags: ["繪本", "育兒"]`,
		`image: "https://img.example/cover.jpg"`,
		`imageAlt: "cover alt"`,
		`- q: "兩歲看什麼書？"`,
		`author: "薇佳媽咪"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if !strings.HasPrefix(out, "---\n") {
		t.Error("export does not start with frontmatter delimiter")
	}
}

// The image1 slot lands at the end of the first H2 section, before the
// second H2 heading.
func TestBuildExportBodyImagePlacement(t *testing.T) {
	out := BuildExport(sampleArticle(), "薇佳媽咪")

	imgIdx := strings.Index(out, "![section one](https://img.example/1.jpg)")
	secondH2 := strings.Index(out, "## 二、")
	if imgIdx < 0 {
		t.Fatal("body image not inserted")
	}
	if imgIdx > secondH2 {
		t.Errorf("image at %d should precede second H2 at %d", imgIdx, secondH2)
	}
	firstH2 := strings.Index(out, "## 一、")
	if imgIdx < firstH2 {
		t.Error("image inserted before its own section")
	}
}

func TestBuildExportEmptySlots(t *testing.T) {
	article := sampleArticle()
	article.Images = map[string]model.ImageSlot{}
	article.Description = ""

	out := BuildExport(article, "編輯部")

	if strings.Contains(out, "![") {
		t.Error("no images should be inserted when slots are empty")
	}
	if !strings.Contains(out, `image: ""`) {
		t.Error("cover image should be empty")
	}
	// Description falls back to the title.
	if !strings.Contains(out, `description: "如何挑選適合兩歲寶寶的繪本"`) {
		t.Errorf("description fallback missing:\n%s", out)
	}
}

func TestExportFilename(t *testing.T) {
	if got := ExportFilename(sampleArticle()); got != "如何挑選適合兩歲寶寶的繪本-abc123.md" {
		t.Errorf("ExportFilename = %q", got)
	}
}

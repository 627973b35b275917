package generator

import (
	"strings"
	"testing"
)

const sampleBody = `小雅第一次帶孩子去圖書館時，完全不知道該從哪裡開始挑書。

**先從孩子的興趣出發，挑選圖大字少、情節簡單的繪本，是最不會出錯的起點。**

## 一、怎麼判斷繪本適不適合兩歲

### 1. 看圖文比例

### 2. 看互動性

## 二、推薦的挑選管道

## 三、建立共讀習慣`

func TestParseResponseAllSidecars(t *testing.T) {
	raw := sampleBody + `

---FAQ_START---
[{"q": "兩歲看什麼書？", "a": "圖多字少的繪本。"}, {"q": "一天讀多久？", "a": "十到十五分鐘即可。"}, {"q": "撕書怎麼辦？", "a": "改用厚頁書。"}]
---FAQ_END---

---IMAGES_START---
{"cover": "toddler reading picture book", "image1": "library bookshelf children", "image2": "mother child reading", "image3": "colorful picture books"}
---IMAGES_END---

---TAGS_START---
["繪本", "親子共讀", "育兒"]
---TAGS_END---

---DESC_START---
"如何為兩歲寶寶挑選合適的繪本，從圖文比例到共讀習慣的完整指南。"
---DESC_END---`

	p := ParseResponse(raw)

	if p.Body != sampleBody {
		t.Errorf("body mismatch:\ngot:  %q\nwant: %q", p.Body, sampleBody)
	}
	if p.FAQ.Err != nil || len(p.FAQ.Value) != 3 {
		t.Errorf("FAQ = %+v, want 3 entries without error", p.FAQ)
	}
	if p.ImageKeywords.Err != nil || len(p.ImageKeywords.Value) != 4 {
		t.Errorf("ImageKeywords = %+v, want 4 entries without error", p.ImageKeywords)
	}
	if p.ImageKeywords.Value["cover"] != "toddler reading picture book" {
		t.Errorf("cover keyword = %q", p.ImageKeywords.Value["cover"])
	}
	if p.Tags.Err != nil || len(p.Tags.Value) != 3 {
		t.Errorf("Tags = %+v, want 3 entries without error", p.Tags)
	}
	if p.Description.Err != nil || p.Description.Value == "" {
		t.Errorf("Description = %+v, want non-empty without error", p.Description)
	}
}

// A truncated FAQ block must not take the image keywords or the body with it.
func TestParseResponseInvalidFAQKeepsRest(t *testing.T) {
	raw := sampleBody + `

---FAQ_START---
[{"q": "兩歲看什麼書？", "a": "圖多字
---FAQ_END---

---IMAGES_START---
{"cover": "toddler reading picture book"}
---IMAGES_END---`

	p := ParseResponse(raw)

	if !p.FAQ.Present {
		t.Error("FAQ.Present = false, want true")
	}
	if p.FAQ.Err == nil {
		t.Error("FAQ.Err = nil, want parse error")
	}
	if len(p.FAQ.Value) != 0 {
		t.Errorf("FAQ.Value = %v, want empty", p.FAQ.Value)
	}
	if p.ImageKeywords.Err != nil || p.ImageKeywords.Value["cover"] == "" {
		t.Errorf("ImageKeywords = %+v, want valid cover entry", p.ImageKeywords)
	}
	if len(p.Body) == 0 {
		t.Error("body is empty, want full article text")
	}
	if strings.Contains(p.Body, "FAQ_START") {
		t.Error("body still contains sidecar markers")
	}
}

func TestParseResponseMissingSidecars(t *testing.T) {
	p := ParseResponse(sampleBody)

	if p.FAQ.Present || p.ImageKeywords.Present || p.Tags.Present || p.Description.Present {
		t.Errorf("no sidecar should be present: %+v", p)
	}
	if p.Body != sampleBody {
		t.Error("body should be unchanged when no sidecars exist")
	}
}

func TestParseResponseUnterminatedBlock(t *testing.T) {
	raw := sampleBody + "\n\n---FAQ_START---\n[{\"q\": \"q\", \"a\":"

	p := ParseResponse(raw)

	if p.FAQ.Err == nil {
		t.Error("FAQ.Err = nil, want missing end marker error")
	}
	if strings.Contains(p.Body, "FAQ_START") {
		t.Error("body leaks the unterminated sidecar")
	}
}

func TestParseResponseFencedSidecar(t *testing.T) {
	raw := sampleBody + "\n\n---TAGS_START---\n```json\n[\"a\", \"b\"]\n```\n---TAGS_END---"

	p := ParseResponse(raw)

	if p.Tags.Err != nil || len(p.Tags.Value) != 2 {
		t.Errorf("Tags = %+v, want 2 entries parsed through the code fence", p.Tags)
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"```json\n[1,2]\n```", "[1,2]"},
		{"```\n[1,2]\n```", "[1,2]"},
		{"[1,2]", "[1,2]"},
		{"  [1,2]  ", "[1,2]"},
	}
	for _, tt := range tests {
		if got := stripCodeFence(tt.in); got != tt.want {
			t.Errorf("stripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

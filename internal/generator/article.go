package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/chiawen/aiwriter/internal/llm"
	"github.com/chiawen/aiwriter/internal/model"
)

// ArticleRequest carries everything one article generation needs.
type ArticleRequest struct {
	Title    string
	Category string
	// Length is a descriptive target like "2000-2500字", passed to the
	// model verbatim; it is not enforced by code.
	Length   string
	SiteSlug string
	// ExistingArticles feed the internal-link suggestion block.
	ExistingArticles []model.ExistingArticle
	// Sources are fetched citation contexts from the site's source URLs.
	Sources []string
}

// Draft is one generated article before scheduling and image resolution.
// Sidecar parse failures default the affected field and are reported in
// Warnings; they never fail the draft.
type Draft struct {
	Content       string
	FAQ           []model.FAQ
	ImageKeywords map[string]string
	Tags          []string
	Description   string
	Protagonist   string
	Warnings      []string
}

// GenerateArticle produces a full Markdown article plus its sidecars in a
// single completion call.
func (g *Generator) GenerateArticle(ctx context.Context, req ArticleRequest) (*Draft, error) {
	style := g.styles.For(req.SiteSlug)
	name := randomName(g.rng)

	systemPrompt := fmt.Sprintf(`%s

人名規則：
- 故事主角請使用「%s」這個名字
- 禁止使用%s等常見或外國名字
- 如果需要第二個角色，請自行從台灣常見名字中選擇（不要與主角重複）

文章結構（嚴格遵守）：
- H2 大標用中文數字：## 一、標題  ## 二、標題  ## 三、標題
- H3 小標用阿拉伯數字：### 1. 標題  ### 2. 標題
- 每個 H2 底下有 2-3 個 H3 小標
- 開頭用故事或情境帶入（100-150字）
- 故事後一段精簡回答（粗體，50-80字）
- 3 個 H2 重點段落
- 結尾不要加 FAQ（FAQ 會在 frontmatter 裡處理）`,
		strings.TrimSpace(style.ArticleStyle), name, forbiddenNames)

	userPrompt := g.buildArticlePrompt(req, style.ExtraSections, name)

	text, err := g.completer.Complete(ctx, systemPrompt, userPrompt, llm.Options{})
	if err != nil {
		return nil, fmt.Errorf("article generation: %w", err)
	}

	parsed := ParseResponse(text)
	if parsed.Body == "" {
		return nil, fmt.Errorf("article generation: empty body in response")
	}

	draft := &Draft{
		Content:       parsed.Body,
		FAQ:           []model.FAQ{},
		ImageKeywords: map[string]string{},
		Tags:          []string{},
		Protagonist:   name,
	}
	if parsed.FAQ.Err == nil && parsed.FAQ.Value != nil {
		draft.FAQ = parsed.FAQ.Value
	}
	if parsed.ImageKeywords.Err == nil && parsed.ImageKeywords.Value != nil {
		draft.ImageKeywords = parsed.ImageKeywords.Value
	}
	if parsed.Tags.Err == nil && parsed.Tags.Value != nil {
		draft.Tags = parsed.Tags.Value
	}
	if parsed.Description.Err == nil {
		draft.Description = parsed.Description.Value
	}

	for _, s := range []struct {
		name string
		err  error
	}{
		{"faq", parsed.FAQ.Err},
		{"imageKeywords", parsed.ImageKeywords.Err},
		{"tags", parsed.Tags.Err},
		{"description", parsed.Description.Err},
	} {
		if s.err != nil {
			draft.Warnings = append(draft.Warnings, fmt.Sprintf("%s sidecar: %v", s.name, s.err))
		}
	}

	return draft, nil
}

func (g *Generator) buildArticlePrompt(req ArticleRequest, extraSections, name string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, `請撰寫一篇關於「%s」的文章。

分類：%s
字數：%s
故事主角名字：%s

請用 Markdown 格式輸出文章內容（不含 frontmatter），包含：
1. 直接用故事開頭（100-150字），不要加「開頭故事」或任何標題，主角用「%s」
2. 故事後精簡回答（粗體），也不要加標題
3. 3 個 H2 段落（用 ## 一、 ## 二、 ## 三、格式）
4. 每個 H2 底下 2-3 個 H3 段落（用 ### 1. ### 2. 格式）
%s`, req.Title, req.Category, req.Length, name, name, extraSections)

	if len(req.ExistingArticles) > 0 {
		sb.WriteString("\n\n站內已有以下文章，適合時請在內文用 Markdown 連結自然引用 1-2 篇：\n")
		for _, a := range req.ExistingArticles {
			url := a.URL
			if url == "" {
				url = "/posts/" + a.Slug
			}
			fmt.Fprintf(&sb, "- [%s](%s)\n", a.Title, url)
		}
	}

	if len(req.Sources) > 0 {
		sb.WriteString("\n\n以下是可參考引用的資料來源內容：\n")
		for i, src := range req.Sources {
			fmt.Fprintf(&sb, "\n<source_%d>\n%s\n</source_%d>\n", i+1, src, i+1)
		}
	}

	fmt.Fprintf(&sb, `

文章結束後，請依序附上四個資料區塊，每個區塊用自己的標記包住，內容是 JSON：

%s
[{"q": "問題1", "a": "答案1（50-80字）"}, {"q": "問題2", "a": "答案2（50-80字）"}, {"q": "問題3", "a": "答案3（50-80字）"}]
%s

%s
{"cover": "3-5個英文單字，適合當封面的圖", "image1": "3-5個英文單字，第一個H2段落的配圖", "image2": "3-5個英文單字，第二個H2段落的配圖", "image3": "3-5個英文單字，第三個H2段落的配圖"}
%s

%s
["標籤1", "標籤2", "標籤3"]
%s

%s
"一段 80-120 字的文章摘要"
%s

圖片關鍵字要求：
- 每組 3-5 個英文單字
- 4 組不能重複
- 要具體可視覺化，適合在圖庫搜到高品質圖片
- 避免太抽象的詞

FAQ 要求：3-5 組，每組都要有 q 和 a。

直接輸出 Markdown 與上述資料區塊，不要有其他說明。`,
		faqStart, faqEnd, imagesStart, imagesEnd, tagsStart, tagsEnd, descStart, descEnd)

	return sb.String()
}
